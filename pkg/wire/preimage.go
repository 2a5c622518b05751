package wire

// Preimage builds the 64-byte buffer HMAC-SHA256 is computed over: the
// 16-byte source address, the SRH's 40 bytes with segments_left zeroed
// (never the wire copy), and the HMAC TLV's first 8 bytes (up to but not
// including hmac_value).
func Preimage(srcAddr [16]byte, srh *SRH, hmacTLV *HMACTLV) []byte {
	srhBytes := srh.preimageBytes()
	hdrBytes := hmacTLV.headerBytes()

	out := make([]byte, 0, len(srcAddr)+len(srhBytes)+len(hdrBytes))
	out = append(out, srcAddr[:]...)
	out = append(out, srhBytes[:]...)
	out = append(out, hdrBytes[:]...)
	return out
}
