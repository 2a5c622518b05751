// Package nexthop resolves a forwarding decision for a SID via a
// longest-prefix-match IPv6 trie, keyed on SID /128 prefixes and entered
// in deployment order so the first insertion wins any tie.
package nexthop

import (
	"net"
	"net/netip"

	"github.com/gaissmai/bart"

	"github.com/srv6pot/potnode/pkg/errs"
)

// MaxEntries bounds the forwarding table to the node's local SID plus its
// directly adjacent segments; a PoT node never carries a full routing
// table.
const MaxEntries = 8

// Table maps destination SIDs to the MAC address of the next node on the
// path. It is built once at start-up from the deployment file and never
// mutated on the packet hot path.
type Table struct {
	trie  bart.Table[net.HardwareAddr]
	count int
}

// New returns an empty next-hop table.
func New() *Table {
	return &Table{}
}

// Add inserts the mapping sid -> mac. Insert is first-wins: if sid is
// already present, the existing mapping is left untouched. Add fails with
// a Config error if the table is full or either address fails to parse.
func (t *Table) Add(sid, mac string) error {
	if t.count >= MaxEntries {
		return errs.New(errs.Config, "nexthop: table full (max %d entries)", MaxEntries)
	}
	addr, err := netip.ParseAddr(sid)
	if err != nil {
		return errs.New(errs.Config, "nexthop: invalid sid %q: %v", sid, err)
	}
	if !addr.Is6() {
		return errs.New(errs.Config, "nexthop: sid %q is not an IPv6 address", sid)
	}
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return errs.New(errs.Config, "nexthop: invalid mac %q: %v", mac, err)
	}

	pfx := netip.PrefixFrom(addr, addr.BitLen())
	if _, exists := t.trie.Get(pfx); exists {
		return nil
	}
	t.trie.Insert(pfx, hw)
	t.count++
	return nil
}

// Lookup resolves the next-hop MAC address for a destination SID. It
// reports false when no mapping covers addr.
func (t *Table) Lookup(addr netip.Addr) (net.HardwareAddr, bool) {
	return t.trie.Lookup(addr)
}

// Len reports the number of entries currently held.
func (t *Table) Len() int { return t.count }

// Entry is one SID-to-MAC mapping, formatted for display.
type Entry struct {
	SID string
	MAC string
}

// Entries returns every mapping currently held, in no particular order.
// It is used only by the management endpoint; the hot path always goes
// through Lookup.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, t.count)
	for pfx, mac := range t.trie.All() {
		out = append(out, Entry{SID: pfx.Addr().String(), MAC: mac.String()})
	}
	return out
}
