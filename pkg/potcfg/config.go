// Package potcfg loads the deployment file and builds the single
// immutable configuration value every worker shares by reference. Once
// constructed, a Config is never mutated; there is no package-level
// mutable global anywhere in this tree.
package potcfg

import (
	"encoding/hex"
	"net"
	"net/netip"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/srv6pot/potnode/pkg/errs"
	"github.com/srv6pot/potnode/pkg/nexthop"
	"github.com/srv6pot/potnode/pkg/potcrypto"
	"github.com/srv6pot/potnode/pkg/wire"
)

// nexthopEntry is one row of the deployment file's [[nexthops]] array.
type nexthopEntry struct {
	SID string `toml:"sid"`
	MAC string `toml:"mac"`
}

// deploymentFile mirrors the on-disk TOML document exactly; it is decoded
// once and then discarded in favour of the validated, immutable Config.
type deploymentFile struct {
	Role               string         `toml:"role"`
	LogLevel           string         `toml:"log_level"`
	OperationBypassBit uint8          `toml:"operation_bypass_bit"`
	NumTransitNodes    int            `toml:"num_transit_nodes"`
	SIDs               []string       `toml:"sids"`
	Keys               []string       `toml:"keys"`
	NextHops           []nexthopEntry `toml:"nexthops"`
}

// Config is the immutable, process-wide view of role, keys, SIDs, and the
// next-hop table. It is built once by Load and shared by reference with
// every worker goroutine.
type Config struct {
	Role               Role
	Bypass             BypassMode
	NumTransitNodes    int
	SIDs               [wire.NumSegments]net.IP
	Keys               [][potcrypto.KeyLen]byte
	NextHops           *nexthop.Table
	MgmtAddr           string
}

// Load reads and validates the TOML deployment file at path. cliRole, if
// non-empty, must agree with the file's role field; an empty cliRole
// lets the file's role stand. Any shape violation is a Config failure.
func Load(path, cliRole, mgmtAddr string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.Config, err)
	}

	var df deploymentFile
	if err := toml.Unmarshal(raw, &df); err != nil {
		return nil, errs.New(errs.Config, "config: malformed TOML: %v", err)
	}

	if cliRole != "" && cliRole != df.Role {
		return nil, errs.New(errs.Config, "config: --role %q does not match deployment file role %q", cliRole, df.Role)
	}
	role, err := ParseRole(df.Role)
	if err != nil {
		return nil, err
	}

	if df.OperationBypassBit > 2 {
		return nil, errs.New(errs.Config, "config: operation_bypass_bit %d out of range [0,2]", df.OperationBypassBit)
	}

	if len(df.SIDs) != wire.NumSegments {
		return nil, errs.New(errs.Config, "config: sids has %d entries, want %d", len(df.SIDs), wire.NumSegments)
	}
	// The SRH carries exactly wire.NumSegments segments: one slot per
	// transit plus the final (egress) slot. num_transit_nodes must
	// therefore match len(sids)-1, or the key-index and SID-advancement
	// formulas in the dataplane no longer agree with the wire format.
	if wantTransitNodes := len(df.SIDs) - 1; df.NumTransitNodes != wantTransitNodes {
		return nil, errs.New(errs.Config, "config: num_transit_nodes %d != len(sids)-1 = %d", df.NumTransitNodes, wantTransitNodes)
	}
	var sids [wire.NumSegments]net.IP
	for i, s := range df.SIDs {
		addr, err := netip.ParseAddr(s)
		if err != nil || !addr.Is6() {
			return nil, errs.New(errs.Config, "config: sids[%d] %q is not a valid IPv6 address", i, s)
		}
		sids[i] = net.IP(addr.AsSlice())
	}

	wantKeys := df.NumTransitNodes + 1
	if len(df.Keys) != wantKeys {
		return nil, errs.New(errs.Config, "config: keys has %d entries, want num_transit_nodes+1 = %d", len(df.Keys), wantKeys)
	}
	keys := make([][potcrypto.KeyLen]byte, len(df.Keys))
	for i, hexKey := range df.Keys {
		raw, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, errs.New(errs.Config, "config: keys[%d] is not valid hex: %v", i, err)
		}
		if len(raw) != potcrypto.KeyLen {
			return nil, errs.New(errs.Config, "config: keys[%d] decodes to %d bytes, want %d", i, len(raw), potcrypto.KeyLen)
		}
		copy(keys[i][:], raw)
	}

	if len(df.NextHops) > nexthop.MaxEntries {
		return nil, errs.New(errs.Config, "config: nexthops has %d entries, max %d", len(df.NextHops), nexthop.MaxEntries)
	}
	table := nexthop.New()
	for _, e := range df.NextHops {
		if err := table.Add(e.SID, e.MAC); err != nil {
			return nil, err
		}
	}

	return &Config{
		Role:            role,
		Bypass:          BypassMode(df.OperationBypassBit),
		NumTransitNodes: df.NumTransitNodes,
		SIDs:            sids,
		Keys:            keys,
		NextHops:        table,
		MgmtAddr:        mgmtAddr,
	}, nil
}

// Zeroise overwrites every key with zero bytes. Called once, during
// shutdown, after the forwarding loops have stopped.
func (c *Config) Zeroise() {
	for i := range c.Keys {
		for j := range c.Keys[i] {
			c.Keys[i][j] = 0
		}
	}
}
