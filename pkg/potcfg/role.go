package potcfg

import "github.com/srv6pot/potnode/pkg/errs"

// Role identifies which of the three PoT processing stages this node runs.
type Role int

const (
	RoleIngress Role = iota
	RoleTransit
	RoleEgress
)

func (r Role) String() string {
	switch r {
	case RoleIngress:
		return "ingress"
	case RoleTransit:
		return "transit"
	case RoleEgress:
		return "egress"
	default:
		return "unknown"
	}
}

// ParseRole maps the CLI/TOML spelling of a role to a Role value.
func ParseRole(s string) (Role, error) {
	switch s {
	case "ingress":
		return RoleIngress, nil
	case "transit":
		return RoleTransit, nil
	case "egress":
		return RoleEgress, nil
	default:
		return 0, errs.New(errs.Config, "role: unrecognised value %q", s)
	}
}

// BypassMode is operation_bypass_bit: 0 full PoT, 1 bypass all extensions,
// 2 strip-only (reserved).
type BypassMode uint8

const (
	BypassNone BypassMode = iota
	BypassAll
	BypassStripOnly
)
