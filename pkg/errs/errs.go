// Package errs defines the drop/fatal error taxonomy shared by every
// component on (and just off) the packet hot path.
package errs

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Kind classifies why a packet was dropped, or why start-up failed.
type Kind int

const (
	// MalformedPacket means a header failed a bounds or shape check.
	MalformedPacket Kind = iota
	// UnexpectedSegment means a transit observed segments_left == 0.
	UnexpectedSegment
	// HmacMismatch means the egress PVF did not match the recomputed HMAC.
	HmacMismatch
	// NoRoute means the next-hop table has no entry for the target SID.
	NoRoute
	// Crypto means a primitive or the CSPRNG failed.
	Crypto
	// Config means a start-up time configuration error; always fatal.
	Config
)

func (k Kind) String() string {
	switch k {
	case MalformedPacket:
		return "malformed_packet"
	case UnexpectedSegment:
		return "unexpected_segment"
	case HmacMismatch:
		return "hmac_mismatch"
	case NoRoute:
		return "no_route"
	case Crypto:
		return "crypto"
	case Config:
		return "config"
	default:
		return "unknown"
	}
}

// ParseKind is String's inverse, used to reload persisted counters keyed
// by kind name.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "malformed_packet":
		return MalformedPacket, true
	case "unexpected_segment":
		return UnexpectedSegment, true
	case "hmac_mismatch":
		return HmacMismatch, true
	case "no_route":
		return NoRoute, true
	case "crypto":
		return Crypto, true
	case "config":
		return Config, true
	default:
		return 0, false
	}
}

// Level is the disposition's log level per §7 of the specification. It is
// never above DEBUG for MalformedPacket and never logged at all for a
// silent drop (EtherType/multicast checks don't even construct an Error).
func (k Kind) Level() zapcore.Level {
	switch k {
	case MalformedPacket:
		return zapcore.DebugLevel
	case UnexpectedSegment:
		return zapcore.InfoLevel
	case HmacMismatch, NoRoute:
		return zapcore.WarnLevel
	case Crypto:
		return zapcore.ErrorLevel
	case Config:
		return zapcore.FatalLevel
	default:
		return zapcore.ErrorLevel
	}
}

// Fatal reports whether this kind always aborts the process (only Config
// does; a persistent Crypto failure is escalated by the caller, not here).
func (k Kind) Fatal() bool { return k == Config }

// Error pairs a Kind with the underlying cause. All hot-path error returns
// use this type so the forwarding loop can dispatch on Kind without string
// matching.
type Error struct {
	Kind Kind
	Err  error
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// As reports whether err (or something it wraps) is an *Error, returning it.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
