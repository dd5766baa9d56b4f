package engine

import "github.com/suffix-labs/relay-adapt/pkg/adapt"

// AccessGuard gates the sensitive entrypoints. A caller is allowed iff it is
// the engine itself re-entering as a step of its own multicall, or the
// configured verification-bypass identity.
//
// The caller is the explicit identity stamped into the call environment by
// whoever dispatched the call - never an ambient "origin" inferred from the
// execution context. That keeps the predicate pure and testable.
//
// The bypass identity exists for tooling that computes or validates
// commitments without moving real funds. A zero bypass address disables it;
// production configurations leave it zero.
type AccessGuard struct {
	self   adapt.Address
	bypass adapt.Address
}

// NewAccessGuard builds a guard for the given engine address and bypass
// identity (zero = bypass disabled).
func NewAccessGuard(self, bypass adapt.Address) *AccessGuard {
	return &AccessGuard{self: self, bypass: bypass}
}

// Allowed reports whether caller may enter a guarded entrypoint.
func (g *AccessGuard) Allowed(caller adapt.Address) bool {
	if caller == g.self {
		return true
	}
	return !g.bypass.IsZero() && caller == g.bypass
}

// IsBypass reports whether caller is the enabled bypass identity.
func (g *AccessGuard) IsBypass(caller adapt.Address) bool {
	return !g.bypass.IsZero() && caller == g.bypass
}

// Check returns AccessDenied for disallowed callers.
func (g *AccessGuard) Check(caller adapt.Address) error {
	if !g.Allowed(caller) {
		return &adapt.AccessDeniedError{Caller: caller}
	}
	return nil
}
