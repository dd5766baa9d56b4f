package engine

import (
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
	"github.com/suffix-labs/relay-adapt/pkg/ledger"
)

// Shield resolves a batch of shield requests against the engine's current
// holdings and forwards the nonzero ones to the pool. Guarded: reachable as
// a multicall step or by the bypass identity only.
//
// Resolution per fungible request: an explicit nonzero value is used as-is;
// zero means "this engine's entire current holding of the token" - the
// sweep case, where earlier multicall steps landed an unknown amount here.
// Non-fungible requests are rejected outright with UnsupportedTokenKind.
//
// Requests that resolve to zero are dropped rather than forwarded (the pool
// rejects zero-value notes, and sweep semantics want dust silently skipped,
// not the batch failed). The forwarded sequence is re-indexed: only nonzero
// entries, value fields overwritten with resolved amounts, ciphertexts
// filtered to match positionally. If nothing resolves nonzero the whole
// operation is a deliberate no-op.
func (e *Engine) Shield(env *ledger.CallEnv, requests []adapt.CommitmentPreimage, ciphertexts []adapt.ShieldCiphertext) error {
	if err := e.guard.Check(env.Caller); err != nil {
		return err
	}

	forwarded := make([]adapt.CommitmentPreimage, 0, len(requests))
	forwardedCTs := make([]adapt.ShieldCiphertext, 0, len(requests))

	for i := range requests {
		req := &requests[i]
		if req.Token.Kind != adapt.TokenFungible {
			return &adapt.UnsupportedTokenKindError{Index: i, Kind: req.Token.Kind}
		}
		if err := req.Validate(); err != nil {
			return err
		}

		resolved := req.PreimageValue()
		if resolved.IsZero() {
			resolved = e.world.TokenBalance(&req.Token, e.addr)
		}
		if resolved.IsZero() {
			continue
		}

		out := *req
		out.Value = resolved
		forwarded = append(forwarded, out)
		var ct adapt.ShieldCiphertext
		if i < len(ciphertexts) {
			ct = ciphertexts[i]
		}
		forwardedCTs = append(forwardedCTs, ct)

		// Spending authority for exactly the resolved amount.
		e.world.Approve(&out.Token, e.addr, e.pool.Address(), resolved)
	}

	if len(forwarded) == 0 {
		e.log.Debug("shield no-op", zap.Int("requests", len(requests)))
		return nil
	}
	return e.pool.Shield(e.addr, forwarded, forwardedCTs)
}

// resolveAmount implements the shared "zero means everything currently held"
// rule for send/wrap/unwrap amounts.
func resolveAmount(requested, balance *uint256.Int) *uint256.Int {
	if requested == nil || requested.IsZero() {
		return balance
	}
	return requested
}
