package engine

import (
	"github.com/holiman/uint256"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
	"github.com/suffix-labs/relay-adapt/pkg/ledger"
)

// TokenTransfer is one send instruction: token, recipient, amount. A zero
// token address with fungible kind means the native asset. A zero value
// sweeps the engine's entire current holding.
type TokenTransfer struct {
	Token adapt.TokenDescriptor
	To    adapt.Address
	Value *uint256.Int
}

// Send transfers engine holdings out to recipients. Guarded: reachable as a
// multicall step or by the bypass identity only. The usual closing step of
// an unshield-and-forward invocation, with zero-value sweep semantics so
// "send whatever landed here" needs no amount prediction.
//
// Only fungible (and native) transfers are supported; non-fungible kinds
// are rejected the same way the shield path rejects them.
func (e *Engine) Send(env *ledger.CallEnv, transfers []TokenTransfer) error {
	if err := e.guard.Check(env.Caller); err != nil {
		return err
	}

	for i := range transfers {
		t := &transfers[i]
		if t.Token.Kind != adapt.TokenFungible {
			return &adapt.UnsupportedTokenKindError{Index: i, Kind: t.Token.Kind}
		}

		if t.Token.Address.IsZero() {
			amount := resolveAmount(t.Value, e.world.NativeBalance(e.addr))
			if amount.IsZero() {
				continue
			}
			if err := e.world.TransferNative(e.addr, t.To, amount); err != nil {
				return err
			}
			continue
		}

		amount := resolveAmount(t.Value, e.world.TokenBalance(&t.Token, e.addr))
		if amount.IsZero() {
			continue
		}
		if err := e.world.TransferToken(&t.Token, e.addr, t.To, amount); err != nil {
			return err
		}
	}
	return nil
}
