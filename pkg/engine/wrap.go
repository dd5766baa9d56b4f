package engine

import (
	"github.com/holiman/uint256"

	"github.com/suffix-labs/relay-adapt/pkg/ledger"
)

// Wrap converts the engine's native balance into the wrapped base token.
// Guarded. amount zero wraps the entire current native balance; any other
// amount wraps exactly that much. Failures from the wrapped-asset
// collaborator propagate unmodified.
func (e *Engine) Wrap(env *ledger.CallEnv, amount *uint256.Int) error {
	if err := e.guard.Check(env.Caller); err != nil {
		return err
	}
	resolved := resolveAmount(amount, e.world.NativeBalance(e.addr))
	if resolved.IsZero() {
		return nil
	}
	return e.base.Deposit(e.addr, resolved)
}

// Unwrap converts the engine's wrapped base token balance back into native.
// Guarded. amount zero unwraps the entire current wrapped balance; an
// amount above the balance fails in the collaborator and propagates.
func (e *Engine) Unwrap(env *ledger.CallEnv, amount *uint256.Int) error {
	if err := e.guard.Check(env.Caller); err != nil {
		return err
	}
	token := e.base.Token()
	resolved := resolveAmount(amount, e.world.TokenBalance(&token, e.addr))
	if resolved.IsZero() {
		return nil
	}
	return e.base.Withdraw(e.addr, resolved)
}
