// Package ledger models the external collaborators the adapt engine composes
// with, plus an in-memory reference world that makes the engine executable
// and testable end to end.
//
// The engine treats both collaborators as opaque success/fail operations:
//
//   - Ledger: the shielded pool. Transact verifies proofs and mutates the
//     nullifier set and commitment tree; Shield mints new private notes.
//     The reference implementation (Pool) does the nullifier bookkeeping but
//     no proof verification - proof soundness is out of scope for this layer.
//   - WrappedAsset: the tokenized form of the chain's native asset, with
//     deposit/withdraw semantics.
//
// All durable state (balances, allowances, nullifiers, notes) lives in the
// World account object. Nothing in pkg/engine holds state of its own; the
// engine mutates the world only through these abstractions, and the world's
// snapshot/revert gives the all-or-nothing invocation boundary.
package ledger

import (
	"github.com/holiman/uint256"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
)

// Ledger is the shielded pool entrypoint surface the engine forwards to.
type Ledger interface {
	// Address is the pool's account address; shields pull approved tokens
	// into it.
	Address() adapt.Address

	// Transact submits a batch of shielded transfers. The pool verifies
	// them and updates its nullifier and commitment state; any failure
	// fails the whole batch.
	Transact(caller adapt.Address, transactions []adapt.ShieldedTransaction) error

	// Shield mints private notes from public token balances. Preimages and
	// ciphertexts are positionally matched; every preimage must carry a
	// nonzero resolved value.
	Shield(caller adapt.Address, preimages []adapt.CommitmentPreimage, ciphertexts []adapt.ShieldCiphertext) error
}

// WrappedAsset is the tokenized native asset collaborator.
type WrappedAsset interface {
	// Token describes the wrapped token this collaborator manages.
	Token() adapt.TokenDescriptor

	// Deposit converts amount of the caller's native balance into wrapped
	// token balance.
	Deposit(caller adapt.Address, amount *uint256.Int) error

	// Withdraw converts amount of the caller's wrapped balance back into
	// native balance. Fails if the caller's wrapped balance is short.
	Withdraw(caller adapt.Address, amount *uint256.Int) error
}

// CallEnv carries the explicit identity and resource context of one call.
// The caller field is how access control works throughout this module:
// nothing ever inspects an ambient execution context, the dispatcher stamps
// nested calls with the engine's own address and everything downstream
// checks the stamp.
type CallEnv struct {
	Caller adapt.Address // identity the call executes as
	Value  *uint256.Int  // native value forwarded with the call (nil = 0)
	Gas    uint64        // remaining resource budget
}

// CallValue returns the environment's value, treating nil as zero.
func (e *CallEnv) CallValue() *uint256.Int {
	if e.Value == nil {
		return uint256.NewInt(0)
	}
	return e.Value
}

// CallHandler executes a call payload against a registered target.
type CallHandler func(env *CallEnv, data []byte) ([]byte, error)
