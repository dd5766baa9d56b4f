package engine

import (
	"github.com/suffix-labs/relay-adapt/pkg/adapt"
	"github.com/suffix-labs/relay-adapt/pkg/commit"
)

// executeBatch enforces the commitment binding and forwards the batch to the
// pool. Every transaction must carry adapt parameters equal to the
// commitment over exactly this batch and ActionData; a single mismatch
// rejects the whole submission. The bypass identity skips the check - it
// exists for tooling that validates commitments without moving funds, and a
// zero-configured bypass never matches.
//
// The batch itself is forwarded untouched; proof verification and
// nullifier/commitment-tree updates are the pool's business.
func (e *Engine) executeBatch(caller adapt.Address, transactions []adapt.ShieldedTransaction, actionData *adapt.ActionData) error {
	// Structural validation first: the commitment reads each transaction's
	// first nullifier, so nothing gets hashed until every transaction has one.
	for i := range transactions {
		if err := transactions[i].Validate(); err != nil {
			return err
		}
	}

	if !e.guard.IsBypass(caller) {
		expected := commit.ComputeAdaptParams(transactions, actionData)
		for i := range transactions {
			got := transactions[i].BoundParams.AdaptParams
			if got != expected {
				return &adapt.ParameterMismatchError{Index: i, Expected: expected, Got: got}
			}
		}
	}
	return e.pool.Transact(e.addr, transactions)
}
