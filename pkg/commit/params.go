// Package commit implements the adapt-parameter commitment.
//
// The commitment binds a batch of shielded transactions to a specific
// ActionData payload so that no third party can detach, reorder, replay, or
// splice the follow-up calls the user authorized. It is built as a tree of
// personalized BLAKE2b-256 digests:
//
//	nullifiers_digest = BLAKE2b-256("RAdaptNullifHash", nf_0 || nf_1 || ...)
//	action_digest     = BLAKE2b-256("RAdaptActionHash", encode(actionData))
//	adapt_params      = BLAKE2b-256("RAdaptParamsHash",
//	                                nullifiers_digest || count (u64le) || action_digest)
//
// where nf_i is transaction i's FIRST nullifier in batch order, count is the
// batch length, and encode is the canonical encoding from pkg/adapt. The
// personalization is a BLAKE2b parameter, not a key: each domain gets a
// distinct hash function, so a digest from one domain can never be replayed
// in another.
//
// The function is pure and exported so wallets precompute the commitment
// before submission; the engine recomputes it over exactly what the relayer
// submitted and compares.
package commit

import (
	"encoding/binary"
	"hash"

	blake2b "github.com/minio/blake2b-simd"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
)

// Personalization strings (16 bytes each, the BLAKE2b maximum).
const (
	NullifiersPersonalization = "RAdaptNullifHash"
	ActionPersonalization     = "RAdaptActionHash"
	ParamsPersonalization     = "RAdaptParamsHash"
)

// blake2bNew256 creates a BLAKE2b-256 with the given personalization.
func blake2bNew256(personalization []byte) hash.Hash {
	h, err := blake2b.New(&blake2b.Config{
		Size:   32,
		Person: personalization,
	})
	if err != nil {
		// Only reachable with a personalization over 16 bytes, which the
		// constants above never are.
		panic(err)
	}
	return h
}

// ComputeAdaptParams computes the commitment binding a transaction batch to
// an ActionData payload.
//
// Order- and count-sensitive by construction: the nullifier digest streams
// first nullifiers in batch order, the batch length is hashed explicitly,
// and the action digest covers the canonical encoding of every ActionData
// field (nonce, requireSuccess, minGas, and each call's target, payload,
// value, position).
//
// An empty batch is legal; the commitment then covers only the count (zero)
// and the ActionData, which still lets tooling compute params for call-only
// invocations.
func ComputeAdaptParams(transactions []adapt.ShieldedTransaction, actionData *adapt.ActionData) [32]byte {
	nullifiersDigest := computeNullifiersDigest(transactions)
	actionDigest := computeActionDigest(actionData)

	h := blake2bNew256([]byte(ParamsPersonalization))
	h.Write(nullifiersDigest[:])
	binary.Write(h, binary.LittleEndian, uint64(len(transactions)))
	h.Write(actionDigest[:])

	var params [32]byte
	copy(params[:], h.Sum(nil))
	return params
}

// computeNullifiersDigest hashes each transaction's first nullifier in
// batch order. A transaction with no nullifiers is malformed and contributes
// nothing here; the hash stays total so callers can compute params over
// arbitrary input and reject the malformed transaction separately.
func computeNullifiersDigest(transactions []adapt.ShieldedTransaction) [32]byte {
	h := blake2bNew256([]byte(NullifiersPersonalization))
	for i := range transactions {
		if len(transactions[i].Nullifiers) == 0 {
			continue
		}
		nf := transactions[i].FirstNullifier()
		h.Write(nf[:])
	}
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// computeActionDigest hashes the canonical ActionData encoding.
func computeActionDigest(actionData *adapt.ActionData) [32]byte {
	h := blake2bNew256([]byte(ActionPersonalization))
	h.Write(adapt.ActionDataBytes(actionData))
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// VerifyBatchBinding reports the index of the first transaction whose bound
// adapt parameters differ from the commitment over the batch and ActionData,
// or -1 when every transaction matches. A structurally invalid transaction
// (no nullifiers) can never be correctly bound and reports its own index.
// Helper for tooling; the engine does the same check inline so it can attach
// error context.
func VerifyBatchBinding(transactions []adapt.ShieldedTransaction, actionData *adapt.ActionData) int {
	expected := ComputeAdaptParams(transactions, actionData)
	for i := range transactions {
		if transactions[i].Validate() != nil {
			return i
		}
		if transactions[i].BoundParams.AdaptParams != expected {
			return i
		}
	}
	return -1
}
