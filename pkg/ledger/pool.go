package ledger

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
)

// Pool is the reference shielded pool: it implements the Ledger surface
// against a World.
//
// Transact does the nullifier/commitment bookkeeping the engine depends on
// (double-spend rejection, batch atomicity) and nothing more; the
// zero-knowledge proof itself is accepted as given. Shield pulls approved
// tokens from the caller into the pool account and records one note per
// preimage.
type Pool struct {
	world *World
	addr  adapt.Address
	log   *zap.Logger
}

// NewPool creates a pool bound to a world at the given address.
func NewPool(world *World, addr adapt.Address, log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{world: world, addr: addr, log: log}
}

// Address implements Ledger.
func (p *Pool) Address() adapt.Address { return p.addr }

// Transact implements Ledger. Every transaction's nullifiers are marked
// spent; any reuse fails the whole batch before any marking is visible to
// the caller (the engine wraps the invocation in a snapshot).
func (p *Pool) Transact(caller adapt.Address, transactions []adapt.ShieldedTransaction) error {
	for i := range transactions {
		tx := &transactions[i]
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		for _, nf := range tx.Nullifiers {
			if err := p.world.MarkNullifier(nf); err != nil {
				return fmt.Errorf("transaction %d: %w", i, err)
			}
		}
	}
	p.log.Debug("transact",
		zap.String("caller", caller.Hex()),
		zap.Int("transactions", len(transactions)))
	return nil
}

// Shield implements Ledger. The caller must have approved the pool for each
// preimage's value beforehand; zero-value notes are rejected, which is why
// the engine's sweep path filters them out instead of forwarding them.
func (p *Pool) Shield(caller adapt.Address, preimages []adapt.CommitmentPreimage, ciphertexts []adapt.ShieldCiphertext) error {
	if len(preimages) != len(ciphertexts) {
		return fmt.Errorf("shield: %d preimages but %d ciphertexts", len(preimages), len(ciphertexts))
	}
	for i := range preimages {
		pre := &preimages[i]
		if err := pre.Validate(); err != nil {
			return fmt.Errorf("preimage %d: %w", i, err)
		}
		value := pre.PreimageValue()
		if value.IsZero() {
			return fmt.Errorf("preimage %d: zero-value note", i)
		}
		if pre.Token.Kind != adapt.TokenFungible {
			return fmt.Errorf("preimage %d: pool shields fungible tokens only", i)
		}
		if err := p.world.TransferFromToken(&pre.Token, p.addr, caller, p.addr, value); err != nil {
			return fmt.Errorf("preimage %d: %w", i, err)
		}
		p.world.AppendNote(Note{Preimage: *pre, Ciphertext: ciphertexts[i]})
	}
	p.log.Debug("shield",
		zap.String("caller", caller.Hex()),
		zap.Int("notes", len(preimages)))
	return nil
}
