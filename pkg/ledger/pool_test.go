package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
)

var poolAddr = adapt.HexToAddress("0x900001")

func TestPoolTransactMarksAllNullifiers(t *testing.T) {
	w := NewWorld(nil)
	p := NewPool(w, poolAddr, nil)

	txs := []adapt.ShieldedTransaction{
		{Nullifiers: [][32]byte{{0x01}, {0x02}}},
		{Nullifiers: [][32]byte{{0x03}}},
	}
	require.NoError(t, p.Transact(alice, txs))

	assert.True(t, w.NullifierSpent([32]byte{0x01}))
	assert.True(t, w.NullifierSpent([32]byte{0x02}))
	assert.True(t, w.NullifierSpent([32]byte{0x03}))
}

func TestPoolTransactRejectsDoubleSpend(t *testing.T) {
	w := NewWorld(nil)
	p := NewPool(w, poolAddr, nil)

	require.NoError(t, p.Transact(alice, []adapt.ShieldedTransaction{
		{Nullifiers: [][32]byte{{0x01}}},
	}))
	err := p.Transact(alice, []adapt.ShieldedTransaction{
		{Nullifiers: [][32]byte{{0x01}}},
	})
	assert.Error(t, err)

	// Reuse within a single batch fails too.
	err = p.Transact(alice, []adapt.ShieldedTransaction{
		{Nullifiers: [][32]byte{{0x05}}},
		{Nullifiers: [][32]byte{{0x05}}},
	})
	assert.Error(t, err)
}

func TestPoolTransactRejectsMalformedTransaction(t *testing.T) {
	w := NewWorld(nil)
	p := NewPool(w, poolAddr, nil)

	err := p.Transact(alice, []adapt.ShieldedTransaction{{}})
	assert.Error(t, err, "a transaction without nullifiers is malformed")
}

func TestPoolShield(t *testing.T) {
	w := NewWorld(nil)
	p := NewPool(w, poolAddr, nil)
	tok := testToken()

	w.MintToken(tok, alice, uint256.NewInt(100))
	w.Approve(tok, alice, poolAddr, uint256.NewInt(100))

	pre := []adapt.CommitmentPreimage{
		{NPK: [32]byte{0xAA}, Token: *tok, Value: uint256.NewInt(60)},
		{NPK: [32]byte{0xBB}, Token: *tok, Value: uint256.NewInt(40)},
	}
	cts := []adapt.ShieldCiphertext{[]byte("ct0"), []byte("ct1")}
	require.NoError(t, p.Shield(alice, pre, cts))

	assert.Equal(t, uint64(100), w.TokenBalance(tok, poolAddr).Uint64())
	assert.True(t, w.TokenBalance(tok, alice).IsZero())

	notes := w.Notes()
	require.Len(t, notes, 2)
	assert.Equal(t, [32]byte{0xAA}, notes[0].Preimage.NPK)
	assert.Equal(t, adapt.ShieldCiphertext([]byte("ct1")), notes[1].Ciphertext)
}

func TestPoolShieldRejections(t *testing.T) {
	w := NewWorld(nil)
	p := NewPool(w, poolAddr, nil)
	tok := testToken()
	w.MintToken(tok, alice, uint256.NewInt(100))

	t.Run("count mismatch", func(t *testing.T) {
		err := p.Shield(alice,
			[]adapt.CommitmentPreimage{{Token: *tok, Value: uint256.NewInt(1)}},
			nil)
		assert.Error(t, err)
	})

	t.Run("zero value note", func(t *testing.T) {
		err := p.Shield(alice,
			[]adapt.CommitmentPreimage{{Token: *tok}},
			[]adapt.ShieldCiphertext{nil})
		assert.Error(t, err)
	})

	t.Run("non-fungible", func(t *testing.T) {
		nft := adapt.TokenDescriptor{Kind: adapt.TokenNonFungibleSingle, Address: tok.Address}
		err := p.Shield(alice,
			[]adapt.CommitmentPreimage{{Token: nft, Value: uint256.NewInt(1)}},
			[]adapt.ShieldCiphertext{nil})
		assert.Error(t, err)
	})

	t.Run("no allowance", func(t *testing.T) {
		err := p.Shield(alice,
			[]adapt.CommitmentPreimage{{Token: *tok, Value: uint256.NewInt(10)}},
			[]adapt.ShieldCiphertext{nil})
		assert.Error(t, err)
	})
}

func TestWrappedBaseDepositWithdraw(t *testing.T) {
	w := NewWorld(nil)
	base := NewWrappedBase(w, adapt.HexToAddress("0xbeef"))
	w.MintNative(alice, uint256.NewInt(100))

	require.NoError(t, base.Deposit(alice, uint256.NewInt(60)))
	tok := base.Token()
	assert.Equal(t, uint64(60), w.TokenBalance(&tok, alice).Uint64())
	assert.Equal(t, uint64(40), w.NativeBalance(alice).Uint64())

	require.NoError(t, base.Withdraw(alice, uint256.NewInt(25)))
	assert.Equal(t, uint64(35), w.TokenBalance(&tok, alice).Uint64())
	assert.Equal(t, uint64(65), w.NativeBalance(alice).Uint64())

	// Withdrawing more than was wrapped fails.
	assert.Error(t, base.Withdraw(alice, uint256.NewInt(36)))
	// Depositing more native than held fails.
	assert.Error(t, base.Deposit(alice, uint256.NewInt(66)))
}
