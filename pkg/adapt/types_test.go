package adapt

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToAddress(t *testing.T) {
	a := HexToAddress("0x1111")
	assert.Equal(t, "0x0000000000000000000000000000000000001111", a.Hex())

	// Bare hex and odd lengths are accepted.
	assert.Equal(t, a, HexToAddress("1111"))
	assert.Equal(t, HexToAddress("0x0abc"), HexToAddress("abc"))

	// Garbage and oversize inputs collapse to the zero address.
	assert.True(t, HexToAddress("nothex").IsZero())
	assert.True(t, HexToAddress("0x112233445566778899aabbccddeeff00112233445566").IsZero())
}

func TestActionDataNonceBound(t *testing.T) {
	ad := &ActionData{Nonce: uint256.NewInt(1)}
	assert.NoError(t, ad.Validate())

	// Exactly 248 bits is the limit.
	atLimit := new(uint256.Int).Lsh(uint256.NewInt(1), MaxNonceBits-1)
	ad.Nonce = atLimit
	require.Equal(t, MaxNonceBits, ad.Nonce.BitLen())
	assert.NoError(t, ad.Validate())

	// One bit over is rejected.
	ad.Nonce = new(uint256.Int).Lsh(uint256.NewInt(1), MaxNonceBits)
	err := ad.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "nonce", verr.Field)

	ad.Nonce = nil
	assert.Error(t, ad.Validate())
}

func TestCommitmentPreimageValueBound(t *testing.T) {
	pre := &CommitmentPreimage{Value: uint256.NewInt(100)}
	assert.NoError(t, pre.Validate())

	pre.Value = new(uint256.Int).Lsh(uint256.NewInt(1), MaxValueBits-1)
	assert.NoError(t, pre.Validate())

	pre.Value = new(uint256.Int).Lsh(uint256.NewInt(1), MaxValueBits)
	assert.Error(t, pre.Validate())

	// nil and zero values are valid at this layer; they mean "sweep".
	pre.Value = nil
	assert.NoError(t, pre.Validate())
	assert.True(t, pre.PreimageValue().IsZero())
}

func TestShieldedTransactionValidate(t *testing.T) {
	tx := &ShieldedTransaction{}
	assert.Error(t, tx.Validate(), "a transaction must carry at least one nullifier")

	tx.Nullifiers = [][32]byte{{0x01}}
	assert.NoError(t, tx.Validate())
	assert.Equal(t, tx.Nullifiers[0], tx.FirstNullifier())
}

func TestCallValueNilMeansZero(t *testing.T) {
	c := &Call{}
	assert.True(t, c.CallValue().IsZero())

	c.Value = uint256.NewInt(5)
	assert.Equal(t, uint64(5), c.CallValue().Uint64())
}

func TestTokenKey(t *testing.T) {
	a := TokenDescriptor{Kind: TokenFungible, Address: HexToAddress("0x01")}
	b := TokenDescriptor{Kind: TokenFungible, Address: HexToAddress("0x01"), SubID: uint256.NewInt(0)}
	assert.Equal(t, a.Key(), b.Key(), "nil and zero sub-ids are the same token")

	c := TokenDescriptor{Kind: TokenFungible, Address: HexToAddress("0x01"), SubID: uint256.NewInt(1)}
	assert.NotEqual(t, a.Key(), c.Key())

	d := TokenDescriptor{Kind: TokenNonFungibleSingle, Address: HexToAddress("0x01")}
	assert.NotEqual(t, a.Key(), d.Key(), "kind participates in token identity")
}

func TestTokenKindString(t *testing.T) {
	assert.Equal(t, "fungible", TokenFungible.String())
	assert.Equal(t, "nonfungible", TokenNonFungibleSingle.String())
	assert.Equal(t, "nonfungible-multi", TokenNonFungibleMulti.String())
	assert.Equal(t, "unknown(9)", TokenKind(9).String())
}
