package adapt

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBundle() *RelayBundle {
	return &RelayBundle{
		Transactions: []ShieldedTransaction{
			{
				Nullifiers:  [][32]byte{{0x01}, {0x02}},
				BoundParams: BoundParams{AdaptParams: [32]byte{0xAA}, Extra: []byte{0xDE, 0xAD}},
				Proof:       []byte{0xBE, 0xEF},
			},
			{
				Nullifiers: [][32]byte{{0x03}},
			},
		},
		ActionData: ActionData{
			Nonce:          uint256.NewInt(42),
			RequireSuccess: true,
			MinGas:         21000,
			Calls: []Call{
				{To: HexToAddress("0x1111"), Data: []byte{0x01}, Value: uint256.NewInt(7)},
				{To: HexToAddress("0x2222")},
			},
		},
	}
}

func TestBundleRoundTrip(t *testing.T) {
	original := sampleBundle()

	data, err := SerializeBundle(original)
	require.NoError(t, err)
	assert.Equal(t, []byte(MagicBytes), data[:4])

	parsed, err := ParseBundle(data)
	require.NoError(t, err)

	require.Len(t, parsed.Transactions, 2)
	assert.Equal(t, original.Transactions[0].Nullifiers, parsed.Transactions[0].Nullifiers)
	assert.Equal(t, original.Transactions[0].BoundParams.AdaptParams, parsed.Transactions[0].BoundParams.AdaptParams)
	assert.Equal(t, original.Transactions[0].BoundParams.Extra, parsed.Transactions[0].BoundParams.Extra)
	assert.Equal(t, original.Transactions[0].Proof, parsed.Transactions[0].Proof)

	assert.True(t, original.ActionData.Nonce.Eq(parsed.ActionData.Nonce))
	assert.Equal(t, original.ActionData.RequireSuccess, parsed.ActionData.RequireSuccess)
	assert.Equal(t, original.ActionData.MinGas, parsed.ActionData.MinGas)
	require.Len(t, parsed.ActionData.Calls, 2)
	assert.Equal(t, original.ActionData.Calls[0].To, parsed.ActionData.Calls[0].To)
	assert.Equal(t, original.ActionData.Calls[0].Data, parsed.ActionData.Calls[0].Data)
	assert.True(t, parsed.ActionData.Calls[0].Value.Eq(uint256.NewInt(7)))
	assert.True(t, parsed.ActionData.Calls[1].CallValue().IsZero())

	// Canonical encoding: re-serializing the parse gives the same bytes.
	again, err := SerializeBundle(parsed)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestBundleRoundTripCallsOnly(t *testing.T) {
	b := &RelayBundle{
		ActionData: ActionData{
			Nonce: uint256.NewInt(1),
			Calls: []Call{{To: HexToAddress("0x1234")}},
		},
	}
	data, err := SerializeBundle(b)
	require.NoError(t, err)

	parsed, err := ParseBundle(data)
	require.NoError(t, err)
	assert.Empty(t, parsed.Transactions)
	assert.Len(t, parsed.ActionData.Calls, 1)
}

func TestParseBundleRejectsCorruptFraming(t *testing.T) {
	data, err := SerializeBundle(sampleBundle())
	require.NoError(t, err)

	t.Run("short", func(t *testing.T) {
		_, err := ParseBundle(data[:5])
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
	})

	t.Run("bad magic", func(t *testing.T) {
		corrupt := bytes.Clone(data)
		corrupt[0] = 'X'
		_, err := ParseBundle(corrupt)
		assert.Error(t, err)
	})

	t.Run("unknown version", func(t *testing.T) {
		corrupt := bytes.Clone(data)
		corrupt[4] = 99
		_, err := ParseBundle(corrupt)
		assert.Error(t, err)
	})

	t.Run("truncated body", func(t *testing.T) {
		_, err := ParseBundle(data[:len(data)-10])
		assert.Error(t, err)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := ParseBundle(append(bytes.Clone(data), 0x00))
		assert.Error(t, err)
	})
}

func TestParseBundleRejectsLyingCounts(t *testing.T) {
	// Count fields come from untrusted bytes; a count the remaining input
	// cannot possibly hold must fail cleanly, never size an allocation.
	header := func() *bytes.Buffer {
		buf := new(bytes.Buffer)
		buf.WriteString(MagicBytes)
		buf.Write([]byte{1, 0, 0, 0})
		return buf
	}

	t.Run("transaction count", func(t *testing.T) {
		buf := header()
		buf.WriteByte(255) // compact-size u64 tag
		buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0x40})
		_, err := ParseBundle(buf.Bytes())
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
	})

	t.Run("nullifier count", func(t *testing.T) {
		buf := header()
		buf.WriteByte(1)   // one transaction
		buf.WriteByte(255) // compact-size u64 tag
		buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0x40})
		_, err := ParseBundle(buf.Bytes())
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
	})

	t.Run("call count", func(t *testing.T) {
		buf := header()
		buf.WriteByte(0)                  // no transactions
		buf.Write(make([]byte, 32+1+8))   // nonce, flag, minGas
		buf.WriteByte(255)                // compact-size u64 tag
		buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0x40})
		_, err := ParseBundle(buf.Bytes())
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
	})
}

func TestParseBundleRejectsEmptyNullifierList(t *testing.T) {
	// Hand-build a bundle whose transaction claims zero nullifiers; the
	// serializer refuses to produce this, so the parser must refuse to
	// accept it.
	buf := new(bytes.Buffer)
	buf.WriteString(MagicBytes)
	buf.Write([]byte{1, 0, 0, 0}) // version 1
	buf.WriteByte(1)              // one transaction
	buf.WriteByte(0)              // zero nullifiers

	_, err := ParseBundle(buf.Bytes())
	assert.Error(t, err)
}

func TestSerializeBundleValidates(t *testing.T) {
	b := sampleBundle()
	b.Transactions[0].Nullifiers = nil
	_, err := SerializeBundle(b)
	assert.Error(t, err)

	b = sampleBundle()
	b.ActionData.Nonce = new(uint256.Int).Lsh(uint256.NewInt(1), MaxNonceBits)
	_, err = SerializeBundle(b)
	assert.Error(t, err)
}

func TestActionDataBytesFieldOrder(t *testing.T) {
	ad := &ActionData{
		Nonce:          uint256.NewInt(0x0102),
		RequireSuccess: true,
		MinGas:         3,
	}
	enc := ActionDataBytes(ad)

	// nonce (32 BE) || flag (1) || minGas (8 LE) || call count
	require.Len(t, enc, 32+1+8+1)
	assert.Equal(t, byte(0x01), enc[30])
	assert.Equal(t, byte(0x02), enc[31])
	assert.Equal(t, byte(0x01), enc[32], "requireSuccess flag")
	assert.Equal(t, byte(0x03), enc[33], "minGas low byte, little-endian")
	assert.Equal(t, byte(0x00), enc[41], "empty call list")
}

func TestCompactSizeBoundaries(t *testing.T) {
	for _, n := range []uint64{0, 1, 252, 253, 0xFFFF, 0x10000, 0xFFFFFFFF, 0x100000000} {
		buf := new(bytes.Buffer)
		writeCompactSize(buf, n)
		got, err := readCompactSize(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, n, got, "compact size %d", n)
	}
}
