package engine

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
	"github.com/suffix-labs/relay-adapt/pkg/ledger"
)

func TestSelfCallShieldThroughMulticall(t *testing.T) {
	e, w := newTestEngine(PolicyAbort, adapt.Address{})
	tok := shieldToken()
	w.MintToken(&tok, engineAddr, uint256.NewInt(100))

	payload := EncodeShieldCall(
		[]adapt.CommitmentPreimage{{NPK: [32]byte{0x0A}, Token: tok, Value: uint256.NewInt(60)}},
		[]adapt.ShieldCiphertext{[]byte("ct")})

	_, err := e.runCalls(100000, true, []adapt.Call{{To: engineAddr, Data: payload}})
	require.NoError(t, err)

	assert.Equal(t, uint64(60), w.TokenBalance(&tok, poolAddr).Uint64())
	notes := w.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, [32]byte{0x0A}, notes[0].Preimage.NPK)
}

func TestSelfCallSendThroughMulticall(t *testing.T) {
	e, w := newTestEngine(PolicyAbort, adapt.Address{})
	tok := shieldToken()
	w.MintToken(&tok, engineAddr, uint256.NewInt(100))

	payload := EncodeSendCall([]TokenTransfer{{Token: tok, To: recipient}})
	_, err := e.runCalls(100000, true, []adapt.Call{{To: engineAddr, Data: payload}})
	require.NoError(t, err)

	assert.Equal(t, uint64(100), w.TokenBalance(&tok, recipient).Uint64())
}

func TestSelfCallWrapUnwrapThroughMulticall(t *testing.T) {
	e, w := newTestEngine(PolicyAbort, adapt.Address{})
	w.MintNative(engineAddr, uint256.NewInt(80))

	base := ledger.NewWrappedBase(w, baseAddr)
	wrapped := base.Token()

	_, err := e.runCalls(100000, true, []adapt.Call{
		{To: engineAddr, Data: EncodeWrapCall(uint256.NewInt(80))},
		{To: engineAddr, Data: EncodeUnwrapCall(uint256.NewInt(30))},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(50), w.TokenBalance(&wrapped, engineAddr).Uint64())
	assert.Equal(t, uint64(30), w.NativeBalance(engineAddr).Uint64())
}

func TestSelfCallEmptyDataIsValueTransfer(t *testing.T) {
	e, w := newTestEngine(PolicyAbort, adapt.Address{})
	w.MintNative(engineAddr, uint256.NewInt(10))

	// Value sent to the engine's own address with no payload just sits in
	// its balance; nothing dispatches.
	_, err := e.runCalls(100000, true, []adapt.Call{
		{To: engineAddr, Value: uint256.NewInt(10)},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), w.NativeBalance(engineAddr).Uint64())
}

func TestSelfCallUnknownOpcode(t *testing.T) {
	e, _ := newTestEngine(PolicyAbort, adapt.Address{})

	_, err := e.handleSelfCall(selfEnv(), []byte{0x7F})
	assert.Error(t, err)
}

func TestSelfCallTruncatedPayload(t *testing.T) {
	e, _ := newTestEngine(PolicyAbort, adapt.Address{})

	payload := EncodeWrapCall(uint256.NewInt(1))
	_, err := e.handleSelfCall(selfEnv(), payload[:len(payload)-5])
	assert.Error(t, err)
}

func TestSelfCallRejectsLyingCounts(t *testing.T) {
	// Counts and lengths inside a self-call payload are untrusted bytes; a
	// claim the remaining payload cannot hold fails instead of sizing an
	// allocation.
	e, _ := newTestEngine(PolicyAbort, adapt.Address{})
	hugeCount := []byte{254, 0xFF, 0xFF, 0xFF, 0x7F} // compact-size u32

	t.Run("shield request count", func(t *testing.T) {
		_, err := e.handleSelfCall(selfEnv(), append([]byte{opShield}, hugeCount...))
		assert.Error(t, err)
	})

	t.Run("send transfer count", func(t *testing.T) {
		_, err := e.handleSelfCall(selfEnv(), append([]byte{opSend}, hugeCount...))
		assert.Error(t, err)
	})

	t.Run("ciphertext length", func(t *testing.T) {
		payload := EncodeShieldCall(
			[]adapt.CommitmentPreimage{{Token: shieldToken(), Value: uint256.NewInt(1)}},
			nil)
		// The encoded request ends with its ciphertext length (zero); claim
		// a huge one instead.
		payload = append(payload[:len(payload)-1], hugeCount...)
		_, err := e.handleSelfCall(selfEnv(), payload)
		assert.Error(t, err)
	})
}

func TestShieldCallCodecRoundTrip(t *testing.T) {
	requests := []adapt.CommitmentPreimage{
		{NPK: [32]byte{0x01}, Token: shieldToken(), Value: uint256.NewInt(7)},
		{NPK: [32]byte{0x02}, Token: adapt.TokenDescriptor{
			Kind:    adapt.TokenFungible,
			Address: adapt.HexToAddress("0x99"),
			SubID:   uint256.NewInt(3),
		}},
	}
	cts := []adapt.ShieldCiphertext{[]byte("first")}

	payload := EncodeShieldCall(requests, cts)
	require.Equal(t, opShield, payload[0])

	gotReqs, gotCTs, err := decodeShieldCall(bytes.NewReader(payload[1:]))
	require.NoError(t, err)

	require.Len(t, gotReqs, 2)
	assert.Equal(t, requests[0].NPK, gotReqs[0].NPK)
	assert.Equal(t, requests[0].Token.Key(), gotReqs[0].Token.Key())
	assert.True(t, gotReqs[0].Value.Eq(uint256.NewInt(7)))
	assert.True(t, gotReqs[1].Value.IsZero())
	assert.Equal(t, requests[1].Token.Key(), gotReqs[1].Token.Key())

	require.Len(t, gotCTs, 2)
	assert.Equal(t, adapt.ShieldCiphertext([]byte("first")), gotCTs[0])
	assert.Nil(t, gotCTs[1], "a short ciphertext list pads with empties")
}

func TestSendCallCodecRoundTrip(t *testing.T) {
	transfers := []TokenTransfer{
		{Token: shieldToken(), To: recipient, Value: uint256.NewInt(42)},
		{To: relayer}, // native sweep
	}

	payload := EncodeSendCall(transfers)
	require.Equal(t, opSend, payload[0])

	got, err := decodeSendCall(bytes.NewReader(payload[1:]))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, transfers[0].Token.Key(), got[0].Token.Key())
	assert.Equal(t, recipient, got[0].To)
	assert.True(t, got[0].Value.Eq(uint256.NewInt(42)))
	assert.True(t, got[1].Token.Address.IsZero())
	assert.True(t, got[1].Value.IsZero())
}
