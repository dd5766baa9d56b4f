package engine

import (
	"bytes"
	"fmt"
	"io"

	"github.com/holiman/uint256"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
	"github.com/suffix-labs/relay-adapt/pkg/ledger"
)

// Self-call payload codec.
//
// Multicall steps that target the engine's own address carry one of these
// opcode-framed payloads; the engine's registered handler decodes and
// dispatches to the guarded entrypoint. This is the self-reentry path the
// AccessGuard admits: the dispatcher stamps the nested call with the
// engine's address, so the guard sees self.
const (
	opShield byte = 0x01
	opSend   byte = 0x02
	opWrap   byte = 0x03
	opUnwrap byte = 0x04
)

// EncodeShieldCall builds a self-call payload for Shield. Requests and
// ciphertexts are positionally matched; a short ciphertext list pads with
// empties.
func EncodeShieldCall(requests []adapt.CommitmentPreimage, ciphertexts []adapt.ShieldCiphertext) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(opShield)
	writeCompact(buf, uint64(len(requests)))
	for i := range requests {
		req := &requests[i]
		buf.Write(req.NPK[:])
		writeToken(buf, &req.Token)
		writeWord(buf, req.PreimageValue())
		var ct adapt.ShieldCiphertext
		if i < len(ciphertexts) {
			ct = ciphertexts[i]
		}
		writeCompact(buf, uint64(len(ct)))
		buf.Write(ct)
	}
	return buf.Bytes()
}

// EncodeSendCall builds a self-call payload for Send.
func EncodeSendCall(transfers []TokenTransfer) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(opSend)
	writeCompact(buf, uint64(len(transfers)))
	for i := range transfers {
		t := &transfers[i]
		writeToken(buf, &t.Token)
		buf.Write(t.To[:])
		writeWord(buf, t.Value)
	}
	return buf.Bytes()
}

// EncodeWrapCall builds a self-call payload for Wrap.
func EncodeWrapCall(amount *uint256.Int) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(opWrap)
	writeWord(buf, amount)
	return buf.Bytes()
}

// EncodeUnwrapCall builds a self-call payload for Unwrap.
func EncodeUnwrapCall(amount *uint256.Int) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(opUnwrap)
	writeWord(buf, amount)
	return buf.Bytes()
}

// handleSelfCall is the engine's registered call handler.
func (e *Engine) handleSelfCall(env *ledger.CallEnv, data []byte) ([]byte, error) {
	if len(data) == 0 {
		// Plain value transfer to the engine; nothing to dispatch.
		return nil, nil
	}

	r := bytes.NewReader(data[1:])
	switch data[0] {
	case opShield:
		requests, ciphertexts, err := decodeShieldCall(r)
		if err != nil {
			return nil, err
		}
		return nil, e.Shield(env, requests, ciphertexts)
	case opSend:
		transfers, err := decodeSendCall(r)
		if err != nil {
			return nil, err
		}
		return nil, e.Send(env, transfers)
	case opWrap:
		amount, err := readWord(r)
		if err != nil {
			return nil, err
		}
		return nil, e.Wrap(env, amount)
	case opUnwrap:
		amount, err := readWord(r)
		if err != nil {
			return nil, err
		}
		return nil, e.Unwrap(env, amount)
	default:
		return nil, fmt.Errorf("unknown self-call opcode 0x%02x", data[0])
	}
}

func decodeShieldCall(r *bytes.Reader) ([]adapt.CommitmentPreimage, []adapt.ShieldCiphertext, error) {
	n, err := readCompact(r)
	if err != nil {
		return nil, nil, err
	}
	// NPK, token, value, ciphertext length: at least 118 bytes per request.
	// A count beyond the remaining payload is malformed; don't allocate for it.
	if n > uint64(r.Len())/118 {
		return nil, nil, fmt.Errorf("request count %d exceeds remaining %d bytes", n, r.Len())
	}
	requests := make([]adapt.CommitmentPreimage, n)
	ciphertexts := make([]adapt.ShieldCiphertext, n)
	for i := range requests {
		if _, err := io.ReadFull(r, requests[i].NPK[:]); err != nil {
			return nil, nil, err
		}
		if err := readToken(r, &requests[i].Token); err != nil {
			return nil, nil, err
		}
		if requests[i].Value, err = readWord(r); err != nil {
			return nil, nil, err
		}
		ctLen, err := readCompact(r)
		if err != nil {
			return nil, nil, err
		}
		if ctLen > uint64(r.Len()) {
			return nil, nil, fmt.Errorf("ciphertext length %d exceeds remaining %d bytes", ctLen, r.Len())
		}
		if ctLen > 0 {
			ct := make([]byte, ctLen)
			if _, err := io.ReadFull(r, ct); err != nil {
				return nil, nil, err
			}
			ciphertexts[i] = ct
		}
	}
	return requests, ciphertexts, nil
}

func decodeSendCall(r *bytes.Reader) ([]TokenTransfer, error) {
	n, err := readCompact(r)
	if err != nil {
		return nil, err
	}
	// Token, recipient, value: 105 bytes per transfer.
	if n > uint64(r.Len())/105 {
		return nil, fmt.Errorf("transfer count %d exceeds remaining %d bytes", n, r.Len())
	}
	transfers := make([]TokenTransfer, n)
	for i := range transfers {
		if err := readToken(r, &transfers[i].Token); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(r, transfers[i].To[:]); err != nil {
			return nil, err
		}
		if transfers[i].Value, err = readWord(r); err != nil {
			return nil, err
		}
	}
	return transfers, nil
}

func writeToken(buf *bytes.Buffer, t *adapt.TokenDescriptor) {
	buf.WriteByte(byte(t.Kind))
	buf.Write(t.Address[:])
	writeWord(buf, t.TokenSubID())
}

func readToken(r *bytes.Reader, t *adapt.TokenDescriptor) error {
	kind, err := r.ReadByte()
	if err != nil {
		return err
	}
	t.Kind = adapt.TokenKind(kind)
	if _, err := io.ReadFull(r, t.Address[:]); err != nil {
		return err
	}
	t.SubID, err = readWord(r)
	return err
}

func writeWord(buf *bytes.Buffer, v *uint256.Int) {
	var word [32]byte
	if v != nil {
		word = v.Bytes32()
	}
	buf.Write(word[:])
}

func readWord(r *bytes.Reader) (*uint256.Int, error) {
	var word [32]byte
	if _, err := io.ReadFull(r, word[:]); err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(word[:]), nil
}

func writeCompact(buf *bytes.Buffer, n uint64) {
	switch {
	case n < 253:
		buf.WriteByte(byte(n))
	case n <= 0xFFFF:
		buf.WriteByte(253)
		buf.Write([]byte{byte(n), byte(n >> 8)})
	default:
		buf.WriteByte(254)
		buf.Write([]byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)})
	}
}

func readCompact(r *bytes.Reader) (uint64, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch tag {
	case 253:
		b := make([]byte, 2)
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}
		return uint64(b[0]) | uint64(b[1])<<8, nil
	case 254:
		b := make([]byte, 4)
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}
		return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24, nil
	case 255:
		b := make([]byte, 8)
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}
		var n uint64
		for i := 7; i >= 0; i-- {
			n = n<<8 | uint64(b[i])
		}
		return n, nil
	default:
		return uint64(tag), nil
	}
}
