// Package adapt serialization implements the canonical binary encoding for
// relay bundles.
//
// Two consumers depend on this encoding byte-for-byte:
//
//   - pkg/commit hashes EncodeActionData output into the adapt-parameter
//     commitment, so the encoding IS the commitment's view of the payload;
//   - relayer tooling moves bundles between wallet and relayer as files:
//     "RADP" (4 bytes) || version (u32le) || encoded bundle.
//
// Wire conventions: little-endian integers, Bitcoin-style compact-size
// prefixes for sequences and byte strings, uint256 values as 32-byte
// big-endian words.
package adapt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/holiman/uint256"
)

const (
	// MagicBytes prefixes every serialized relay bundle.
	MagicBytes = "RADP"

	// BundleVersion1 is the only bundle format version in existence.
	BundleVersion1 = uint32(1)
)

// EncodeCall writes a call's canonical form:
// to (20) || compact(len(data)) || data || value (32, big-endian).
func EncodeCall(w io.Writer, c *Call) {
	w.Write(c.To[:])
	writeCompactSize(w, uint64(len(c.Data)))
	w.Write(c.Data)
	v := c.CallValue().Bytes32()
	w.Write(v[:])
}

// EncodeActionData writes the canonical ActionData form:
// nonce (32, big-endian) || requireSuccess (1) || minGas (u64le) ||
// compact(len(calls)) || calls.
//
// Every field the commitment must be sensitive to appears here exactly once,
// in fixed order.
func EncodeActionData(w io.Writer, a *ActionData) {
	var nonce [32]byte
	if a.Nonce != nil {
		nonce = a.Nonce.Bytes32()
	}
	w.Write(nonce[:])

	if a.RequireSuccess {
		w.Write([]byte{0x01})
	} else {
		w.Write([]byte{0x00})
	}

	binary.Write(w, binary.LittleEndian, a.MinGas)

	writeCompactSize(w, uint64(len(a.Calls)))
	for i := range a.Calls {
		EncodeCall(w, &a.Calls[i])
	}
}

// ActionDataBytes returns the canonical encoding as a byte slice.
func ActionDataBytes(a *ActionData) []byte {
	buf := new(bytes.Buffer)
	EncodeActionData(buf, a)
	return buf.Bytes()
}

func encodeTransaction(w io.Writer, tx *ShieldedTransaction) {
	writeCompactSize(w, uint64(len(tx.Nullifiers)))
	for _, nf := range tx.Nullifiers {
		w.Write(nf[:])
	}
	w.Write(tx.BoundParams.AdaptParams[:])
	writeCompactSize(w, uint64(len(tx.BoundParams.Extra)))
	w.Write(tx.BoundParams.Extra)
	writeCompactSize(w, uint64(len(tx.Proof)))
	w.Write(tx.Proof)
}

// SerializeBundle encodes a bundle to the RADP file format.
func SerializeBundle(b *RelayBundle) ([]byte, error) {
	for i := range b.Transactions {
		if err := b.Transactions[i].Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	if err := b.ActionData.Validate(); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	buf.WriteString(MagicBytes)
	binary.Write(buf, binary.LittleEndian, BundleVersion1)

	writeCompactSize(buf, uint64(len(b.Transactions)))
	for i := range b.Transactions {
		encodeTransaction(buf, &b.Transactions[i])
	}
	EncodeActionData(buf, &b.ActionData)

	return buf.Bytes(), nil
}

// ParseBundle decodes a bundle from the RADP file format.
func ParseBundle(data []byte) (*RelayBundle, error) {
	if len(data) < 8 {
		return nil, &ParseError{Message: "data too short"}
	}
	if string(data[0:4]) != MagicBytes {
		return nil, &ParseError{Message: "invalid magic bytes"}
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != BundleVersion1 {
		return nil, &ParseError{Message: fmt.Sprintf("unsupported version: %d", version)}
	}

	r := bytes.NewReader(data[8:])
	b := &RelayBundle{}

	nTx, err := readCompactSize(r)
	if err != nil {
		return nil, &ParseError{Message: "transaction count", Cause: err}
	}
	// Each transaction occupies at least one byte, so a count beyond the
	// remaining input is a lie; don't size allocations by it.
	if nTx > uint64(r.Len()) {
		return nil, &ParseError{Message: fmt.Sprintf("transaction count %d exceeds remaining %d bytes", nTx, r.Len())}
	}
	b.Transactions = make([]ShieldedTransaction, 0, nTx)
	for i := uint64(0); i < nTx; i++ {
		tx, err := decodeTransaction(r)
		if err != nil {
			return nil, &ParseError{Message: fmt.Sprintf("transaction %d", i), Cause: err}
		}
		b.Transactions = append(b.Transactions, *tx)
	}

	ad, err := decodeActionData(r)
	if err != nil {
		return nil, &ParseError{Message: "action data", Cause: err}
	}
	b.ActionData = *ad

	if r.Len() != 0 {
		return nil, &ParseError{Message: fmt.Sprintf("%d trailing bytes", r.Len())}
	}
	return b, nil
}

func decodeTransaction(r *bytes.Reader) (*ShieldedTransaction, error) {
	tx := &ShieldedTransaction{}

	nNf, err := readCompactSize(r)
	if err != nil {
		return nil, err
	}
	if nNf == 0 {
		return nil, fmt.Errorf("empty nullifier list")
	}
	if nNf > uint64(r.Len())/32 {
		return nil, fmt.Errorf("nullifier count %d exceeds remaining %d bytes", nNf, r.Len())
	}
	tx.Nullifiers = make([][32]byte, nNf)
	for i := range tx.Nullifiers {
		if _, err := io.ReadFull(r, tx.Nullifiers[i][:]); err != nil {
			return nil, err
		}
	}

	if _, err := io.ReadFull(r, tx.BoundParams.AdaptParams[:]); err != nil {
		return nil, err
	}
	if tx.BoundParams.Extra, err = readBytes(r); err != nil {
		return nil, err
	}
	if tx.Proof, err = readBytes(r); err != nil {
		return nil, err
	}
	return tx, nil
}

func decodeActionData(r *bytes.Reader) (*ActionData, error) {
	a := &ActionData{}

	var nonce [32]byte
	if _, err := io.ReadFull(r, nonce[:]); err != nil {
		return nil, err
	}
	a.Nonce = new(uint256.Int).SetBytes(nonce[:])

	flag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	a.RequireSuccess = flag != 0

	if err := binary.Read(r, binary.LittleEndian, &a.MinGas); err != nil {
		return nil, err
	}

	nCalls, err := readCompactSize(r)
	if err != nil {
		return nil, err
	}
	// A call encodes to at least 53 bytes (target, empty payload, value).
	if nCalls > uint64(r.Len())/53 {
		return nil, fmt.Errorf("call count %d exceeds remaining %d bytes", nCalls, r.Len())
	}
	a.Calls = make([]Call, nCalls)
	for i := range a.Calls {
		c, err := decodeCall(r)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		a.Calls[i] = *c
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeCall(r *bytes.Reader) (*Call, error) {
	c := &Call{}
	if _, err := io.ReadFull(r, c.To[:]); err != nil {
		return nil, err
	}
	var err error
	if c.Data, err = readBytes(r); err != nil {
		return nil, err
	}
	var v [32]byte
	if _, err := io.ReadFull(r, v[:]); err != nil {
		return nil, err
	}
	c.Value = new(uint256.Int).SetBytes(v[:])
	return c, nil
}

// writeCompactSize writes a Bitcoin-style varint.
func writeCompactSize(w io.Writer, n uint64) {
	switch {
	case n < 253:
		w.Write([]byte{byte(n)})
	case n <= 0xFFFF:
		w.Write([]byte{253})
		binary.Write(w, binary.LittleEndian, uint16(n))
	case n <= 0xFFFFFFFF:
		w.Write([]byte{254})
		binary.Write(w, binary.LittleEndian, uint32(n))
	default:
		w.Write([]byte{255})
		binary.Write(w, binary.LittleEndian, n)
	}
}

func readCompactSize(r *bytes.Reader) (uint64, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch tag {
	case 253:
		var n uint16
		err = binary.Read(r, binary.LittleEndian, &n)
		return uint64(n), err
	case 254:
		var n uint32
		err = binary.Read(r, binary.LittleEndian, &n)
		return uint64(n), err
	case 255:
		var n uint64
		err = binary.Read(r, binary.LittleEndian, &n)
		return n, err
	default:
		return uint64(tag), nil
	}
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readCompactSize(r)
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Len()) {
		return nil, fmt.Errorf("length %d exceeds remaining %d bytes", n, r.Len())
	}
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
