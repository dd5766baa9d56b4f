// Package adapt defines the data model for relay-adapt bundles.
//
// A relay bundle is the unit an untrusted relayer submits on behalf of a
// user: a batch of shielded transactions (validated by the external ledger)
// plus an ActionData payload describing follow-up calls. The binding between
// the two is the adapt-parameter commitment computed in pkg/commit; the types
// here are the exact inputs to that commitment and are immutable once a
// commitment has been taken over them.
//
// Value bounds follow the ledger's note format: commitment values must fit
// in 120 bits, and ActionData nonces must fit in 248 bits so they compose
// with the commitment hash without truncation.
package adapt

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// AddressLength is the length of an engine/token/call-target address.
const AddressLength = 20

// Address identifies a call target, token contract, or engine instance.
type Address [AddressLength]byte

// HexToAddress parses a 0x-prefixed (or bare) hex string into an Address.
// Shorter inputs are left-padded with zeros, matching the usual fixed-width
// address convention.
func HexToAddress(s string) Address {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) > AddressLength {
		return Address{}
	}
	var a Address
	copy(a[AddressLength-len(b):], b)
	return a
}

// Hex returns the 0x-prefixed hex form of the address.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string { return a.Hex() }

// IsZero reports whether the address is the all-zero value.
func (a Address) IsZero() bool { return a == Address{} }

// Call is a single follow-up call: target, opaque payload, and native value
// to forward. Calls are immutable once included in a commitment; reordering
// or editing any field invalidates the adapt parameters.
type Call struct {
	To    Address      // call target
	Data  []byte       // opaque payload handed to the target
	Value *uint256.Int // native value forwarded with the call (nil = 0)
}

// CallValue returns the call's value, treating nil as zero.
func (c *Call) CallValue() *uint256.Int {
	if c.Value == nil {
		return uint256.NewInt(0)
	}
	return c.Value
}

// MaxNonceBits bounds ActionData nonces. Nonces are random values chosen by
// the submitting wallet; the 248-bit bound keeps them one byte short of the
// 256-bit commitment words they are hashed into.
const MaxNonceBits = 248

// ActionData is the committed follow-up payload: a random nonce, the failure
// policy flag, the minimum resource floor, and the ordered call sequence.
//
// This is the unit the adapt-parameter commitment binds to a transaction
// batch. A failed invocation cannot be retried with the same nonce: the
// commitment would collide with the failed attempt.
type ActionData struct {
	Nonce          *uint256.Int // random, at most 248 bits
	RequireSuccess bool         // true: abort the invocation on any call failure
	MinGas         uint64       // minimum resource budget required at entry
	Calls          []Call       // executed strictly in order
}

// Validate checks the nonce bound and per-call well-formedness.
func (a *ActionData) Validate() error {
	if a.Nonce == nil {
		return &ValidationError{Field: "nonce", Message: "missing"}
	}
	if a.Nonce.BitLen() > MaxNonceBits {
		return &ValidationError{
			Field:   "nonce",
			Message: fmt.Sprintf("exceeds %d bits", MaxNonceBits),
		}
	}
	return nil
}

// BoundParams is the slice of a shielded transaction's bound parameters that
// the adapt layer reads. AdaptParams must equal the commitment over the full
// batch and ActionData for the relay to proceed.
type BoundParams struct {
	AdaptParams [32]byte // commitment binding the batch to its ActionData
	Extra       []byte   // remaining bound parameters, opaque to this layer
}

// ShieldedTransaction is a privacy-preserving transfer as seen by the adapt
// layer. Only Nullifiers[0] and BoundParams.AdaptParams are read here; the
// proof and everything else is verified by the external ledger.
type ShieldedTransaction struct {
	Nullifiers  [][32]byte  // at least one; [0] feeds the commitment
	BoundParams BoundParams
	Proof       []byte // opaque zero-knowledge proof, forwarded untouched
}

// Validate checks the structural invariant the adapt layer depends on.
func (tx *ShieldedTransaction) Validate() error {
	if len(tx.Nullifiers) == 0 {
		return &ValidationError{Field: "nullifiers", Message: "empty"}
	}
	return nil
}

// FirstNullifier returns the nullifier the commitment is built from.
func (tx *ShieldedTransaction) FirstNullifier() [32]byte {
	return tx.Nullifiers[0]
}

// TokenKind discriminates the token standards a descriptor can name.
type TokenKind uint8

const (
	TokenFungible         TokenKind = iota // ERC20-style fungible balance
	TokenNonFungibleSingle                 // single non-fungible item
	TokenNonFungibleMulti                  // multi-token (id + amount) standard
)

func (k TokenKind) String() string {
	switch k {
	case TokenFungible:
		return "fungible"
	case TokenNonFungibleSingle:
		return "nonfungible"
	case TokenNonFungibleMulti:
		return "nonfungible-multi"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// TokenDescriptor identifies a token: its kind, contract address, and sub-id
// (zero for fungibles).
type TokenDescriptor struct {
	Kind    TokenKind
	Address Address
	SubID   *uint256.Int // nil = 0
}

// TokenSubID returns the descriptor's sub-id, treating nil as zero.
func (t *TokenDescriptor) TokenSubID() *uint256.Int {
	if t.SubID == nil {
		return uint256.NewInt(0)
	}
	return t.SubID
}

// TokenKey is a canonical comparable form of a TokenDescriptor, usable as a
// map key in balance and allowance tables.
type TokenKey struct {
	Kind    TokenKind
	Address Address
	SubID   [32]byte
}

// Key returns the descriptor's canonical map key.
func (t *TokenDescriptor) Key() TokenKey {
	return TokenKey{Kind: t.Kind, Address: t.Address, SubID: t.TokenSubID().Bytes32()}
}

// MaxValueBits bounds commitment values: the ledger's note format stores
// values in 120 bits.
const MaxValueBits = 120

// CommitmentPreimage describes a private note to be minted by a shield:
// recipient note public key, token, and value. A zero value means "resolve
// to this engine's entire current holding of the token" at shield time; the
// resolved batch forwarded to the ledger never contains zero values.
type CommitmentPreimage struct {
	NPK   [32]byte        // recipient note public key
	Token TokenDescriptor
	Value *uint256.Int // nil or 0 = sweep entire balance; must fit 120 bits
}

// PreimageValue returns the requested value, treating nil as zero.
func (p *CommitmentPreimage) PreimageValue() *uint256.Int {
	if p.Value == nil {
		return uint256.NewInt(0)
	}
	return p.Value
}

// Validate checks the 120-bit value bound.
func (p *CommitmentPreimage) Validate() error {
	if p.PreimageValue().BitLen() > MaxValueBits {
		return &ValidationError{
			Field:   "value",
			Message: fmt.Sprintf("exceeds %d bits", MaxValueBits),
		}
	}
	return nil
}

// ShieldCiphertext is the encrypted note metadata accompanying a preimage.
// Opaque here; the ledger stores it alongside the minted commitment.
type ShieldCiphertext []byte

// CallResult records one call's outcome under the collect policy.
type CallResult struct {
	Success  bool   // false if the call reverted
	Returned []byte // raw return or failure payload
}

// RelayBundle is what a relayer submits: the transaction batch plus the
// ActionData the batch is committed to. Bundles serialize to the RADP file
// format (see serialization.go) for transport between wallet and relayer.
type RelayBundle struct {
	Transactions []ShieldedTransaction
	ActionData   ActionData
}
