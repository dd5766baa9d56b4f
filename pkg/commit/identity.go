// Relayer identity: secp256k1 keys, addresses, and bundle attestations.
//
// Relayers are untrusted, but operators still want submissions attributable:
// tooling signs the bundle's adapt parameters with the relayer's key, and a
// receiving operator verifies the attestation before queueing the bundle.
// The engine itself never consults these signatures - binding security comes
// from the commitment, not from who signed.
//
// Key formats:
//   - Private keys: raw 32 bytes, or base58check with version byte 0x80
//   - Public keys: compressed 33-byte format
//   - Addresses: BLAKE2b-160 of the compressed public key, base58check with
//     version byte 0x52
//   - Signatures: DER-encoded ECDSA

package commit

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	blake2b "github.com/minio/blake2b-simd"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
)

// Base58check version bytes.
const (
	keyVersionByte     = 0x80
	addressVersionByte = 0x52
)

// PrivateKey wraps a secp256k1 private key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps a secp256k1 public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// GeneratePrivateKey creates a fresh random private key.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("key generation failed: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a private key from raw bytes.
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(keyBytes))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(keyBytes)}, nil
}

// ParsePrivateKey parses a base58check-encoded private key.
func ParsePrivateKey(encoded string) (*PrivateKey, error) {
	payload, err := base58CheckDecode(encoded, keyVersionByte)
	if err != nil {
		return nil, err
	}
	return PrivateKeyFromBytes(payload)
}

// Encode returns the base58check form of the private key.
func (pk *PrivateKey) Encode() string {
	return base58CheckEncode(pk.key.Serialize(), keyVersionByte)
}

// Bytes returns the raw 32-byte private key.
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// PublicKey derives the public key.
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey()}
}

// SignParams creates a DER-encoded ECDSA attestation over adapt parameters.
func (pk *PrivateKey) SignParams(params [32]byte) []byte {
	return ecdsa.Sign(pk.key, params[:]).Serialize()
}

// SerializeCompressed returns the 33-byte compressed public key.
func (pub *PublicKey) SerializeCompressed() [33]byte {
	var result [33]byte
	copy(result[:], pub.key.SerializeCompressed())
	return result
}

// ParsePublicKey parses a compressed public key.
func ParsePublicKey(pubKeyBytes []byte) (*PublicKey, error) {
	if len(pubKeyBytes) != 33 {
		return nil, fmt.Errorf("compressed public key must be 33 bytes, got %d", len(pubKeyBytes))
	}
	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return &PublicKey{key: pubKey}, nil
}

// Address derives the 20-byte relayer address: BLAKE2b-160 over the
// compressed public key.
func (pub *PublicKey) Address() adapt.Address {
	h, err := blake2b.New(&blake2b.Config{Size: adapt.AddressLength})
	if err != nil {
		panic(err)
	}
	h.Write(pub.key.SerializeCompressed())
	var a adapt.Address
	copy(a[:], h.Sum(nil))
	return a
}

// EncodeAddress returns the base58check form of the public key's address.
func (pub *PublicKey) EncodeAddress() string {
	a := pub.Address()
	return base58CheckEncode(a[:], addressVersionByte)
}

// ParseAddress decodes a base58check relayer address.
func ParseAddress(encoded string) (adapt.Address, error) {
	payload, err := base58CheckDecode(encoded, addressVersionByte)
	if err != nil {
		return adapt.Address{}, err
	}
	if len(payload) != adapt.AddressLength {
		return adapt.Address{}, fmt.Errorf("address must be %d bytes, got %d", adapt.AddressLength, len(payload))
	}
	var a adapt.Address
	copy(a[:], payload)
	return a, nil
}

// VerifyParams verifies a DER-encoded attestation over adapt parameters.
func VerifyParams(pub *PublicKey, params [32]byte, signature []byte) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(params[:], pub.key)
}

// base58CheckEncode encodes payload with a version byte and a 4-byte double
// SHA-256 checksum.
func base58CheckEncode(payload []byte, version byte) string {
	full := make([]byte, 0, len(payload)+5)
	full = append(full, version)
	full = append(full, payload...)

	hash1 := sha256.Sum256(full)
	hash2 := sha256.Sum256(hash1[:])
	full = append(full, hash2[:4]...)

	return base58.Encode(full)
}

// base58CheckDecode reverses base58CheckEncode, verifying the version byte
// and checksum.
func base58CheckDecode(encoded string, version byte) ([]byte, error) {
	decoded := base58.Decode(encoded)
	if len(decoded) < 5 {
		return nil, errors.New("invalid base58check length")
	}
	if decoded[0] != version {
		return nil, fmt.Errorf("invalid version byte: 0x%02x", decoded[0])
	}

	checksumOffset := len(decoded) - 4
	payload := decoded[:checksumOffset]

	hash1 := sha256.Sum256(payload)
	hash2 := sha256.Sum256(hash1[:])
	for i := 0; i < 4; i++ {
		if decoded[checksumOffset+i] != hash2[i] {
			return nil, errors.New("base58check checksum mismatch")
		}
	}

	return payload[1:], nil
}
