// Package api provides the high-level public API for relay-adapt
// operations.
//
// This is the main entry point for applications using the relay-adapt
// library:
//
//  1. ComputeParams - commitment over a serialized bundle (precomputation)
//  2. BindBundle - stamp a bundle's transactions with their commitment
//  3. VerifyBundle - check a bundle's binding without executing anything
//  4. AttestBundle / VerifyAttestation - relayer signatures over a bundle
//  5. Simulator - an engine wired to the in-memory reference world, used by
//     tooling and tests to execute bundles end to end
package api

import (
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
	"github.com/suffix-labs/relay-adapt/pkg/commit"
	"github.com/suffix-labs/relay-adapt/pkg/engine"
	"github.com/suffix-labs/relay-adapt/pkg/ledger"
)

// ComputeParams parses a serialized bundle and returns the adapt-parameter
// commitment over it. Pure; no state is touched.
func ComputeParams(bundleBytes []byte) ([32]byte, error) {
	bundle, err := adapt.ParseBundle(bundleBytes)
	if err != nil {
		return [32]byte{}, fmt.Errorf("invalid bundle: %w", err)
	}
	return commit.ComputeAdaptParams(bundle.Transactions, &bundle.ActionData), nil
}

// BindBundle computes the bundle's commitment and writes it into every
// transaction's bound parameters. Wallet-side: called after the batch and
// ActionData are final, before proving.
func BindBundle(bundle *adapt.RelayBundle) [32]byte {
	params := commit.ComputeAdaptParams(bundle.Transactions, &bundle.ActionData)
	for i := range bundle.Transactions {
		bundle.Transactions[i].BoundParams.AdaptParams = params
	}
	return params
}

// VerifyBundle checks that every transaction in a serialized bundle is bound
// to the bundle's own ActionData. Returns the index of the first mismatch,
// or -1 if the bundle is consistently bound.
func VerifyBundle(bundleBytes []byte) (int, error) {
	bundle, err := adapt.ParseBundle(bundleBytes)
	if err != nil {
		return 0, fmt.Errorf("invalid bundle: %w", err)
	}
	return commit.VerifyBatchBinding(bundle.Transactions, &bundle.ActionData), nil
}

// AttestBundle signs the bundle's commitment with a relayer key, so an
// operator receiving the bundle can attribute it. The engine never checks
// these signatures; binding security is the commitment's job.
func AttestBundle(bundleBytes []byte, key *commit.PrivateKey) ([]byte, error) {
	params, err := ComputeParams(bundleBytes)
	if err != nil {
		return nil, err
	}
	return key.SignParams(params), nil
}

// VerifyAttestation verifies a relayer's signature over a bundle.
func VerifyAttestation(bundleBytes []byte, pub *commit.PublicKey, signature []byte) (bool, error) {
	params, err := ComputeParams(bundleBytes)
	if err != nil {
		return false, err
	}
	return commit.VerifyParams(pub, params, signature), nil
}

// Simulator is an engine wired to the in-memory reference world: the full
// stack (world, pool, wrapped base token, engine) behind one handle.
type Simulator struct {
	World  *ledger.World
	Pool   *ledger.Pool
	Base   *ledger.WrappedBase
	Engine *engine.Engine
}

// NewSimulator assembles a simulator from a config. A nil logger runs
// silent.
func NewSimulator(cfg *Config, log *zap.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	world := ledger.NewWorld(log)
	pool := ledger.NewPool(world, cfg.pool, log)
	base := ledger.NewWrappedBase(world, cfg.wrappedBase)
	eng := engine.New(world, pool, base, engine.Config{
		Address: cfg.engine,
		Bypass:  cfg.bypass,
		Policy:  cfg.policy,
		Logger:  log,
	})

	return &Simulator{World: world, Pool: pool, Base: base, Engine: eng}, nil
}

// Relay executes a serialized bundle as the given caller with the given
// value and resource budget.
func (s *Simulator) Relay(caller adapt.Address, value *uint256.Int, gas uint64, bundleBytes []byte) ([]adapt.CallResult, error) {
	bundle, err := adapt.ParseBundle(bundleBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid bundle: %w", err)
	}
	env := &ledger.CallEnv{Caller: caller, Value: value, Gas: gas}
	return s.Engine.Relay(env, bundle.Transactions, &bundle.ActionData)
}
