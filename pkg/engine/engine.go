// Package engine implements the relay-adapt execution engine.
//
// The engine is the top-level orchestrator an untrusted relayer talks to:
// Relay validates the adapt-parameter binding between the submitted
// transaction batch and its ActionData, forwards the batch to the shielded
// pool, then dispatches the follow-up calls in order. Guarded entrypoints
// (Shield, Send, Wrap, Unwrap) are reachable only as steps of the engine's
// own multicall, or by the configured verification-bypass identity.
//
// The engine holds no durable state - every balance, allowance, nullifier
// and note lives in the ledger.World it was constructed with, and the
// world's snapshot/revert gives each invocation all-or-nothing semantics.
package engine

import (
	"go.uber.org/zap"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
	"github.com/suffix-labs/relay-adapt/pkg/commit"
	"github.com/suffix-labs/relay-adapt/pkg/ledger"
)

// Policy selects how the dispatcher treats sub-call failures. The two
// historical behaviors are one code path selected here.
type Policy uint8

const (
	// PolicyAbort (the primary design): a failing must-succeed call aborts
	// the invocation with the failing index and payload, and every earlier
	// effect is rolled back.
	PolicyAbort Policy = iota

	// PolicyCollect (legacy compatibility): every call is attempted and a
	// per-call result is recorded; the invocation aborts only if
	// requireSuccess is globally set and at least one call failed.
	PolicyCollect
)

// Config assembles an engine.
type Config struct {
	Address adapt.Address // the engine's own account address
	Bypass  adapt.Address // verification-bypass identity; zero disables it
	Policy  Policy
	Logger  *zap.Logger // nil = no-op
}

// Engine executes relay invocations against a ledger world.
type Engine struct {
	world  *ledger.World
	pool   ledger.Ledger
	base   ledger.WrappedAsset
	addr   adapt.Address
	guard  *AccessGuard
	policy Policy
	log    *zap.Logger
}

// New creates an engine and registers its self-call handler in the world, so
// multicall steps targeting the engine's own address re-enter it.
func New(world *ledger.World, pool ledger.Ledger, base ledger.WrappedAsset, cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		world:  world,
		pool:   pool,
		base:   base,
		addr:   cfg.Address,
		guard:  NewAccessGuard(cfg.Address, cfg.Bypass),
		policy: cfg.Policy,
		log:    log,
	}
	world.RegisterHandler(cfg.Address, e.handleSelfCall)
	return e
}

// Address returns the engine's account address.
func (e *Engine) Address() adapt.Address { return e.addr }

// GetAdaptParams computes the commitment for a batch and ActionData. Pure;
// exposed so any caller can precompute the commitment before submission.
func (e *Engine) GetAdaptParams(transactions []adapt.ShieldedTransaction, actionData *adapt.ActionData) [32]byte {
	return commit.ComputeAdaptParams(transactions, actionData)
}

// Relay is the public entrypoint: validate the binding, forward the batch to
// the pool, then run the follow-up calls. Attached native value is credited
// to the engine before anything runs, so calls can spend it.
//
// Any failure reverts the entire invocation, including the value credit and
// the pool's nullifier marks. Retrying a failed invocation needs a fresh
// nonce: the old commitment stands for the failed attempt.
func (e *Engine) Relay(env *ledger.CallEnv, transactions []adapt.ShieldedTransaction, actionData *adapt.ActionData) ([]adapt.CallResult, error) {
	if err := actionData.Validate(); err != nil {
		return nil, err
	}
	if actionData.MinGas > 0 && env.Gas <= actionData.MinGas {
		return nil, &adapt.InsufficientResourcesError{
			Required:  actionData.MinGas,
			Available: env.Gas,
		}
	}

	snap := e.world.Snapshot()

	if err := e.relayInner(env, transactions, actionData); err != nil {
		e.world.RevertToSnapshot(snap)
		return nil, err
	}

	results, err := e.runCalls(env.Gas, actionData.RequireSuccess, actionData.Calls)
	if err != nil {
		e.world.RevertToSnapshot(snap)
		return nil, err
	}

	e.world.DiscardSnapshot(snap)
	e.log.Debug("relay complete",
		zap.String("caller", env.Caller.Hex()),
		zap.Int("transactions", len(transactions)),
		zap.Int("calls", len(actionData.Calls)))
	return results, nil
}

func (e *Engine) relayInner(env *ledger.CallEnv, transactions []adapt.ShieldedTransaction, actionData *adapt.ActionData) error {
	value := env.CallValue()
	if !value.IsZero() {
		if err := e.world.TransferNative(env.Caller, e.addr, value); err != nil {
			return err
		}
	}

	// An empty batch skips the binding check and the pool entirely; the
	// invocation is then calls-only.
	if len(transactions) == 0 {
		return nil
	}
	return e.executeBatch(env.Caller, transactions, actionData)
}
