package engine

import (
	"go.uber.org/zap"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
	"github.com/suffix-labs/relay-adapt/pkg/ledger"
)

// runCalls executes a call sequence strictly in order. Each call runs as the
// engine (nested calls are stamped with the engine's own address, which is
// what lets guarded entrypoints distinguish self-reentry from strangers) and
// receives the full remaining resource budget plus its declared value.
// Internal: Relay is the only way in, so call sequences never execute with
// the engine's identity unless their batch passed the binding check.
//
// Failure handling depends on the engine's policy:
//
//   - PolicyAbort: a call targeting the engine itself is always
//     must-succeed, regardless of requireSuccess - an internal step failing
//     silently would corrupt every step after it. Other calls are
//     must-succeed only when requireSuccess is set. A must-succeed failure
//     aborts with CallFailed{index, payload} and the sequence's effects are
//     rolled back; a tolerated failure rolls back just that call and
//     execution continues.
//   - PolicyCollect: every call is attempted and its outcome recorded; the
//     invocation aborts only if requireSuccess is set and anything failed.
//
// Under PolicyAbort the returned slice is nil; per-call results exist only
// in collect mode.
func (e *Engine) runCalls(gas uint64, requireSuccess bool, calls []adapt.Call) ([]adapt.CallResult, error) {
	snap := e.world.Snapshot()

	results, err := e.runCallsInner(gas, requireSuccess, calls)
	if err != nil {
		e.world.RevertToSnapshot(snap)
		return nil, err
	}
	e.world.DiscardSnapshot(snap)
	return results, nil
}

func (e *Engine) runCallsInner(gas uint64, requireSuccess bool, calls []adapt.Call) ([]adapt.CallResult, error) {
	var results []adapt.CallResult
	if e.policy == PolicyCollect {
		results = make([]adapt.CallResult, 0, len(calls))
	}

	var firstFailure *adapt.CallFailedError

	for i := range calls {
		call := &calls[i]

		callSnap := e.world.Snapshot()
		env := &ledger.CallEnv{
			Caller: e.addr,
			Value:  call.CallValue(),
			Gas:    gas,
		}
		returned, err := e.world.Call(env, call.To, call.Data)

		if err == nil {
			e.world.DiscardSnapshot(callSnap)
			if results != nil {
				results = append(results, adapt.CallResult{Success: true, Returned: returned})
			}
			continue
		}

		e.world.RevertToSnapshot(callSnap)
		e.log.Debug("call failed",
			zap.Int("index", i),
			zap.String("to", call.To.Hex()),
			zap.Error(err))

		failure := &adapt.CallFailedError{Index: i, Reason: returned, Cause: err}

		if e.policy == PolicyCollect {
			results = append(results, adapt.CallResult{Success: false, Returned: returned})
			if firstFailure == nil {
				firstFailure = failure
			}
			continue
		}

		// Self-target steps are always must-succeed.
		if requireSuccess || call.To == e.addr {
			return nil, failure
		}
	}

	if e.policy == PolicyCollect && requireSuccess && firstFailure != nil {
		return nil, firstFailure
	}
	return results, nil
}
