package ledger

import (
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
)

// World is the explicit account object holding every balance the adapt
// engine can touch: native balances, fungible token balances, allowances,
// and the registry of call targets. One World is one chain-state view;
// execution within it is single-threaded and synchronous.
//
// Snapshot/RevertToSnapshot give the all-or-nothing boundary: the engine
// snapshots at invocation entry and reverts on any aborting failure, so no
// partial effects survive.
type World struct {
	native     map[adapt.Address]*uint256.Int
	tokens     map[adapt.TokenKey]map[adapt.Address]*uint256.Int
	allowances map[adapt.TokenKey]map[allowanceKey]*uint256.Int
	handlers   map[adapt.Address]CallHandler

	// Shielded pool state. Lives here, not in Pool, so snapshot/revert
	// covers it together with the balances.
	nullifiers map[[32]byte]bool
	notes      []Note

	snapshots []worldSnapshot
	log       *zap.Logger
}

// Note is a minted private note record: preimage plus its ciphertext.
type Note struct {
	Preimage   adapt.CommitmentPreimage
	Ciphertext adapt.ShieldCiphertext
}

type allowanceKey struct {
	owner   adapt.Address
	spender adapt.Address
}

type worldSnapshot struct {
	native     map[adapt.Address]*uint256.Int
	tokens     map[adapt.TokenKey]map[adapt.Address]*uint256.Int
	allowances map[adapt.TokenKey]map[allowanceKey]*uint256.Int
	nullifiers map[[32]byte]bool
	noteCount  int
}

// NewWorld creates an empty world. A nil logger is replaced with a no-op.
func NewWorld(log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		native:     make(map[adapt.Address]*uint256.Int),
		tokens:     make(map[adapt.TokenKey]map[adapt.Address]*uint256.Int),
		allowances: make(map[adapt.TokenKey]map[allowanceKey]*uint256.Int),
		handlers:   make(map[adapt.Address]CallHandler),
		nullifiers: make(map[[32]byte]bool),
		log:        log,
	}
}

// MarkNullifier records a nullifier as spent; reuse is an error.
func (w *World) MarkNullifier(nf [32]byte) error {
	if w.nullifiers[nf] {
		return fmt.Errorf("nullifier %x already spent", nf)
	}
	w.nullifiers[nf] = true
	return nil
}

// NullifierSpent reports whether a nullifier has been seen.
func (w *World) NullifierSpent(nf [32]byte) bool {
	return w.nullifiers[nf]
}

// AppendNote records a minted note.
func (w *World) AppendNote(n Note) {
	w.notes = append(w.notes, n)
}

// Notes returns the minted note log.
func (w *World) Notes() []Note {
	return w.notes
}

// RegisterHandler installs a call handler at an address. Calls to addresses
// without a handler are plain value transfers.
func (w *World) RegisterHandler(addr adapt.Address, h CallHandler) {
	w.handlers[addr] = h
}

// MintNative credits native balance out of thin air (test and genesis use).
func (w *World) MintNative(addr adapt.Address, amount *uint256.Int) {
	w.native[addr] = new(uint256.Int).Add(w.nativeOf(addr), amount)
}

// MintToken credits token balance out of thin air (test and genesis use).
func (w *World) MintToken(token *adapt.TokenDescriptor, addr adapt.Address, amount *uint256.Int) {
	key := token.Key()
	if w.tokens[key] == nil {
		w.tokens[key] = make(map[adapt.Address]*uint256.Int)
	}
	w.tokens[key][addr] = new(uint256.Int).Add(w.tokenOf(key, addr), amount)
}

// NativeBalance returns a copy of addr's native balance.
func (w *World) NativeBalance(addr adapt.Address) *uint256.Int {
	return new(uint256.Int).Set(w.nativeOf(addr))
}

// TokenBalance returns a copy of addr's balance of the given token.
func (w *World) TokenBalance(token *adapt.TokenDescriptor, addr adapt.Address) *uint256.Int {
	return new(uint256.Int).Set(w.tokenOf(token.Key(), addr))
}

// TransferNative moves native balance between accounts.
func (w *World) TransferNative(from, to adapt.Address, amount *uint256.Int) error {
	bal := w.nativeOf(from)
	if bal.Lt(amount) {
		return fmt.Errorf("native transfer: %s has %s, needs %s", from, bal, amount)
	}
	w.native[from] = new(uint256.Int).Sub(bal, amount)
	w.native[to] = new(uint256.Int).Add(w.nativeOf(to), amount)
	return nil
}

// TransferToken moves token balance between accounts.
func (w *World) TransferToken(token *adapt.TokenDescriptor, from, to adapt.Address, amount *uint256.Int) error {
	key := token.Key()
	bal := w.tokenOf(key, from)
	if bal.Lt(amount) {
		return fmt.Errorf("token transfer: %s has %s of %s, needs %s",
			from, bal, token.Address, amount)
	}
	if w.tokens[key] == nil {
		w.tokens[key] = make(map[adapt.Address]*uint256.Int)
	}
	w.tokens[key][from] = new(uint256.Int).Sub(bal, amount)
	w.tokens[key][to] = new(uint256.Int).Add(w.tokenOf(key, to), amount)
	return nil
}

// BurnToken destroys token balance held by addr.
func (w *World) BurnToken(token *adapt.TokenDescriptor, addr adapt.Address, amount *uint256.Int) error {
	key := token.Key()
	bal := w.tokenOf(key, addr)
	if bal.Lt(amount) {
		return fmt.Errorf("token burn: %s has %s, needs %s", addr, bal, amount)
	}
	w.tokens[key][addr] = new(uint256.Int).Sub(bal, amount)
	return nil
}

// Approve sets spender's allowance over owner's balance of the token.
func (w *World) Approve(token *adapt.TokenDescriptor, owner, spender adapt.Address, amount *uint256.Int) {
	key := token.Key()
	if w.allowances[key] == nil {
		w.allowances[key] = make(map[allowanceKey]*uint256.Int)
	}
	w.allowances[key][allowanceKey{owner, spender}] = new(uint256.Int).Set(amount)
}

// Allowance returns a copy of spender's allowance over owner's balance.
func (w *World) Allowance(token *adapt.TokenDescriptor, owner, spender adapt.Address) *uint256.Int {
	if a := w.allowances[token.Key()][allowanceKey{owner, spender}]; a != nil {
		return new(uint256.Int).Set(a)
	}
	return uint256.NewInt(0)
}

// TransferFromToken moves owner's tokens on spender's authority, consuming
// allowance.
func (w *World) TransferFromToken(token *adapt.TokenDescriptor, spender, owner, to adapt.Address, amount *uint256.Int) error {
	allowance := w.Allowance(token, owner, spender)
	if allowance.Lt(amount) {
		return fmt.Errorf("transferFrom: allowance %s below %s", allowance, amount)
	}
	if err := w.TransferToken(token, owner, to, amount); err != nil {
		return err
	}
	w.allowances[token.Key()][allowanceKey{owner, spender}] = new(uint256.Int).Sub(allowance, amount)
	return nil
}

// Call executes a call against a target: the forwarded value moves first,
// then the target's handler (if any) runs with the given environment. A
// handler error is the call's failure; the caller decides whether that
// aborts the invocation.
func (w *World) Call(env *CallEnv, to adapt.Address, data []byte) ([]byte, error) {
	value := env.CallValue()
	if !value.IsZero() {
		if err := w.TransferNative(env.Caller, to, value); err != nil {
			return nil, err
		}
	}

	handler, ok := w.handlers[to]
	if !ok {
		return nil, nil
	}

	w.log.Debug("call",
		zap.String("caller", env.Caller.Hex()),
		zap.String("to", to.Hex()),
		zap.String("value", value.String()),
		zap.Int("datalen", len(data)))

	return handler(env, data)
}

// Snapshot records the current state and returns a revision id.
func (w *World) Snapshot() int {
	w.snapshots = append(w.snapshots, worldSnapshot{
		native:     copyBalances(w.native),
		tokens:     copyTokenBalances(w.tokens),
		allowances: copyAllowances(w.allowances),
		nullifiers: copyNullifiers(w.nullifiers),
		noteCount:  len(w.notes),
	})
	return len(w.snapshots) - 1
}

// RevertToSnapshot restores the state recorded at revision id and discards
// it along with any later revisions.
func (w *World) RevertToSnapshot(id int) {
	if id < 0 || id >= len(w.snapshots) {
		panic(fmt.Sprintf("ledger: unknown snapshot revision %d", id))
	}
	snap := w.snapshots[id]
	w.native = snap.native
	w.tokens = snap.tokens
	w.allowances = snap.allowances
	w.nullifiers = snap.nullifiers
	w.notes = w.notes[:snap.noteCount]
	w.snapshots = w.snapshots[:id]
}

// DiscardSnapshot drops revision id (and later ones) without reverting,
// committing the state changes made since.
func (w *World) DiscardSnapshot(id int) {
	if id < 0 || id >= len(w.snapshots) {
		panic(fmt.Sprintf("ledger: unknown snapshot revision %d", id))
	}
	w.snapshots = w.snapshots[:id]
}

func (w *World) nativeOf(addr adapt.Address) *uint256.Int {
	if b := w.native[addr]; b != nil {
		return b
	}
	return uint256.NewInt(0)
}

func (w *World) tokenOf(key adapt.TokenKey, addr adapt.Address) *uint256.Int {
	if b := w.tokens[key][addr]; b != nil {
		return b
	}
	return uint256.NewInt(0)
}

func copyBalances(m map[adapt.Address]*uint256.Int) map[adapt.Address]*uint256.Int {
	out := make(map[adapt.Address]*uint256.Int, len(m))
	for k, v := range m {
		out[k] = new(uint256.Int).Set(v)
	}
	return out
}

func copyTokenBalances(m map[adapt.TokenKey]map[adapt.Address]*uint256.Int) map[adapt.TokenKey]map[adapt.Address]*uint256.Int {
	out := make(map[adapt.TokenKey]map[adapt.Address]*uint256.Int, len(m))
	for k, v := range m {
		out[k] = copyBalances(v)
	}
	return out
}

func copyNullifiers(m map[[32]byte]bool) map[[32]byte]bool {
	out := make(map[[32]byte]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyAllowances(m map[adapt.TokenKey]map[allowanceKey]*uint256.Int) map[adapt.TokenKey]map[allowanceKey]*uint256.Int {
	out := make(map[adapt.TokenKey]map[allowanceKey]*uint256.Int, len(m))
	for k, v := range m {
		inner := make(map[allowanceKey]*uint256.Int, len(v))
		for ak, av := range v {
			inner[ak] = new(uint256.Int).Set(av)
		}
		out[k] = inner
	}
	return out
}
