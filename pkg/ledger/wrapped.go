package ledger

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
)

// WrappedBase is the reference wrapped-native-asset collaborator: deposit
// locks native balance in the wrapper account and credits wrapped token
// balance one-for-one; withdraw burns wrapped balance and releases native.
// Failures (short balances) propagate unmodified, as the engine expects.
type WrappedBase struct {
	world *World
	addr  adapt.Address
	token adapt.TokenDescriptor
}

// NewWrappedBase creates the wrapper at the given address. The wrapped
// token's descriptor uses the wrapper's own address as the token address.
func NewWrappedBase(world *World, addr adapt.Address) *WrappedBase {
	return &WrappedBase{
		world: world,
		addr:  addr,
		token: adapt.TokenDescriptor{Kind: adapt.TokenFungible, Address: addr},
	}
}

// Token implements WrappedAsset.
func (b *WrappedBase) Token() adapt.TokenDescriptor { return b.token }

// Deposit implements WrappedAsset.
func (b *WrappedBase) Deposit(caller adapt.Address, amount *uint256.Int) error {
	if err := b.world.TransferNative(caller, b.addr, amount); err != nil {
		return fmt.Errorf("wrap deposit: %w", err)
	}
	b.world.MintToken(&b.token, caller, amount)
	return nil
}

// Withdraw implements WrappedAsset.
func (b *WrappedBase) Withdraw(caller adapt.Address, amount *uint256.Int) error {
	if err := b.world.BurnToken(&b.token, caller, amount); err != nil {
		return fmt.Errorf("unwrap withdraw: %w", err)
	}
	if err := b.world.TransferNative(b.addr, caller, amount); err != nil {
		return fmt.Errorf("unwrap withdraw: %w", err)
	}
	return nil
}
