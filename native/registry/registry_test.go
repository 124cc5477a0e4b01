package registry

import (
	"errors"
	"testing"

	"nsmarket/core/state"
	"nsmarket/native/market"
	storagepkg "nsmarket/storage"
)

func newTestLedger() *Ledger {
	ledger := NewLedger(state.NewManager(storagepkg.NewMemDB()))
	ledger.SetNowFunc(func() int64 { return 1_700_000_000 })
	return ledger
}

func addr(fill byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = fill
	}
	return out
}

func TestRegisterAndOwnerOf(t *testing.T) {
	ledger := newTestLedger()
	owner := addr(0x01)

	asset, err := ledger.Register("alpha.ns", owner)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := ledger.OwnerOf(asset)
	if err != nil {
		t.Fatalf("ownerOf: %v", err)
	}
	if got != owner {
		t.Fatalf("owner mismatch")
	}
	name, err := ledger.Name(asset)
	if err != nil || name != "alpha.ns" {
		t.Fatalf("name lookup: %q err=%v", name, err)
	}
	if _, err := ledger.Register("Alpha.NS", addr(0x02)); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("equivalent spelling should collide, got %v", err)
	}
	if _, err := ledger.OwnerOf(market.AssetKey{}); !errors.Is(err, ErrNameNotFound) {
		t.Fatalf("expected ErrNameNotFound, got %v", err)
	}
}

func TestApprovalFailsClosed(t *testing.T) {
	ledger := newTestLedger()
	owner := addr(0x01)
	operator := addr(0xCC)

	asset, err := ledger.Register("alpha.ns", owner)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	approved, err := ledger.IsApprovedForMarketplace(asset, operator)
	if err != nil {
		t.Fatalf("isApproved: %v", err)
	}
	if approved {
		t.Fatalf("approval must not be inferred")
	}
	if err := ledger.Approve(asset, addr(0x02), operator); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("non-owner approve: expected ErrNotAuthorized, got %v", err)
	}
	if err := ledger.Approve(asset, owner, operator); err != nil {
		t.Fatalf("approve: %v", err)
	}
	approved, err = ledger.IsApprovedForMarketplace(asset, operator)
	if err != nil || !approved {
		t.Fatalf("approval not recorded: %v", err)
	}
	// A different operator is still unapproved.
	other, err := ledger.IsApprovedForMarketplace(asset, addr(0xDD))
	if err != nil || other {
		t.Fatalf("approval leaked to unrelated operator")
	}
}

func TestTransferFromConsumesApproval(t *testing.T) {
	ledger := newTestLedger()
	owner := addr(0x01)
	buyer := addr(0x02)
	operator := addr(0xCC)

	asset, err := ledger.Register("alpha.ns", owner)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := ledger.TransferFrom(asset, owner, buyer); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("unapproved transfer: expected ErrNotAuthorized, got %v", err)
	}
	if err := ledger.Approve(asset, owner, operator); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ledger.TransferFrom(asset, addr(0x09), buyer); !errors.Is(err, ErrWrongOwner) {
		t.Fatalf("wrong from: expected ErrWrongOwner, got %v", err)
	}
	if err := ledger.TransferFrom(asset, owner, buyer); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	got, err := ledger.OwnerOf(asset)
	if err != nil || got != buyer {
		t.Fatalf("ownership not moved: %v", err)
	}
	// The approval does not survive the transfer.
	approved, err := ledger.IsApprovedForMarketplace(asset, operator)
	if err != nil || approved {
		t.Fatalf("approval should be cleared by transfer")
	}
	if err := ledger.TransferFrom(asset, buyer, owner); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("second transfer without fresh approval must fail, got %v", err)
	}
}
