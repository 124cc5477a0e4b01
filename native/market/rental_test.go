package market

import (
	"errors"
	"math/big"
	"testing"
)

func TestListForRentDurationBounds(t *testing.T) {
	env := newTestEnv(t)
	owner := newTestAddress(0x01)
	asset := env.registerAsset(t, "alpha.ns", owner)

	cases := []struct {
		name     string
		min, max uint32
	}{
		{"min greater than max", 10, 5},
		{"zero min", 0, 30},
		{"max above one year", 1, 366},
	}
	for _, tc := range cases {
		if _, err := env.engine.ListForRent(asset, owner, big.NewInt(500), tc.min, tc.max); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("%s: expected ErrInvalidDuration, got %v", tc.name, err)
		}
	}
	if _, ok, _ := env.engine.GetRentalListing(asset); ok {
		t.Fatalf("no listing should exist after rejected creation")
	}
	if _, err := env.engine.ListForRent(asset, owner, big.NewInt(0), 1, 30); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := env.engine.ListForRent(asset, owner, big.NewInt(500), 1, 365); err != nil {
		t.Fatalf("list for rent at max bound: %v", err)
	}
}

func TestRentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	owner := newTestAddress(0x01)
	renter := newTestAddress(0x02)
	asset := env.registerAsset(t, "alpha.ns", owner)
	env.fund(t, renter, 5000)

	if _, err := env.engine.ListForRent(asset, owner, big.NewInt(500), 1, 30); err != nil {
		t.Fatalf("list for rent: %v", err)
	}
	rental, err := env.engine.Rent(asset, renter, 10, big.NewInt(5000))
	if err != nil {
		t.Fatalf("rent: %v", err)
	}
	if rental.EndTime-rental.StartTime != 10*86_400 {
		t.Fatalf("rental span = %d, want 864000", rental.EndTime-rental.StartTime)
	}
	if rental.StartTime != env.now {
		t.Fatalf("startTime = %d, want %d", rental.StartTime, env.now)
	}
	// Owner is paid net of the 2.5% fee immediately.
	if got := env.balance(t, owner); got.Cmp(big.NewInt(4875)) != 0 {
		t.Fatalf("owner balance = %s, want 4875", got)
	}
	if got := env.balance(t, testTreasury); got.Cmp(big.NewInt(125)) != 0 {
		t.Fatalf("treasury balance = %s, want 125", got)
	}
	// Ownership never moves for a rental.
	if env.registry.owners[asset] != owner {
		t.Fatalf("rental must not transfer ownership")
	}
	stats := env.state.stats
	if stats.TotalRentals != 1 || stats.TotalRentalVolume.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("rental stats not updated: %+v", stats)
	}
	if !env.sink.has(EventTypeRented) {
		t.Fatalf("expected Rented event")
	}

	// The renter's term must complete before the owner can cancel.
	if err := env.engine.CancelRental(asset, owner); !errors.Is(err, ErrAssetCurrentlyRented) {
		t.Fatalf("expected ErrAssetCurrentlyRented, got %v", err)
	}
}

func TestRentRequiresExactPayment(t *testing.T) {
	env := newTestEnv(t)
	owner := newTestAddress(0x01)
	renter := newTestAddress(0x02)
	asset := env.registerAsset(t, "alpha.ns", owner)
	env.fund(t, renter, 10_000)

	if _, err := env.engine.ListForRent(asset, owner, big.NewInt(500), 5, 20); err != nil {
		t.Fatalf("list for rent: %v", err)
	}
	if _, err := env.engine.Rent(asset, renter, 4, big.NewInt(2000)); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("below min days: expected ErrInvalidDuration, got %v", err)
	}
	if _, err := env.engine.Rent(asset, renter, 21, big.NewInt(10_500)); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("above max days: expected ErrInvalidDuration, got %v", err)
	}
	if _, err := env.engine.Rent(asset, renter, 10, big.NewInt(4999)); !errors.Is(err, ErrPaymentMismatch) {
		t.Fatalf("underpayment: expected ErrPaymentMismatch, got %v", err)
	}
	if _, err := env.engine.Rent(asset, renter, 10, big.NewInt(5001)); !errors.Is(err, ErrPaymentMismatch) {
		t.Fatalf("overpayment: expected ErrPaymentMismatch, got %v", err)
	}
	if got := env.balance(t, renter); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("renter funds moved by rejected rent: %s", got)
	}
}

func TestRentBlockedWhileRented(t *testing.T) {
	env := newTestEnv(t)
	owner := newTestAddress(0x01)
	first := newTestAddress(0x02)
	second := newTestAddress(0x03)
	asset := env.registerAsset(t, "alpha.ns", owner)
	env.fund(t, first, 5000)
	env.fund(t, second, 5000)

	if _, err := env.engine.ListForRent(asset, owner, big.NewInt(500), 1, 30); err != nil {
		t.Fatalf("list for rent: %v", err)
	}
	if _, err := env.engine.Rent(asset, first, 10, big.NewInt(5000)); err != nil {
		t.Fatalf("first rent: %v", err)
	}
	if _, err := env.engine.Rent(asset, second, 5, big.NewInt(2500)); !errors.Is(err, ErrAssetCurrentlyRented) {
		t.Fatalf("overlapping rent: expected ErrAssetCurrentlyRented, got %v", err)
	}
	if _, err := env.engine.ListForRent(asset, owner, big.NewInt(700), 1, 30); !errors.Is(err, ErrAssetCurrentlyRented) {
		t.Fatalf("relist while rented: expected ErrAssetCurrentlyRented, got %v", err)
	}
}

func TestLazyRentalExpiry(t *testing.T) {
	env := newTestEnv(t)
	owner := newTestAddress(0x01)
	first := newTestAddress(0x02)
	second := newTestAddress(0x03)
	asset := env.registerAsset(t, "alpha.ns", owner)
	env.fund(t, first, 5000)
	env.fund(t, second, 5000)

	if _, err := env.engine.ListForRent(asset, owner, big.NewInt(500), 1, 30); err != nil {
		t.Fatalf("list for rent: %v", err)
	}
	if _, err := env.engine.Rent(asset, first, 10, big.NewInt(5000)); err != nil {
		t.Fatalf("rent: %v", err)
	}

	// One second before expiry the session is still active.
	env.now += 10*86_400 - 1
	rental, ok, err := env.engine.GetActiveRental(asset)
	if err != nil || !ok {
		t.Fatalf("get active rental: ok=%v err=%v", ok, err)
	}
	if !rental.Active {
		t.Fatalf("rental expired one second early")
	}

	// now == endTime counts as expired.
	env.now++
	rental, ok, err = env.engine.GetActiveRental(asset)
	if err != nil || !ok {
		t.Fatalf("get active rental: ok=%v err=%v", ok, err)
	}
	if rental.Active {
		t.Fatalf("rental still active at endTime")
	}
	if !env.sink.has(EventTypeRentalEnded) {
		t.Fatalf("expected RentalEnded event on reconciliation")
	}

	// The listing returns to the rentable state: a fresh term may start and
	// the owner may now cancel.
	if _, err := env.engine.Rent(asset, second, 5, big.NewInt(2500)); err != nil {
		t.Fatalf("rent after expiry: %v", err)
	}
	env.now += 5 * 86_400
	if err := env.engine.CancelRental(asset, owner); err != nil {
		t.Fatalf("cancel after expiry: %v", err)
	}
	if err := env.engine.CancelRental(asset, owner); !errors.Is(err, ErrNotListed) {
		t.Fatalf("cancel is terminal, expected ErrNotListed, got %v", err)
	}
}

func TestCancelRentalAuthorization(t *testing.T) {
	env := newTestEnv(t)
	owner := newTestAddress(0x01)
	stranger := newTestAddress(0x02)
	asset := env.registerAsset(t, "alpha.ns", owner)

	if err := env.engine.CancelRental(asset, owner); !errors.Is(err, ErrNotListed) {
		t.Fatalf("expected ErrNotListed, got %v", err)
	}
	if _, err := env.engine.ListForRent(asset, owner, big.NewInt(500), 1, 30); err != nil {
		t.Fatalf("list for rent: %v", err)
	}
	if err := env.engine.CancelRental(asset, stranger); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := env.engine.CancelRental(asset, owner); err != nil {
		t.Fatalf("cancel rental: %v", err)
	}
	if !env.sink.has(EventTypeRentalCanceled) {
		t.Fatalf("expected RentalCanceled event")
	}
}
