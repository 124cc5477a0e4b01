package state

import (
	"math/big"
	"testing"

	"nsmarket/core/types"
	"nsmarket/native/market"
	"nsmarket/storage"
)

func testAsset(t *testing.T, name string) market.AssetKey {
	t.Helper()
	asset, err := market.NewAssetKey(name)
	if err != nil {
		t.Fatalf("derive asset key: %v", err)
	}
	return asset
}

func TestAccountRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := [20]byte{0x01}

	acc, err := m.GetAccount(addr)
	if err != nil {
		t.Fatalf("get unknown account: %v", err)
	}
	if acc.Balance.Sign() != 0 {
		t.Fatalf("unknown account should start at zero, got %s", acc.Balance)
	}

	acc.Balance = big.NewInt(12345)
	acc.Nonce = 7
	if err := m.PutAccount(addr, acc); err != nil {
		t.Fatalf("put account: %v", err)
	}
	loaded, err := m.GetAccount(addr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if loaded.Balance.Cmp(big.NewInt(12345)) != 0 || loaded.Nonce != 7 {
		t.Fatalf("account round trip mismatch: %+v", loaded)
	}
}

func TestListingRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	asset := testAsset(t, "alpha.ns")
	seller := [20]byte{0xAA}

	if _, ok, err := m.SaleListingGet(asset); err != nil || ok {
		t.Fatalf("expected no listing, ok=%v err=%v", ok, err)
	}
	listing := &market.SaleListing{Seller: seller, Price: big.NewInt(999), ListedAt: 42, Active: true}
	if err := m.SaleListingPut(asset, listing); err != nil {
		t.Fatalf("put listing: %v", err)
	}
	loaded, ok, err := m.SaleListingGet(asset)
	if err != nil || !ok {
		t.Fatalf("get listing: ok=%v err=%v", ok, err)
	}
	if loaded.Seller != seller || loaded.Price.Cmp(big.NewInt(999)) != 0 || !loaded.Active {
		t.Fatalf("listing round trip mismatch: %+v", loaded)
	}

	rental := &market.RentalListing{Owner: seller, PricePerDay: big.NewInt(5), MinDurationDays: 1, MaxDurationDays: 30, Active: true}
	if err := m.RentalListingPut(asset, rental); err != nil {
		t.Fatalf("put rental listing: %v", err)
	}
	loadedRental, ok, err := m.RentalListingGet(asset)
	if err != nil || !ok {
		t.Fatalf("get rental listing: ok=%v err=%v", ok, err)
	}
	if loadedRental.MaxDurationDays != 30 {
		t.Fatalf("rental listing round trip mismatch: %+v", loadedRental)
	}
}

func TestOfferIndexOrdering(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	asset := testAsset(t, "alpha.ns")

	for _, id := range []uint64{3, 1, 2} {
		offer := &market.Offer{ID: id, Buyer: [20]byte{byte(id)}, Amount: big.NewInt(int64(id) * 100)}
		if err := m.OfferPut(asset, offer); err != nil {
			t.Fatalf("put offer %d: %v", id, err)
		}
	}
	// Re-put an existing offer; the index must not duplicate it.
	if err := m.OfferPut(asset, &market.Offer{ID: 2, Amount: big.NewInt(250), Status: market.OfferWithdrawn}); err != nil {
		t.Fatalf("re-put offer: %v", err)
	}
	offers, err := m.OffersList(asset)
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	if len(offers) != 3 {
		t.Fatalf("offer count = %d, want 3", len(offers))
	}
	for i, offer := range offers {
		if offer.ID != uint64(i+1) {
			t.Fatalf("offers out of order: %v", offers)
		}
	}
	if offers[1].Status != market.OfferWithdrawn {
		t.Fatalf("re-put did not overwrite offer state")
	}
}

func TestEscrowBalanceAndStats(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	asset := testAsset(t, "alpha.ns")

	bal, err := m.EscrowBalanceGet(asset)
	if err != nil || bal.Sign() != 0 {
		t.Fatalf("initial escrow balance: %s err=%v", bal, err)
	}
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	if err := m.EscrowBalancePut(asset, huge); err != nil {
		t.Fatalf("put escrow balance: %v", err)
	}
	loaded, err := m.EscrowBalanceGet(asset)
	if err != nil || loaded.Cmp(huge) != 0 {
		t.Fatalf("escrow balance round trip: %s err=%v", loaded, err)
	}

	stats, err := m.StatsGet()
	if err != nil {
		t.Fatalf("initial stats: %v", err)
	}
	stats.TotalSales = 2
	stats.TotalVolume = big.NewInt(5000)
	if err := m.StatsPut(stats); err != nil {
		t.Fatalf("put stats: %v", err)
	}
	reloaded, err := m.StatsGet()
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if reloaded.TotalSales != 2 || reloaded.TotalVolume.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("stats round trip mismatch: %+v", reloaded)
	}
}

func TestManagerSatisfiesEngineState(t *testing.T) {
	var _ market.State = NewManager(storage.NewMemDB())
}

func TestAccountsAreIsolated(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	a := [20]byte{0x01}
	b := [20]byte{0x02}
	if err := m.PutAccount(a, &types.Account{Balance: big.NewInt(10)}); err != nil {
		t.Fatalf("put account: %v", err)
	}
	accB, err := m.GetAccount(b)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if accB.Balance.Sign() != 0 {
		t.Fatalf("accounts not isolated: %s", accB.Balance)
	}
}
