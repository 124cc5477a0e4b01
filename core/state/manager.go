package state

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"nsmarket/core/types"
	"nsmarket/native/market"
	"nsmarket/storage"
)

var (
	accountPrefix       = []byte("market/account/")
	saleListingPrefix   = []byte("market/sale/")
	rentalListingPrefix = []byte("market/rent/listing/")
	activeRentalPrefix  = []byte("market/rent/active/")
	offerPrefix         = []byte("market/offer/")
	offerIndexPrefix    = []byte("market/offer-index/")
	offerSeqPrefix      = []byte("market/offer-seq/")
	escrowPrefix        = []byte("market/escrow/")
	statsKey            = []byte("market/stats")
)

// Manager persists marketplace records as JSON documents in a key-value
// database. It implements both the market engine's State interface and the
// narrow KV storage interface the registry ledger consumes. The engine is the
// single writer; the manager adds no locking of its own.
type Manager struct {
	db storage.Database
}

// NewManager wraps a database in a state manager.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// KVPut stores the JSON encoding of value under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// KVGet decodes the value stored under key into out. The boolean reports
// whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func assetScopedKey(prefix []byte, asset market.AssetKey) []byte {
	return append(append([]byte(nil), prefix...), []byte(asset.Hex())...)
}

func accountKey(addr [20]byte) []byte {
	return append(append([]byte(nil), accountPrefix...), []byte(hex.EncodeToString(addr[:]))...)
}

func offerKey(asset market.AssetKey, id uint64) []byte {
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], id)
	key := assetScopedKey(offerPrefix, asset)
	key = append(key, '/')
	return append(key, []byte(hex.EncodeToString(seq[:]))...)
}

// GetAccount loads the funds record for an address. Unknown addresses yield a
// zeroed account.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	acc := &types.Account{}
	ok, err := m.KVGet(accountKey(addr), acc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.EnsureAccount(nil), nil
	}
	return types.EnsureAccount(acc), nil
}

// PutAccount persists the funds record for an address.
func (m *Manager) PutAccount(addr [20]byte, acc *types.Account) error {
	return m.KVPut(accountKey(addr), types.EnsureAccount(acc))
}

// SaleListingGet loads the sale listing for an asset.
func (m *Manager) SaleListingGet(asset market.AssetKey) (*market.SaleListing, bool, error) {
	listing := &market.SaleListing{}
	ok, err := m.KVGet(assetScopedKey(saleListingPrefix, asset), listing)
	if err != nil || !ok {
		return nil, false, err
	}
	return listing, true, nil
}

// SaleListingPut persists the sale listing for an asset.
func (m *Manager) SaleListingPut(asset market.AssetKey, listing *market.SaleListing) error {
	if listing == nil {
		return fmt.Errorf("state: nil sale listing")
	}
	return m.KVPut(assetScopedKey(saleListingPrefix, asset), listing)
}

// RentalListingGet loads the rental listing for an asset.
func (m *Manager) RentalListingGet(asset market.AssetKey) (*market.RentalListing, bool, error) {
	listing := &market.RentalListing{}
	ok, err := m.KVGet(assetScopedKey(rentalListingPrefix, asset), listing)
	if err != nil || !ok {
		return nil, false, err
	}
	return listing, true, nil
}

// RentalListingPut persists the rental listing for an asset.
func (m *Manager) RentalListingPut(asset market.AssetKey, listing *market.RentalListing) error {
	if listing == nil {
		return fmt.Errorf("state: nil rental listing")
	}
	return m.KVPut(assetScopedKey(rentalListingPrefix, asset), listing)
}

// ActiveRentalGet loads the rental session record for an asset.
func (m *Manager) ActiveRentalGet(asset market.AssetKey) (*market.ActiveRental, bool, error) {
	rental := &market.ActiveRental{}
	ok, err := m.KVGet(assetScopedKey(activeRentalPrefix, asset), rental)
	if err != nil || !ok {
		return nil, false, err
	}
	return rental, true, nil
}

// ActiveRentalPut persists the rental session record for an asset.
func (m *Manager) ActiveRentalPut(asset market.AssetKey, rental *market.ActiveRental) error {
	if rental == nil {
		return fmt.Errorf("state: nil rental")
	}
	return m.KVPut(assetScopedKey(activeRentalPrefix, asset), rental)
}

// OfferGet loads one offer by asset and identifier.
func (m *Manager) OfferGet(asset market.AssetKey, id uint64) (*market.Offer, bool, error) {
	offer := &market.Offer{}
	ok, err := m.KVGet(offerKey(asset, id), offer)
	if err != nil || !ok {
		return nil, false, err
	}
	return offer, true, nil
}

// OfferPut persists one offer and maintains the per-asset index used by
// OffersList.
func (m *Manager) OfferPut(asset market.AssetKey, offer *market.Offer) error {
	if offer == nil {
		return fmt.Errorf("state: nil offer")
	}
	if err := m.KVPut(offerKey(asset, offer.ID), offer); err != nil {
		return err
	}
	indexKey := assetScopedKey(offerIndexPrefix, asset)
	var ids []uint64
	if _, err := m.KVGet(indexKey, &ids); err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == offer.ID {
			return nil
		}
	}
	ids = append(ids, offer.ID)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return m.KVPut(indexKey, ids)
}

// OffersList returns every offer recorded for the asset, ordered by ID.
func (m *Manager) OffersList(asset market.AssetKey) ([]*market.Offer, error) {
	var ids []uint64
	if _, err := m.KVGet(assetScopedKey(offerIndexPrefix, asset), &ids); err != nil {
		return nil, err
	}
	offers := make([]*market.Offer, 0, len(ids))
	for _, id := range ids {
		offer, ok, err := m.OfferGet(asset, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("state: indexed offer %d missing for asset %s", id, asset.Hex())
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// OfferSeqGet returns the last allocated offer identifier for an asset.
func (m *Manager) OfferSeqGet(asset market.AssetKey) (uint64, error) {
	var seq uint64
	if _, err := m.KVGet(assetScopedKey(offerSeqPrefix, asset), &seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// OfferSeqPut records the last allocated offer identifier for an asset.
func (m *Manager) OfferSeqPut(asset market.AssetKey, seq uint64) error {
	return m.KVPut(assetScopedKey(offerSeqPrefix, asset), seq)
}

// EscrowBalanceGet returns the funds held for pending offers on the asset.
func (m *Manager) EscrowBalanceGet(asset market.AssetKey) (*big.Int, error) {
	var encoded string
	ok, err := m.KVGet(assetScopedKey(escrowPrefix, asset), &encoded)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	balance, valid := new(big.Int).SetString(encoded, 10)
	if !valid {
		return nil, fmt.Errorf("state: corrupt escrow balance for asset %s", asset.Hex())
	}
	return balance, nil
}

// EscrowBalancePut records the funds held for pending offers on the asset.
func (m *Manager) EscrowBalancePut(asset market.AssetKey, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.KVPut(assetScopedKey(escrowPrefix, asset), amount.String())
}

// StatsGet loads the marketplace aggregate counters.
func (m *Manager) StatsGet() (*market.Stats, error) {
	stats := &market.Stats{}
	ok, err := m.KVGet(statsKey, stats)
	if err != nil {
		return nil, err
	}
	if !ok {
		return market.EnsureStats(nil), nil
	}
	return market.EnsureStats(stats), nil
}

// StatsPut persists the marketplace aggregate counters.
func (m *Manager) StatsPut(stats *market.Stats) error {
	return m.KVPut(statsKey, market.EnsureStats(stats))
}
