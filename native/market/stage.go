package market

import (
	"math/big"
	"sort"

	"nsmarket/core/types"
)

// staged buffers every write an operation performs against the backing state
// so the whole sequence commits atomically, or not at all. Reads consult the
// write set first, then fall through to the base. Nothing touches the base
// until commit.
type staged struct {
	base State

	accounts     map[[20]byte]*types.Account
	sales        map[AssetKey]*SaleListing
	rentListings map[AssetKey]*RentalListing
	rentals      map[AssetKey]*ActiveRental
	offers       map[AssetKey]map[uint64]*Offer
	offerSeq     map[AssetKey]uint64
	escrow       map[AssetKey]*big.Int
	stats        *Stats
}

func newStaged(base State) *staged {
	return &staged{
		base:         base,
		accounts:     make(map[[20]byte]*types.Account),
		sales:        make(map[AssetKey]*SaleListing),
		rentListings: make(map[AssetKey]*RentalListing),
		rentals:      make(map[AssetKey]*ActiveRental),
		offers:       make(map[AssetKey]map[uint64]*Offer),
		offerSeq:     make(map[AssetKey]uint64),
		escrow:       make(map[AssetKey]*big.Int),
	}
}

func (s *staged) GetAccount(addr [20]byte) (*types.Account, error) {
	if acc, ok := s.accounts[addr]; ok {
		return acc.Clone(), nil
	}
	acc, err := s.base.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return types.EnsureAccount(acc), nil
}

func (s *staged) PutAccount(addr [20]byte, acc *types.Account) error {
	s.accounts[addr] = acc.Clone()
	return nil
}

func (s *staged) SaleListingGet(asset AssetKey) (*SaleListing, bool, error) {
	if l, ok := s.sales[asset]; ok {
		return l.Clone(), true, nil
	}
	return s.base.SaleListingGet(asset)
}

func (s *staged) SaleListingPut(asset AssetKey, l *SaleListing) error {
	s.sales[asset] = l.Clone()
	return nil
}

func (s *staged) RentalListingGet(asset AssetKey) (*RentalListing, bool, error) {
	if l, ok := s.rentListings[asset]; ok {
		return l.Clone(), true, nil
	}
	return s.base.RentalListingGet(asset)
}

func (s *staged) RentalListingPut(asset AssetKey, l *RentalListing) error {
	s.rentListings[asset] = l.Clone()
	return nil
}

func (s *staged) ActiveRentalGet(asset AssetKey) (*ActiveRental, bool, error) {
	if r, ok := s.rentals[asset]; ok {
		return r.Clone(), true, nil
	}
	return s.base.ActiveRentalGet(asset)
}

func (s *staged) ActiveRentalPut(asset AssetKey, r *ActiveRental) error {
	s.rentals[asset] = r.Clone()
	return nil
}

func (s *staged) OfferGet(asset AssetKey, id uint64) (*Offer, bool, error) {
	if byID, ok := s.offers[asset]; ok {
		if offer, ok := byID[id]; ok {
			return offer.Clone(), true, nil
		}
	}
	return s.base.OfferGet(asset, id)
}

func (s *staged) OfferPut(asset AssetKey, offer *Offer) error {
	byID, ok := s.offers[asset]
	if !ok {
		byID = make(map[uint64]*Offer)
		s.offers[asset] = byID
	}
	byID[offer.ID] = offer.Clone()
	return nil
}

func (s *staged) OffersList(asset AssetKey) ([]*Offer, error) {
	listed, err := s.base.OffersList(asset)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]*Offer, len(listed))
	for _, offer := range listed {
		byID[offer.ID] = offer
	}
	for id, offer := range s.offers[asset] {
		byID[id] = offer.Clone()
	}
	merged := make([]*Offer, 0, len(byID))
	for _, offer := range byID {
		merged = append(merged, offer)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged, nil
}

func (s *staged) OfferSeqGet(asset AssetKey) (uint64, error) {
	if seq, ok := s.offerSeq[asset]; ok {
		return seq, nil
	}
	return s.base.OfferSeqGet(asset)
}

func (s *staged) OfferSeqPut(asset AssetKey, seq uint64) error {
	s.offerSeq[asset] = seq
	return nil
}

func (s *staged) EscrowBalanceGet(asset AssetKey) (*big.Int, error) {
	if bal, ok := s.escrow[asset]; ok {
		return new(big.Int).Set(bal), nil
	}
	bal, err := s.base.EscrowBalanceGet(asset)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(bal), nil
}

func (s *staged) EscrowBalancePut(asset AssetKey, amount *big.Int) error {
	s.escrow[asset] = cloneBigInt(amount)
	return nil
}

func (s *staged) StatsGet() (*Stats, error) {
	if s.stats != nil {
		return s.stats.Clone(), nil
	}
	stats, err := s.base.StatsGet()
	if err != nil {
		return nil, err
	}
	return EnsureStats(stats), nil
}

func (s *staged) StatsPut(stats *Stats) error {
	s.stats = stats.Clone()
	return nil
}

// commit flushes the write set to the backing state. Storage faults abort the
// flush and surface to the caller.
func (s *staged) commit() error {
	for addr, acc := range s.accounts {
		if err := s.base.PutAccount(addr, acc); err != nil {
			return err
		}
	}
	for asset, listing := range s.sales {
		if err := s.base.SaleListingPut(asset, listing); err != nil {
			return err
		}
	}
	for asset, listing := range s.rentListings {
		if err := s.base.RentalListingPut(asset, listing); err != nil {
			return err
		}
	}
	for asset, rental := range s.rentals {
		if err := s.base.ActiveRentalPut(asset, rental); err != nil {
			return err
		}
	}
	for asset, byID := range s.offers {
		ids := make([]uint64, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			if err := s.base.OfferPut(asset, byID[id]); err != nil {
				return err
			}
		}
	}
	for asset, seq := range s.offerSeq {
		if err := s.base.OfferSeqPut(asset, seq); err != nil {
			return err
		}
	}
	for asset, bal := range s.escrow {
		if err := s.base.EscrowBalancePut(asset, bal); err != nil {
			return err
		}
	}
	if s.stats != nil {
		if err := s.base.StatsPut(s.stats); err != nil {
			return err
		}
	}
	return nil
}
