package market

import (
	"fmt"
	"math/big"

	"nsmarket/core/types"
)

// MakeOffer escrows the offered amount immediately and records a pending
// offer, so an owner can accept it later without re-confirmation from the
// buyer. A buyer holds at most one pending offer per asset.
func (e *Engine) MakeOffer(asset AssetKey, buyer [20]byte, amount *big.Int) (*Offer, error) {
	done, err := e.begin(asset)
	if err != nil {
		return nil, err
	}
	defer done()

	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if e.registry == nil {
		return nil, fmt.Errorf("market: registry not configured")
	}
	owner, err := e.registry.OwnerOf(asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	if owner == buyer {
		return nil, ErrSelfPurchase
	}
	st := newStaged(e.state)
	existing, err := st.OffersList(asset)
	if err != nil {
		return nil, err
	}
	for _, offer := range existing {
		if offer.Status == OfferPending && offer.Buyer == buyer {
			return nil, ErrOfferExists
		}
	}
	if err := e.moveFunds(st, buyer, e.vault, amount); err != nil {
		return nil, err
	}
	if err := creditEscrow(st, asset, amount); err != nil {
		return nil, err
	}
	seq, err := st.OfferSeqGet(asset)
	if err != nil {
		return nil, err
	}
	seq++
	if err := st.OfferSeqPut(asset, seq); err != nil {
		return nil, err
	}
	offer := &Offer{
		ID:        seq,
		Buyer:     buyer,
		Amount:    cloneBigInt(amount),
		CreatedAt: e.now(),
		Status:    OfferPending,
	}
	if err := st.OfferPut(asset, offer); err != nil {
		return nil, err
	}
	if err := st.commit(); err != nil {
		return nil, err
	}
	e.emit(NewOfferMadeEvent(asset, offer))
	return offer.Clone(), nil
}

// WithdrawOffer refunds a pending offer's escrowed amount to its buyer and
// marks it withdrawn.
func (e *Engine) WithdrawOffer(asset AssetKey, offerID uint64, caller [20]byte) error {
	done, err := e.begin(asset)
	if err != nil {
		return err
	}
	defer done()

	st := newStaged(e.state)
	offer, ok, err := st.OfferGet(asset, offerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOfferNotFound
	}
	if offer.Buyer != caller {
		return ErrNotOfferBuyer
	}
	if offer.Status != OfferPending {
		return ErrOfferNotPending
	}
	if err := creditEscrow(st, asset, new(big.Int).Neg(offer.Amount)); err != nil {
		return err
	}
	if err := e.moveFunds(st, e.vault, offer.Buyer, offer.Amount); err != nil {
		return err
	}
	offer.Status = OfferWithdrawn
	if err := st.OfferPut(asset, offer); err != nil {
		return err
	}
	if err := st.commit(); err != nil {
		return err
	}
	e.emit(NewOfferWithdrawnEvent(asset, offer))
	return nil
}

// AcceptOffer settles a pending offer exactly like a sale: fee split, stats
// bump and asset transfer. Every other pending offer on the asset is refunded
// and marked expired inside the same state transition, which keeps the
// recorded escrow balance equal to the sum of still-pending offer amounts at
// all times. Any active sale listing the seller holds is retired so no stale
// claim survives the ownership change.
func (e *Engine) AcceptOffer(asset AssetKey, offerID uint64, caller [20]byte) error {
	done, err := e.begin(asset)
	if err != nil {
		return err
	}
	defer done()

	st := newStaged(e.state)
	offer, ok, err := st.OfferGet(asset, offerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOfferNotFound
	}
	if offer.Status != OfferPending {
		return ErrOfferNotPending
	}
	if err := e.requireSellerAuthority(asset, caller); err != nil {
		return err
	}

	var pending []*types.Event

	if err := creditEscrow(st, asset, new(big.Int).Neg(offer.Amount)); err != nil {
		return err
	}
	if _, _, err := e.settle(st, offer.Amount, caller); err != nil {
		return err
	}
	offer.Status = OfferAccepted
	if err := st.OfferPut(asset, offer); err != nil {
		return err
	}

	others, err := st.OffersList(asset)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID == offer.ID || other.Status != OfferPending {
			continue
		}
		if err := creditEscrow(st, asset, new(big.Int).Neg(other.Amount)); err != nil {
			return err
		}
		if err := e.moveFunds(st, e.vault, other.Buyer, other.Amount); err != nil {
			return err
		}
		other.Status = OfferExpired
		if err := st.OfferPut(asset, other); err != nil {
			return err
		}
		pending = append(pending, NewOfferExpiredEvent(asset, other))
	}

	listing, ok, err := st.SaleListingGet(asset)
	if err != nil {
		return err
	}
	if ok && listing.Active {
		listing.Active = false
		if err := st.SaleListingPut(asset, listing); err != nil {
			return err
		}
		pending = append(pending, NewSaleCanceledEvent(asset, listing))
	}

	if err := e.bumpSaleStats(st, offer.Amount); err != nil {
		return err
	}
	// Same ordering as Buy: transfer before commit, so a registry refusal
	// aborts with the base state untouched and the escrow still intact.
	if err := e.registry.TransferFrom(asset, caller, offer.Buyer); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := st.commit(); err != nil {
		return err
	}
	e.emitAll(pending)
	e.emit(NewOfferAcceptedEvent(asset, caller, offer))
	return nil
}

// GetOffers returns every recorded offer for the asset, oldest first.
func (e *Engine) GetOffers(asset AssetKey) ([]*Offer, error) {
	done, err := e.begin(asset)
	if err != nil {
		return nil, err
	}
	defer done()
	offers, err := e.state.OffersList(asset)
	if err != nil {
		return nil, err
	}
	out := make([]*Offer, len(offers))
	for i, offer := range offers {
		out[i] = offer.Clone()
	}
	return out, nil
}

// EscrowedBalance returns the total amount currently held for pending offers
// on the asset.
func (e *Engine) EscrowedBalance(asset AssetKey) (*big.Int, error) {
	done, err := e.begin(asset)
	if err != nil {
		return nil, err
	}
	defer done()
	bal, err := e.state.EscrowBalanceGet(asset)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(bal), nil
}
