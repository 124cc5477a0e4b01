package market

import (
	"math/big"

	"nsmarket/core/types"
)

// reconcileRental lazily expires a finished rental. Every operation or read
// touching an asset's rental state calls this first, so a session whose end
// time has passed is never observable as still active. There is no background
// scheduler; expiry is a pure function of the clock, reconciled on demand.
func (e *Engine) reconcileRental(st State, asset AssetKey, pending *[]*types.Event) error {
	rental, ok, err := st.ActiveRentalGet(asset)
	if err != nil {
		return err
	}
	if !ok || !rental.Active {
		return nil
	}
	if e.now() < rental.EndTime {
		return nil
	}
	rental.Active = false
	if err := st.ActiveRentalPut(asset, rental); err != nil {
		return err
	}
	if pending != nil {
		*pending = append(*pending, NewRentalEndedEvent(asset, rental))
	}
	return nil
}

// ListForRent creates an active rental listing with inclusive duration bounds.
// A rental already in progress blocks relisting until it expires.
func (e *Engine) ListForRent(asset AssetKey, owner [20]byte, pricePerDay *big.Int, minDays, maxDays uint32) (*RentalListing, error) {
	done, err := e.begin(asset)
	if err != nil {
		return nil, err
	}
	defer done()

	if pricePerDay == nil || pricePerDay.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if minDays < 1 || minDays > maxDays || maxDays > maxRentalDays {
		return nil, ErrInvalidDuration
	}
	if err := e.requireSellerAuthority(asset, owner); err != nil {
		return nil, err
	}
	st := newStaged(e.state)
	var pending []*types.Event
	if err := e.reconcileRental(st, asset, &pending); err != nil {
		return nil, err
	}
	rental, ok, err := st.ActiveRentalGet(asset)
	if err != nil {
		return nil, err
	}
	if ok && rental.Active {
		return nil, ErrAssetCurrentlyRented
	}
	existing, ok, err := st.RentalListingGet(asset)
	if err != nil {
		return nil, err
	}
	if ok && existing.Active {
		return nil, ErrAlreadyListed
	}
	listing := &RentalListing{
		Owner:           owner,
		PricePerDay:     cloneBigInt(pricePerDay),
		MinDurationDays: minDays,
		MaxDurationDays: maxDays,
		ListedAt:        e.now(),
		Active:          true,
	}
	if err := st.RentalListingPut(asset, listing); err != nil {
		return nil, err
	}
	if err := st.commit(); err != nil {
		return nil, err
	}
	e.emitAll(pending)
	e.emit(NewRentalListedEvent(asset, listing))
	return listing.Clone(), nil
}

// CancelRental deactivates the caller's rental listing. A renter's term must
// be allowed to complete: cancellation is blocked while a rental is in
// progress.
func (e *Engine) CancelRental(asset AssetKey, caller [20]byte) error {
	done, err := e.begin(asset)
	if err != nil {
		return err
	}
	defer done()

	st := newStaged(e.state)
	var pending []*types.Event
	if err := e.reconcileRental(st, asset, &pending); err != nil {
		return err
	}
	listing, ok, err := st.RentalListingGet(asset)
	if err != nil {
		return err
	}
	if !ok || !listing.Active {
		return ErrNotListed
	}
	if listing.Owner != caller {
		return ErrNotOwner
	}
	rental, ok, err := st.ActiveRentalGet(asset)
	if err != nil {
		return err
	}
	if ok && rental.Active {
		return ErrAssetCurrentlyRented
	}
	listing.Active = false
	if err := st.RentalListingPut(asset, listing); err != nil {
		return err
	}
	if err := st.commit(); err != nil {
		return err
	}
	e.emitAll(pending)
	e.emit(NewRentalCanceledEvent(asset, listing))
	return nil
}

// Rent starts a rental session against an active listing. The payment must
// equal pricePerDay*days exactly and the requested duration must fall within
// the listing bounds. The owner is paid net of the platform fee immediately;
// the underlying asset never changes hands, a rental grants usage rights only.
func (e *Engine) Rent(asset AssetKey, renter [20]byte, days uint32, payment *big.Int) (*ActiveRental, error) {
	done, err := e.begin(asset)
	if err != nil {
		return nil, err
	}
	defer done()

	st := newStaged(e.state)
	var pending []*types.Event
	if err := e.reconcileRental(st, asset, &pending); err != nil {
		return nil, err
	}
	listing, ok, err := st.RentalListingGet(asset)
	if err != nil {
		return nil, err
	}
	if !ok || !listing.Active {
		return nil, ErrNotListed
	}
	if days < listing.MinDurationDays || days > listing.MaxDurationDays {
		return nil, ErrInvalidDuration
	}
	expected := new(big.Int).Mul(listing.PricePerDay, new(big.Int).SetUint64(uint64(days)))
	if payment == nil || expected.Cmp(payment) != 0 {
		return nil, ErrPaymentMismatch
	}
	current, ok, err := st.ActiveRentalGet(asset)
	if err != nil {
		return nil, err
	}
	if ok && current.Active {
		return nil, ErrAssetCurrentlyRented
	}
	if err := e.moveFunds(st, renter, e.vault, payment); err != nil {
		return nil, err
	}
	if _, _, err := e.settle(st, payment, listing.Owner); err != nil {
		return nil, err
	}
	now := e.now()
	rental := &ActiveRental{
		Renter:    renter,
		StartTime: now,
		EndTime:   now + int64(days)*secondsPerDay,
		TotalPaid: cloneBigInt(payment),
		Active:    true,
	}
	if err := st.ActiveRentalPut(asset, rental); err != nil {
		return nil, err
	}
	if err := e.bumpRentalStats(st, payment); err != nil {
		return nil, err
	}
	if err := st.commit(); err != nil {
		return nil, err
	}
	e.emitAll(pending)
	e.emit(NewRentedEvent(asset, listing.Owner, rental))
	return rental.Clone(), nil
}

// GetRentalListing returns the rental listing for the asset after reconciling
// any expired session, so callers never observe a stale "still rented" state.
func (e *Engine) GetRentalListing(asset AssetKey) (*RentalListing, bool, error) {
	done, err := e.begin(asset)
	if err != nil {
		return nil, false, err
	}
	defer done()

	st := newStaged(e.state)
	var pending []*types.Event
	if err := e.reconcileRental(st, asset, &pending); err != nil {
		return nil, false, err
	}
	listing, ok, err := st.RentalListingGet(asset)
	if err != nil {
		return nil, false, err
	}
	if err := st.commit(); err != nil {
		return nil, false, err
	}
	e.emitAll(pending)
	if !ok {
		return nil, false, nil
	}
	return listing.Clone(), true, nil
}

// GetActiveRental returns the asset's rental session, reconciling expiry
// first. The returned record may be inactive if it represents a completed
// session.
func (e *Engine) GetActiveRental(asset AssetKey) (*ActiveRental, bool, error) {
	done, err := e.begin(asset)
	if err != nil {
		return nil, false, err
	}
	defer done()

	st := newStaged(e.state)
	var pending []*types.Event
	if err := e.reconcileRental(st, asset, &pending); err != nil {
		return nil, false, err
	}
	rental, ok, err := st.ActiveRentalGet(asset)
	if err != nil {
		return nil, false, err
	}
	if err := st.commit(); err != nil {
		return nil, false, err
	}
	e.emitAll(pending)
	if !ok {
		return nil, false, nil
	}
	return rental.Clone(), true, nil
}
