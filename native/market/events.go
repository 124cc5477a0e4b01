package market

import (
	"math/big"
	"strconv"

	"nsmarket/core/types"
)

const (
	EventTypeSaleListed       = "market.sale.listed"
	EventTypeSaleCanceled     = "market.sale.canceled"
	EventTypeSalePriceUpdated = "market.sale.price_updated"
	EventTypeSold             = "market.sale.sold"
	EventTypeRentalListed     = "market.rental.listed"
	EventTypeRentalCanceled   = "market.rental.canceled"
	EventTypeRented           = "market.rental.started"
	EventTypeRentalEnded      = "market.rental.ended"
	EventTypeOfferMade        = "market.offer.made"
	EventTypeOfferWithdrawn   = "market.offer.withdrawn"
	EventTypeOfferExpired     = "market.offer.expired"
	EventTypeOfferAccepted    = "market.offer.accepted"
)

// NewSaleListedEvent returns the canonical payload for a freshly created sale
// listing.
func NewSaleListedEvent(asset AssetKey, l *SaleListing) *types.Event {
	evt := newMarketEvent(EventTypeSaleListed, asset)
	if l != nil {
		evt.Attributes["seller"] = FormatAddress(l.Seller)
		evt.Attributes["price"] = cloneBigInt(l.Price).String()
		evt.Attributes["listedAt"] = strconv.FormatInt(l.ListedAt, 10)
	}
	return evt
}

// NewSaleCanceledEvent returns the canonical payload for a cancelled sale
// listing.
func NewSaleCanceledEvent(asset AssetKey, l *SaleListing) *types.Event {
	evt := newMarketEvent(EventTypeSaleCanceled, asset)
	if l != nil {
		evt.Attributes["seller"] = FormatAddress(l.Seller)
		evt.Attributes["price"] = cloneBigInt(l.Price).String()
	}
	return evt
}

// NewSalePriceUpdatedEvent returns the canonical payload for an in-place price
// change on an active listing.
func NewSalePriceUpdatedEvent(asset AssetKey, l *SaleListing) *types.Event {
	evt := newMarketEvent(EventTypeSalePriceUpdated, asset)
	if l != nil {
		evt.Attributes["seller"] = FormatAddress(l.Seller)
		evt.Attributes["price"] = cloneBigInt(l.Price).String()
	}
	return evt
}

// NewSoldEvent returns the canonical payload for a fulfilled sale listing.
func NewSoldEvent(asset AssetKey, seller, buyer [20]byte, price, fee, net *big.Int) *types.Event {
	evt := newMarketEvent(EventTypeSold, asset)
	evt.Attributes["seller"] = FormatAddress(seller)
	evt.Attributes["buyer"] = FormatAddress(buyer)
	evt.Attributes["price"] = cloneBigInt(price).String()
	evt.Attributes["fee"] = cloneBigInt(fee).String()
	evt.Attributes["net"] = cloneBigInt(net).String()
	return evt
}

// NewRentalListedEvent returns the canonical payload for a created rental
// listing.
func NewRentalListedEvent(asset AssetKey, l *RentalListing) *types.Event {
	evt := newMarketEvent(EventTypeRentalListed, asset)
	if l != nil {
		evt.Attributes["owner"] = FormatAddress(l.Owner)
		evt.Attributes["pricePerDay"] = cloneBigInt(l.PricePerDay).String()
		evt.Attributes["minDurationDays"] = strconv.FormatUint(uint64(l.MinDurationDays), 10)
		evt.Attributes["maxDurationDays"] = strconv.FormatUint(uint64(l.MaxDurationDays), 10)
	}
	return evt
}

// NewRentalCanceledEvent returns the canonical payload for a cancelled rental
// listing.
func NewRentalCanceledEvent(asset AssetKey, l *RentalListing) *types.Event {
	evt := newMarketEvent(EventTypeRentalCanceled, asset)
	if l != nil {
		evt.Attributes["owner"] = FormatAddress(l.Owner)
	}
	return evt
}

// NewRentedEvent returns the canonical payload for a started rental session.
func NewRentedEvent(asset AssetKey, owner [20]byte, r *ActiveRental) *types.Event {
	evt := newMarketEvent(EventTypeRented, asset)
	evt.Attributes["owner"] = FormatAddress(owner)
	if r != nil {
		evt.Attributes["renter"] = FormatAddress(r.Renter)
		evt.Attributes["startTime"] = strconv.FormatInt(r.StartTime, 10)
		evt.Attributes["endTime"] = strconv.FormatInt(r.EndTime, 10)
		evt.Attributes["totalPaid"] = cloneBigInt(r.TotalPaid).String()
	}
	return evt
}

// NewRentalEndedEvent returns the canonical payload emitted when a rental is
// reconciled as expired.
func NewRentalEndedEvent(asset AssetKey, r *ActiveRental) *types.Event {
	evt := newMarketEvent(EventTypeRentalEnded, asset)
	if r != nil {
		evt.Attributes["renter"] = FormatAddress(r.Renter)
		evt.Attributes["endTime"] = strconv.FormatInt(r.EndTime, 10)
	}
	return evt
}

// NewOfferMadeEvent returns the canonical payload for a newly escrowed offer.
func NewOfferMadeEvent(asset AssetKey, o *Offer) *types.Event {
	return newOfferEvent(EventTypeOfferMade, asset, o)
}

// NewOfferWithdrawnEvent returns the canonical payload for a withdrawn offer.
func NewOfferWithdrawnEvent(asset AssetKey, o *Offer) *types.Event {
	return newOfferEvent(EventTypeOfferWithdrawn, asset, o)
}

// NewOfferExpiredEvent returns the canonical payload emitted when a pending
// offer is refunded because a competing offer was accepted.
func NewOfferExpiredEvent(asset AssetKey, o *Offer) *types.Event {
	return newOfferEvent(EventTypeOfferExpired, asset, o)
}

// NewOfferAcceptedEvent returns the canonical payload for an accepted offer.
func NewOfferAcceptedEvent(asset AssetKey, seller [20]byte, o *Offer) *types.Event {
	evt := newOfferEvent(EventTypeOfferAccepted, asset, o)
	evt.Attributes["seller"] = FormatAddress(seller)
	return evt
}

func newOfferEvent(eventType string, asset AssetKey, o *Offer) *types.Event {
	evt := newMarketEvent(eventType, asset)
	if o != nil {
		evt.Attributes["offerId"] = strconv.FormatUint(o.ID, 10)
		evt.Attributes["buyer"] = FormatAddress(o.Buyer)
		evt.Attributes["amount"] = cloneBigInt(o.Amount).String()
		evt.Attributes["status"] = o.Status.String()
	}
	return evt
}

func newMarketEvent(eventType string, asset AssetKey) *types.Event {
	return &types.Event{
		Type:       eventType,
		Attributes: map[string]string{"asset": asset.Hex()},
	}
}
