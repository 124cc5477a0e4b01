package market

import "errors"

var (
	ErrInvalidAsset         = errors.New("market: asset name required")
	ErrNotOwner             = errors.New("market: caller is not the asset owner")
	ErrNotSeller            = errors.New("market: caller is not the listing seller")
	ErrNotApproved          = errors.New("market: marketplace lacks transfer approval")
	ErrAlreadyListed        = errors.New("market: asset already listed")
	ErrNotListed            = errors.New("market: asset not listed")
	ErrInvalidPrice         = errors.New("market: price must be positive")
	ErrInvalidDuration      = errors.New("market: rental duration out of bounds")
	ErrPaymentMismatch      = errors.New("market: payment does not match required amount")
	ErrAssetCurrentlyRented = errors.New("market: asset has a rental in progress")
	ErrTransferFailed       = errors.New("market: asset transfer failed")
	ErrSelfPurchase         = errors.New("market: buyer and seller are the same account")
	ErrOfferNotFound        = errors.New("market: offer not found")
	ErrOfferNotPending      = errors.New("market: offer is not pending")
	ErrOfferExists          = errors.New("market: buyer already has a pending offer")
	ErrNotOfferBuyer        = errors.New("market: caller did not make the offer")
	ErrInsufficientFunds    = errors.New("market: insufficient account balance")
	ErrOperationInProgress  = errors.New("market: operation already in progress for asset")
)
