package market

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"nsmarket/core/events"
	"nsmarket/core/types"
	nativecommon "nsmarket/native/common"
)

// ModuleName is the identifier the administrative pause switch keys on.
const ModuleName = "market"

// State is the keyed store the engine persists marketplace records in. A
// single engine instance is the only writer; implementations only need to be
// safe for the engine's own serialized access.
type State interface {
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, acc *types.Account) error
	SaleListingGet(asset AssetKey) (*SaleListing, bool, error)
	SaleListingPut(asset AssetKey, listing *SaleListing) error
	RentalListingGet(asset AssetKey) (*RentalListing, bool, error)
	RentalListingPut(asset AssetKey, listing *RentalListing) error
	ActiveRentalGet(asset AssetKey) (*ActiveRental, bool, error)
	ActiveRentalPut(asset AssetKey, rental *ActiveRental) error
	OfferGet(asset AssetKey, id uint64) (*Offer, bool, error)
	OfferPut(asset AssetKey, offer *Offer) error
	OffersList(asset AssetKey) ([]*Offer, error)
	OfferSeqGet(asset AssetKey) (uint64, error)
	OfferSeqPut(asset AssetKey, seq uint64) error
	EscrowBalanceGet(asset AssetKey) (*big.Int, error)
	EscrowBalancePut(asset AssetKey, amount *big.Int) error
	StatsGet() (*Stats, error)
	StatsPut(stats *Stats) error
}

// Registry is the slice of the external naming-asset registry the marketplace
// consumes. Ownership and approval facts always come from here; the engine
// never caches them across operations.
type Registry interface {
	OwnerOf(asset AssetKey) ([20]byte, error)
	IsApprovedForMarketplace(asset AssetKey, operator [20]byte) (bool, error)
	TransferFrom(asset AssetKey, from, to [20]byte) error
}

type marketEvent struct {
	evt *types.Event
}

func (e marketEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e marketEvent) Event() *types.Event { return e.evt }

func (e marketEvent) Payload() map[string]string {
	if e.evt == nil {
		return nil
	}
	return e.evt.Attributes
}

// Engine owns the sale, rental and offer lifecycles for naming-rights assets
// and routes every fund movement through the marketplace vault. All mutating
// entry points are serialized; a per-asset in-progress flag rejects reentrant
// calls instead of deadlocking on them.
type Engine struct {
	state    State
	registry Registry
	emitter  events.Emitter
	pauses   nativecommon.PauseView
	nowFn    func() int64

	feeBps   uint32
	treasury [20]byte
	vault    [20]byte
	operator [20]byte

	stateMu    sync.Mutex
	flagMu     sync.Mutex
	inProgress map[AssetKey]bool
}

// NewEngine creates a marketplace engine with the supplied fee policy. The
// treasury receives the platform fee cut of every settlement; feeBps is fixed
// for the engine's lifetime.
func NewEngine(feeBps uint32, treasury [20]byte) (*Engine, error) {
	if feeBps > feeDenominator {
		return nil, fmt.Errorf("market: fee bps out of range: %d", feeBps)
	}
	if treasury == ([20]byte{}) {
		return nil, fmt.Errorf("market: treasury address required")
	}
	return &Engine{
		emitter:    events.NoopEmitter{},
		nowFn:      func() int64 { return time.Now().Unix() },
		feeBps:     feeBps,
		treasury:   treasury,
		vault:      moduleAddress("market/vault"),
		operator:   moduleAddress("market/operator"),
		inProgress: make(map[AssetKey]bool),
	}, nil
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state State) { e.state = state }

// SetRegistry configures the external asset registry consulted for ownership
// and approval facts.
func (e *Engine) SetRegistry(registry Registry) { e.registry = registry }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the administrative pause switch.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// FeeBps returns the fixed platform fee in basis points.
func (e *Engine) FeeBps() uint32 { return e.feeBps }

// VaultAddress returns the internal custody address funds rest at while a
// transaction is in flight.
func (e *Engine) VaultAddress() [20]byte { return e.vault }

// OperatorAddress is the identity the registry must approve before the
// marketplace may move an asset.
func (e *Engine) OperatorAddress() [20]byte { return e.operator }

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(marketEvent{evt: evt})
}

func (e *Engine) emitAll(evts []*types.Event) {
	for _, evt := range evts {
		e.emit(evt)
	}
}

// begin marks the asset as having an operation in flight and serializes state
// access. The flag is checked before the state lock so a reentrant call made
// from inside an external registry callback fails with ErrOperationInProgress
// instead of deadlocking.
func (e *Engine) begin(asset AssetKey) (func(), error) {
	if e.state == nil {
		return nil, fmt.Errorf("market: state not configured")
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	e.flagMu.Lock()
	if e.inProgress[asset] {
		e.flagMu.Unlock()
		return nil, ErrOperationInProgress
	}
	e.inProgress[asset] = true
	e.flagMu.Unlock()
	e.stateMu.Lock()
	return func() {
		e.stateMu.Unlock()
		e.flagMu.Lock()
		delete(e.inProgress, asset)
		e.flagMu.Unlock()
	}, nil
}

// requireSellerAuthority verifies the claimed owner against the registry and
// confirms the marketplace holds transfer approval. Absence of an explicit
// approval is treated as not approved.
func (e *Engine) requireSellerAuthority(asset AssetKey, claimed [20]byte) error {
	if e.registry == nil {
		return fmt.Errorf("market: registry not configured")
	}
	owner, err := e.registry.OwnerOf(asset)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotOwner, err)
	}
	if owner != claimed {
		return ErrNotOwner
	}
	approved, err := e.registry.IsApprovedForMarketplace(asset, e.operator)
	if err != nil || !approved {
		return ErrNotApproved
	}
	return nil
}

// ListForSale creates a new active sale listing for the asset at the given
// price. The seller must currently own the asset and have approved the
// marketplace, and no other listing may be active.
func (e *Engine) ListForSale(asset AssetKey, seller [20]byte, price *big.Int) (*SaleListing, error) {
	done, err := e.begin(asset)
	if err != nil {
		return nil, err
	}
	defer done()

	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if err := e.requireSellerAuthority(asset, seller); err != nil {
		return nil, err
	}
	st := newStaged(e.state)
	existing, ok, err := st.SaleListingGet(asset)
	if err != nil {
		return nil, err
	}
	if ok && existing.Active {
		return nil, ErrAlreadyListed
	}
	listing := &SaleListing{
		Seller:   seller,
		Price:    cloneBigInt(price),
		ListedAt: e.now(),
		Active:   true,
	}
	if err := st.SaleListingPut(asset, listing); err != nil {
		return nil, err
	}
	if err := st.commit(); err != nil {
		return nil, err
	}
	e.emit(NewSaleListedEvent(asset, listing))
	return listing.Clone(), nil
}

// CancelSale deactivates the caller's active sale listing. Deactivation is
// terminal; relisting creates a fresh record.
func (e *Engine) CancelSale(asset AssetKey, caller [20]byte) error {
	done, err := e.begin(asset)
	if err != nil {
		return err
	}
	defer done()

	st := newStaged(e.state)
	listing, ok, err := st.SaleListingGet(asset)
	if err != nil {
		return err
	}
	if !ok || !listing.Active {
		return ErrNotListed
	}
	if listing.Seller != caller {
		return ErrNotSeller
	}
	listing.Active = false
	if err := st.SaleListingPut(asset, listing); err != nil {
		return err
	}
	if err := st.commit(); err != nil {
		return err
	}
	e.emit(NewSaleCanceledEvent(asset, listing))
	return nil
}

// UpdatePrice changes the price of the caller's active listing in place. The
// original ListedAt timestamp is preserved.
func (e *Engine) UpdatePrice(asset AssetKey, caller [20]byte, newPrice *big.Int) error {
	done, err := e.begin(asset)
	if err != nil {
		return err
	}
	defer done()

	st := newStaged(e.state)
	listing, ok, err := st.SaleListingGet(asset)
	if err != nil {
		return err
	}
	if !ok || !listing.Active {
		return ErrNotListed
	}
	if listing.Seller != caller {
		return ErrNotSeller
	}
	if newPrice == nil || newPrice.Sign() <= 0 {
		return ErrInvalidPrice
	}
	listing.Price = cloneBigInt(newPrice)
	if err := st.SaleListingPut(asset, listing); err != nil {
		return err
	}
	if err := st.commit(); err != nil {
		return err
	}
	e.emit(NewSalePriceUpdatedEvent(asset, listing))
	return nil
}

// Buy fulfils an active sale listing. The payment must match the listing
// price exactly; over- and underpayment are both rejected so no refund path
// exists. Funds settle through the vault with the platform fee routed to the
// treasury, then the asset moves to the buyer. Any failure aborts the whole
// operation with no observable effect.
func (e *Engine) Buy(asset AssetKey, buyer [20]byte, payment *big.Int) error {
	done, err := e.begin(asset)
	if err != nil {
		return err
	}
	defer done()

	st := newStaged(e.state)
	listing, ok, err := st.SaleListingGet(asset)
	if err != nil {
		return err
	}
	if !ok || !listing.Active {
		return ErrNotListed
	}
	if payment == nil || listing.Price.Cmp(payment) != 0 {
		return ErrPaymentMismatch
	}
	if buyer == listing.Seller {
		return ErrSelfPurchase
	}
	// A listing left behind by an off-market ownership change is stale: the
	// recorded seller must still own the asset.
	if err := e.requireSellerAuthority(asset, listing.Seller); err != nil {
		return err
	}
	if err := e.moveFunds(st, buyer, e.vault, payment); err != nil {
		return err
	}
	fee, net, err := e.settle(st, payment, listing.Seller)
	if err != nil {
		return err
	}
	listing.Active = false
	if err := st.SaleListingPut(asset, listing); err != nil {
		return err
	}
	if err := e.bumpSaleStats(st, payment); err != nil {
		return err
	}
	// The ownership transfer runs before commit: a registry refusal aborts the
	// whole purchase with the base state untouched. The registry persists
	// through the same state manager, so a commit fault after a successful
	// transfer means the shared store itself is failing.
	if err := e.registry.TransferFrom(asset, listing.Seller, buyer); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := st.commit(); err != nil {
		return err
	}
	e.emit(NewSoldEvent(asset, listing.Seller, buyer, payment, fee, net))
	return nil
}

// GetSaleListing returns the sale listing for the asset, if one was ever
// created.
func (e *Engine) GetSaleListing(asset AssetKey) (*SaleListing, bool, error) {
	done, err := e.begin(asset)
	if err != nil {
		return nil, false, err
	}
	defer done()
	listing, ok, err := e.state.SaleListingGet(asset)
	if err != nil || !ok {
		return nil, false, err
	}
	return listing.Clone(), true, nil
}

// GetStats returns the marketplace aggregate counters.
func (e *Engine) GetStats() (*Stats, error) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state == nil {
		return nil, fmt.Errorf("market: state not configured")
	}
	stats, err := e.state.StatsGet()
	if err != nil {
		return nil, err
	}
	return EnsureStats(stats).Clone(), nil
}

func (e *Engine) bumpSaleStats(st State, amount *big.Int) error {
	stats, err := st.StatsGet()
	if err != nil {
		return err
	}
	stats = EnsureStats(stats)
	stats.TotalSales++
	stats.TotalVolume = new(big.Int).Add(stats.TotalVolume, amount)
	return st.StatsPut(stats)
}

func (e *Engine) bumpRentalStats(st State, amount *big.Int) error {
	stats, err := st.StatsGet()
	if err != nil {
		return err
	}
	stats = EnsureStats(stats)
	stats.TotalRentals++
	stats.TotalRentalVolume = new(big.Int).Add(stats.TotalRentalVolume, amount)
	return st.StatsPut(stats)
}

// FundAccount credits an account balance. This is the deposit entry point the
// service exposes; the engine itself never mints funds during settlement.
func (e *Engine) FundAccount(addr [20]byte, amount *big.Int) (*types.Account, error) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state == nil {
		return nil, fmt.Errorf("market: state not configured")
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	acc = types.EnsureAccount(acc)
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	if err := e.state.PutAccount(addr, acc); err != nil {
		return nil, err
	}
	return acc.Clone(), nil
}

// AccountBalance returns the funds the marketplace holds for an address.
func (e *Engine) AccountBalance(addr [20]byte) (*big.Int, error) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state == nil {
		return nil, fmt.Errorf("market: state not configured")
	}
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(types.EnsureAccount(acc).Balance), nil
}

// moduleAddress derives a stable internal address from a tag, mirroring how
// chain modules derive vault accounts.
func moduleAddress(tag string) [20]byte {
	digest := ethcrypto.Keccak256([]byte(tag))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}
