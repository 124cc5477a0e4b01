package registry

import (
	"errors"
	"fmt"
	"time"

	"nsmarket/native/market"
)

// storage abstracts the subset of state manager functionality required by the
// name ledger.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var namePrefix = []byte("registry/name/")

var (
	// ErrNameNotFound marks lookups for names that were never registered.
	ErrNameNotFound = errors.New("registry: name not found")
	// ErrNameTaken is returned when registering an already-owned name.
	ErrNameTaken = errors.New("registry: name already registered")
	// ErrNotAuthorized marks transfer or approval attempts by accounts
	// without authority over the name.
	ErrNotAuthorized = errors.New("registry: caller not authorized")
	// ErrWrongOwner is returned when a transfer names a from address that no
	// longer owns the asset.
	ErrWrongOwner = errors.New("registry: from address is not the owner")
)

type storedName struct {
	Name         string   `json:"name"`
	Owner        [20]byte `json:"owner"`
	Approved     [20]byte `json:"approved"`
	RegisteredAt int64    `json:"registeredAt"`
}

// Ledger is a minimal naming-asset registry: it records who owns each name
// and which single operator, if any, the owner has approved to transfer it.
// The marketplace engine consumes it through the market.Registry interface.
type Ledger struct {
	store storage
	nowFn func() int64
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store storage) *Ledger {
	return &Ledger{
		store: store,
		nowFn: func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the wall clock, primarily for deterministic tests.
func (l *Ledger) SetNowFunc(now func() int64) {
	if l == nil {
		return
	}
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

func nameKey(asset market.AssetKey) []byte {
	return append(append([]byte(nil), namePrefix...), []byte(asset.Hex())...)
}

func (l *Ledger) load(asset market.AssetKey) (*storedName, error) {
	if l == nil || l.store == nil {
		return nil, errors.New("registry: storage unavailable")
	}
	record := &storedName{}
	ok, err := l.store.KVGet(nameKey(asset), record)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNameNotFound
	}
	return record, nil
}

// Register mints a name to the owner and returns its canonical asset key.
func (l *Ledger) Register(name string, owner [20]byte) (market.AssetKey, error) {
	asset, err := market.NewAssetKey(name)
	if err != nil {
		return market.AssetKey{}, err
	}
	if l == nil || l.store == nil {
		return market.AssetKey{}, errors.New("registry: storage unavailable")
	}
	if owner == ([20]byte{}) {
		return market.AssetKey{}, fmt.Errorf("registry: owner address required")
	}
	existing := &storedName{}
	ok, err := l.store.KVGet(nameKey(asset), existing)
	if err != nil {
		return market.AssetKey{}, err
	}
	if ok {
		return market.AssetKey{}, ErrNameTaken
	}
	record := &storedName{
		Name:         name,
		Owner:        owner,
		RegisteredAt: l.nowFn(),
	}
	if err := l.store.KVPut(nameKey(asset), record); err != nil {
		return market.AssetKey{}, err
	}
	return asset, nil
}

// OwnerOf returns the current owner of the asset.
func (l *Ledger) OwnerOf(asset market.AssetKey) ([20]byte, error) {
	record, err := l.load(asset)
	if err != nil {
		return [20]byte{}, err
	}
	return record.Owner, nil
}

// Approve grants a single operator transfer authority over the asset. Only
// the current owner may approve; a zero operator clears any approval.
func (l *Ledger) Approve(asset market.AssetKey, caller, operator [20]byte) error {
	record, err := l.load(asset)
	if err != nil {
		return err
	}
	if record.Owner != caller {
		return ErrNotAuthorized
	}
	record.Approved = operator
	return l.store.KVPut(nameKey(asset), record)
}

// IsApprovedForMarketplace reports whether the operator holds an explicit
// transfer approval for the asset. Absent approval is never inferred.
func (l *Ledger) IsApprovedForMarketplace(asset market.AssetKey, operator [20]byte) (bool, error) {
	record, err := l.load(asset)
	if err != nil {
		return false, err
	}
	if operator == ([20]byte{}) {
		return false, nil
	}
	return record.Approved == operator, nil
}

// TransferFrom moves the asset between owners. The from address must still be
// the owner and an explicit approval must be in place; the approval is
// consumed by the transfer.
func (l *Ledger) TransferFrom(asset market.AssetKey, from, to [20]byte) error {
	record, err := l.load(asset)
	if err != nil {
		return err
	}
	if record.Owner != from {
		return ErrWrongOwner
	}
	if record.Approved == ([20]byte{}) {
		return ErrNotAuthorized
	}
	if to == ([20]byte{}) {
		return fmt.Errorf("registry: recipient address required")
	}
	record.Owner = to
	record.Approved = [20]byte{}
	return l.store.KVPut(nameKey(asset), record)
}

// Name returns the registered display name for an asset key.
func (l *Ledger) Name(asset market.AssetKey) (string, error) {
	record, err := l.load(asset)
	if err != nil {
		return "", err
	}
	return record.Name, nil
}
