package market

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	secondsPerDay  = 86_400
	maxRentalDays  = 365
	feeDenominator = 10_000
)

// AssetKey is the canonical identifier for a tradable naming-rights asset.
// It is the keccak256 digest of the normalised name, ensuring deterministic,
// collision-free keys without storing the name itself.
type AssetKey [32]byte

// NewAssetKey derives the canonical key for a name. Names are trimmed and
// lowercased before hashing so equivalent spellings map to the same asset.
func NewAssetKey(name string) (AssetKey, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return AssetKey{}, ErrInvalidAsset
	}
	var key AssetKey
	copy(key[:], ethcrypto.Keccak256([]byte(normalized)))
	return key, nil
}

// Hex returns the lowercase hex encoding of the key.
func (k AssetKey) Hex() string { return hex.EncodeToString(k[:]) }

// ParseAddress decodes a 20-byte account address from its hex form. A leading
// "0x" prefix is accepted.
func ParseAddress(raw string) ([20]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	var addr [20]byte
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("market: invalid address %q: %w", raw, err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("market: invalid address length %d", len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}

// FormatAddress renders an address as 0x-prefixed hex.
func FormatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// SaleListing records an active or historical fixed-price sale offer for one
// asset. At most one listing per asset may be active at any time; a cancelled
// or fulfilled listing is terminal and a relist creates a fresh record.
type SaleListing struct {
	Seller   [20]byte `json:"seller"`
	Price    *big.Int `json:"price"`
	ListedAt int64    `json:"listedAt"`
	Active   bool     `json:"active"`
}

// Clone returns a deep copy so callers can mutate the result safely.
func (l *SaleListing) Clone() *SaleListing {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Price = cloneBigInt(l.Price)
	return &clone
}

// RentalListing advertises an asset for time-bounded rental. Duration bounds
// are inclusive day counts, capped at one year.
type RentalListing struct {
	Owner           [20]byte `json:"owner"`
	PricePerDay     *big.Int `json:"pricePerDay"`
	MinDurationDays uint32   `json:"minDurationDays"`
	MaxDurationDays uint32   `json:"maxDurationDays"`
	ListedAt        int64    `json:"listedAt"`
	Active          bool     `json:"active"`
}

// Clone returns a deep copy so callers can mutate the result safely.
func (l *RentalListing) Clone() *RentalListing {
	if l == nil {
		return nil
	}
	clone := *l
	clone.PricePerDay = cloneBigInt(l.PricePerDay)
	return &clone
}

// ActiveRental tracks an in-progress rental session. Expiry is lazy: the
// record stays Active=true in storage until the next operation touching the
// asset observes now >= EndTime and reconciles it.
type ActiveRental struct {
	Renter    [20]byte `json:"renter"`
	StartTime int64    `json:"startTime"`
	EndTime   int64    `json:"endTime"`
	TotalPaid *big.Int `json:"totalPaid"`
	Active    bool     `json:"active"`
}

// Clone returns a deep copy so callers can mutate the result safely.
func (r *ActiveRental) Clone() *ActiveRental {
	if r == nil {
		return nil
	}
	clone := *r
	clone.TotalPaid = cloneBigInt(r.TotalPaid)
	return &clone
}

// OfferStatus enumerates the offer lifecycle.
type OfferStatus uint8

const (
	OfferPending OfferStatus = iota
	OfferAccepted
	OfferWithdrawn
	OfferExpired
)

// Valid reports whether the status value is within the supported range.
func (s OfferStatus) Valid() bool {
	switch s {
	case OfferPending, OfferAccepted, OfferWithdrawn, OfferExpired:
		return true
	default:
		return false
	}
}

// String renders the status for events and API responses.
func (s OfferStatus) String() string {
	switch s {
	case OfferPending:
		return "pending"
	case OfferAccepted:
		return "accepted"
	case OfferWithdrawn:
		return "withdrawn"
	case OfferExpired:
		return "expired"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Offer is an escrowed purchase offer scoped to a single asset. The amount is
// held by the marketplace vault from creation until the offer leaves the
// pending state.
type Offer struct {
	ID        uint64      `json:"id"`
	Buyer     [20]byte    `json:"buyer"`
	Amount    *big.Int    `json:"amount"`
	CreatedAt int64       `json:"createdAt"`
	Status    OfferStatus `json:"status"`
}

// Clone returns a deep copy so callers can mutate the result safely.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Amount = cloneBigInt(o.Amount)
	return &clone
}

// Stats aggregates successful sales and rentals. Counters only ever grow.
type Stats struct {
	TotalSales        uint64   `json:"totalSales"`
	TotalVolume       *big.Int `json:"totalVolume"`
	TotalRentals      uint64   `json:"totalRentals"`
	TotalRentalVolume *big.Int `json:"totalRentalVolume"`
}

// EnsureStats returns a usable stats value with non-nil volume fields.
func EnsureStats(s *Stats) *Stats {
	if s == nil {
		return &Stats{TotalVolume: big.NewInt(0), TotalRentalVolume: big.NewInt(0)}
	}
	if s.TotalVolume == nil {
		s.TotalVolume = big.NewInt(0)
	}
	if s.TotalRentalVolume == nil {
		s.TotalRentalVolume = big.NewInt(0)
	}
	return s
}

// Clone returns a deep copy so callers can mutate the result safely.
func (s *Stats) Clone() *Stats {
	if s == nil {
		return EnsureStats(nil)
	}
	clone := &Stats{TotalSales: s.TotalSales, TotalRentals: s.TotalRentals}
	clone.TotalVolume = cloneBigInt(s.TotalVolume)
	clone.TotalRentalVolume = cloneBigInt(s.TotalRentalVolume)
	return clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
