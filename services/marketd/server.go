package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"nsmarket/core/events"
	"nsmarket/gateway/middleware"
	nativecommon "nsmarket/native/common"
	"nsmarket/native/market"
	"nsmarket/native/registry"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Server is the HTTP front-end for the marketplace engine.
type Server struct {
	engine   *market.Engine
	ledger   *registry.Ledger
	recorder *events.Recorder
	store    *SQLiteStore
	logger   *slog.Logger
}

// NewServer wires the HTTP layer to the engine and its collaborators. The
// audit store may be nil, in which case auditing is skipped.
func NewServer(engine *market.Engine, ledger *registry.Ledger, recorder *events.Recorder, store *SQLiteStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:   engine,
		ledger:   ledger,
		recorder: recorder,
		store:    store,
		logger:   logger.With(slog.String("component", "server")),
	}
}

// Handler builds the chi router with the supplied middleware stack. Reads and
// writes are throttled as separate rate-limit groups; only writes require
// authentication.
func (s *Server) Handler(auth *middleware.Authenticator, limiter *middleware.RateLimiter, obs *middleware.Observability) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.CORS(middleware.CORSConfig{}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", obs.MetricsHandler())

	r.Group(func(r chi.Router) {
		r.Use(obs.Middleware("market-read"))
		r.Use(limiter.Middleware("market-read"))
		r.Get("/v1/market/stats", s.handleStats)
		r.Get("/v1/market/events", s.handleEvents)
		r.Get("/v1/market/{name}", s.handleAssetView)
		r.Get("/v1/market/{name}/offers", s.handleGetOffers)
		r.Get("/v1/accounts/{addr}", s.handleAccount)
	})

	r.Group(func(r chi.Router) {
		r.Use(obs.Middleware("market-write"))
		r.Use(limiter.Middleware("market-write"))
		r.Use(auth.Middleware())
		r.Post("/v1/registry/register", s.handleRegister)
		r.Post("/v1/registry/{name}/approve", s.handleApprove)
		r.Post("/v1/accounts/{addr}/fund", s.handleFund)
		r.Post("/v1/market/{name}/list", s.handleListForSale)
		r.Delete("/v1/market/{name}/list", s.handleCancelSale)
		r.Patch("/v1/market/{name}/price", s.handleUpdatePrice)
		r.Post("/v1/market/{name}/buy", s.handleBuy)
		r.Post("/v1/market/{name}/rent-list", s.handleListForRent)
		r.Delete("/v1/market/{name}/rent-list", s.handleCancelRental)
		r.Post("/v1/market/{name}/rent", s.handleRent)
		r.Post("/v1/market/{name}/offers", s.handleMakeOffer)
		r.Post("/v1/market/{name}/offers/{id}/withdraw", s.handleWithdrawOffer)
		r.Post("/v1/market/{name}/offers/{id}/accept", s.handleAcceptOffer)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	owner, err := market.ParseAddress(req.Owner)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	asset, err := s.ledger.Register(req.Name, owner)
	if err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusCreated)
	writeJSON(w, http.StatusCreated, map[string]string{
		"asset": asset.Hex(),
		"name":  req.Name,
		"owner": market.FormatAddress(owner),
	})
}

type approveRequest struct {
	Caller   string `json:"caller"`
	Operator string `json:"operator"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	caller, err := market.ParseAddress(req.Caller)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	operator := s.engine.OperatorAddress()
	if strings.TrimSpace(req.Operator) != "" {
		if operator, err = market.ParseAddress(req.Operator); err != nil {
			s.fail(w, r, body, http.StatusBadRequest, err)
			return
		}
	}
	if err := s.ledger.Approve(asset, caller, operator); err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]string{
		"asset":    asset.Hex(),
		"operator": market.FormatAddress(operator),
	})
}

type fundRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	var req fundRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	addr, err := market.ParseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	acc, err := s.engine.FundAccount(addr, amount)
	if err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]string{
		"address": market.FormatAddress(addr),
		"balance": acc.Balance.String(),
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := market.ParseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		s.fail(w, r, nil, http.StatusBadRequest, err)
		return
	}
	balance, err := s.engine.AccountBalance(addr)
	if err != nil {
		s.engineError(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address": market.FormatAddress(addr),
		"balance": balance.String(),
	})
}

type listRequest struct {
	Seller string `json:"seller"`
	Price  string `json:"price"`
}

func (s *Server) handleListForSale(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	seller, err := market.ParseAddress(req.Seller)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	price, err := parseAmount(req.Price)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	listing, err := s.engine.ListForSale(asset, seller, price)
	if err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusCreated)
	writeJSON(w, http.StatusCreated, saleListingView(listing))
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleCancelSale(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	caller, err := market.ParseAddress(req.Caller)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.CancelSale(asset, caller); err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]string{"asset": asset.Hex()})
}

type priceRequest struct {
	Caller string `json:"caller"`
	Price  string `json:"price"`
}

func (s *Server) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	caller, err := market.ParseAddress(req.Caller)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	price, err := parseAmount(req.Price)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.UpdatePrice(asset, caller, price); err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]string{"asset": asset.Hex(), "price": price.String()})
}

type buyRequest struct {
	Buyer   string `json:"buyer"`
	Payment string `json:"payment"`
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	buyer, err := market.ParseAddress(req.Buyer)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.Buy(asset, buyer, payment); err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]string{
		"asset": asset.Hex(),
		"buyer": market.FormatAddress(buyer),
	})
}

type rentListRequest struct {
	Owner       string `json:"owner"`
	PricePerDay string `json:"pricePerDay"`
	MinDays     uint32 `json:"minDays"`
	MaxDays     uint32 `json:"maxDays"`
}

func (s *Server) handleListForRent(w http.ResponseWriter, r *http.Request) {
	var req rentListRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	owner, err := market.ParseAddress(req.Owner)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	price, err := parseAmount(req.PricePerDay)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	listing, err := s.engine.ListForRent(asset, owner, price, req.MinDays, req.MaxDays)
	if err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusCreated)
	writeJSON(w, http.StatusCreated, rentalListingView(listing))
}

func (s *Server) handleCancelRental(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	caller, err := market.ParseAddress(req.Caller)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.CancelRental(asset, caller); err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]string{"asset": asset.Hex()})
}

type rentRequest struct {
	Renter  string `json:"renter"`
	Days    uint32 `json:"days"`
	Payment string `json:"payment"`
}

func (s *Server) handleRent(w http.ResponseWriter, r *http.Request) {
	var req rentRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	renter, err := market.ParseAddress(req.Renter)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	rental, err := s.engine.Rent(asset, renter, req.Days, payment)
	if err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusCreated)
	writeJSON(w, http.StatusCreated, activeRentalView(rental))
}

type offerRequest struct {
	Buyer  string `json:"buyer"`
	Amount string `json:"amount"`
}

func (s *Server) handleMakeOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	buyer, err := market.ParseAddress(req.Buyer)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	offer, err := s.engine.MakeOffer(asset, buyer, amount)
	if err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusCreated)
	writeJSON(w, http.StatusCreated, offerView(offer))
}

func (s *Server) handleWithdrawOffer(w http.ResponseWriter, r *http.Request) {
	s.offerAction(w, r, s.engine.WithdrawOffer)
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	s.offerAction(w, r, s.engine.AcceptOffer)
}

func (s *Server) offerAction(w http.ResponseWriter, r *http.Request, action func(market.AssetKey, uint64, [20]byte) error) {
	var req callerRequest
	body, ok := s.decode(w, r, &req)
	if !ok {
		return
	}
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	offerID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, errors.New("invalid offer id"))
		return
	}
	caller, err := market.ParseAddress(req.Caller)
	if err != nil {
		s.fail(w, r, body, http.StatusBadRequest, err)
		return
	}
	if err := action(asset, offerID, caller); err != nil {
		s.engineError(w, r, body, err)
		return
	}
	s.audit(r, body, http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":   asset.Hex(),
		"offerId": offerID,
	})
}

func (s *Server) handleAssetView(w http.ResponseWriter, r *http.Request) {
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, nil, http.StatusBadRequest, err)
		return
	}
	owner, err := s.ledger.OwnerOf(asset)
	if err != nil {
		s.engineError(w, r, nil, err)
		return
	}
	view := map[string]interface{}{
		"asset": asset.Hex(),
		"owner": market.FormatAddress(owner),
	}
	if name, err := s.ledger.Name(asset); err == nil {
		view["name"] = name
	}
	if listing, ok, err := s.engine.GetSaleListing(asset); err != nil {
		s.engineError(w, r, nil, err)
		return
	} else if ok {
		view["saleListing"] = saleListingView(listing)
	}
	if listing, ok, err := s.engine.GetRentalListing(asset); err != nil {
		s.engineError(w, r, nil, err)
		return
	} else if ok {
		view["rentalListing"] = rentalListingView(listing)
	}
	if rental, ok, err := s.engine.GetActiveRental(asset); err != nil {
		s.engineError(w, r, nil, err)
		return
	} else if ok {
		view["rental"] = activeRentalView(rental)
	}
	escrow, err := s.engine.EscrowedBalance(asset)
	if err != nil {
		s.engineError(w, r, nil, err)
		return
	}
	view["escrowedBalance"] = escrow.String()
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetOffers(w http.ResponseWriter, r *http.Request) {
	asset, err := s.assetParam(r)
	if err != nil {
		s.fail(w, r, nil, http.StatusBadRequest, err)
		return
	}
	offers, err := s.engine.GetOffers(asset)
	if err != nil {
		s.engineError(w, r, nil, err)
		return
	}
	views := make([]map[string]interface{}, 0, len(offers))
	for _, offer := range offers {
		views = append(views, offerView(offer))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":  asset.Hex(),
		"offers": views,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.GetStats()
	if err != nil {
		s.engineError(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalSales":        stats.TotalSales,
		"totalVolume":       stats.TotalVolume.String(),
		"totalRentals":      stats.TotalRentals,
		"totalRentalVolume": stats.TotalRentalVolume.String(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.fail(w, r, nil, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = parsed
	}
	recorded := s.recorder.Events(limit)
	if len(recorded) == 0 && s.store != nil {
		// The in-memory ring starts empty after a restart; fall back to the
		// durable copies the audit store keeps.
		stored, err := s.store.RecentEvents(r.Context(), limit)
		if err != nil {
			s.fail(w, r, nil, http.StatusInternalServerError, err)
			return
		}
		recorded = make([]events.RecordedEvent, len(stored))
		for i, evt := range stored {
			recorded[i] = events.RecordedEvent{
				Sequence:   uint64(evt.ID),
				Type:       evt.Type,
				Attributes: evt.Attributes,
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": recorded,
	})
}

func (s *Server) assetParam(r *http.Request) (market.AssetKey, error) {
	return market.NewAssetKey(chi.URLParam(r, "name"))
}

// decode reads and unmarshals the request body, replying with 400 on failure.
// The raw body is returned for the audit trail.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, out interface{}) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.fail(w, r, nil, http.StatusBadRequest, err)
		return nil, false
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			s.fail(w, r, body, http.StatusBadRequest, err)
			return nil, false
		}
	}
	return body, true
}

func (s *Server) engineError(w http.ResponseWriter, r *http.Request, body []byte, err error) {
	s.fail(w, r, body, statusForError(err), err)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, body []byte, status int, err error) {
	s.audit(r, body, status)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) audit(r *http.Request, body []byte, status int) {
	if s.store == nil || r.Method == http.MethodGet {
		return
	}
	entry := AuditEntry{
		RequestID:      middleware.RequestID(r.Context()),
		Subject:        middleware.Subject(r.Context()),
		Method:         r.Method,
		Path:           r.URL.Path,
		RequestBody:    body,
		ResponseStatus: status,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.store.InsertAuditLog(r.Context(), entry); err != nil {
		s.logger.Warn("audit write failed", slog.String("error", err.Error()))
	}
}

// statusForError maps engine and registry sentinels onto HTTP statuses.
// Unrecognized errors are treated as internal.
func statusForError(err error) int {
	switch {
	case errors.Is(err, market.ErrInvalidAsset),
		errors.Is(err, market.ErrInvalidPrice),
		errors.Is(err, market.ErrInvalidDuration),
		errors.Is(err, market.ErrPaymentMismatch),
		errors.Is(err, market.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrNotOwner),
		errors.Is(err, market.ErrNotSeller),
		errors.Is(err, market.ErrNotApproved),
		errors.Is(err, market.ErrNotOfferBuyer),
		errors.Is(err, registry.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, market.ErrNotListed),
		errors.Is(err, market.ErrOfferNotFound),
		errors.Is(err, registry.ErrNameNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrAlreadyListed),
		errors.Is(err, market.ErrAssetCurrentlyRented),
		errors.Is(err, market.ErrSelfPurchase),
		errors.Is(err, market.ErrOfferExists),
		errors.Is(err, market.ErrOfferNotPending),
		errors.Is(err, market.ErrOperationInProgress),
		errors.Is(err, registry.ErrNameTaken),
		errors.Is(err, registry.ErrWrongOwner):
		return http.StatusConflict
	case errors.Is(err, market.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, errors.New("amount must be a base-10 integer")
	}
	return amount, nil
}

func saleListingView(l *market.SaleListing) map[string]interface{} {
	return map[string]interface{}{
		"seller":   market.FormatAddress(l.Seller),
		"price":    l.Price.String(),
		"listedAt": l.ListedAt,
		"active":   l.Active,
	}
}

func rentalListingView(l *market.RentalListing) map[string]interface{} {
	return map[string]interface{}{
		"owner":           market.FormatAddress(l.Owner),
		"pricePerDay":     l.PricePerDay.String(),
		"minDurationDays": l.MinDurationDays,
		"maxDurationDays": l.MaxDurationDays,
		"listedAt":        l.ListedAt,
		"active":          l.Active,
	}
}

func activeRentalView(rental *market.ActiveRental) map[string]interface{} {
	return map[string]interface{}{
		"renter":    market.FormatAddress(rental.Renter),
		"startTime": rental.StartTime,
		"endTime":   rental.EndTime,
		"totalPaid": rental.TotalPaid.String(),
		"active":    rental.Active,
	}
}

func offerView(offer *market.Offer) map[string]interface{} {
	return map[string]interface{}{
		"id":        offer.ID,
		"buyer":     market.FormatAddress(offer.Buyer),
		"amount":    offer.Amount.String(),
		"createdAt": offer.CreatedAt,
		"status":    offer.Status.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
