package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/auth"
	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/core/service"
)

var (
	errInvalidBody   = errors.New("invalid request body")
	errInvalidItemID = errors.New("invalid item id")
)

type HTTPHandler struct {
	ledger   *service.LedgerService
	wallets  *service.WalletService
	verifier *auth.Verifier
	logger   *zap.Logger
	faucet   bool
}

type CreateItemHTTPRequest struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Quantity uint64 `json:"quantity"`
	Price    uint64 `json:"price"`
}

type UpdateQuantityHTTPRequest struct {
	Quantity uint64 `json:"quantity"`
}

type PurchaseHTTPRequest struct {
	RequestID string          `json:"request_id"`
	Quantity  uint64          `json:"quantity"`
	Seller    domain.Identity `json:"seller"`
}

type DepositHTTPRequest struct {
	Amount uint64 `json:"amount"`
}

type HTTPResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Error    string           `json:"error,omitempty"`
	Item     *domain.Item     `json:"item,omitempty"`
	Items    []domain.Item    `json:"items,omitempty"`
	Receipt  *domain.Receipt  `json:"receipt,omitempty"`
	Receipts []domain.Receipt `json:"receipts,omitempty"`
	Balance  *uint64          `json:"balance,omitempty"`
}

func NewHTTPHandler(ledger *service.LedgerService, wallets *service.WalletService, verifier *auth.Verifier, logger *zap.Logger, faucet bool) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		ledger:   ledger,
		wallets:  wallets,
		verifier: verifier,
		logger:   logger,
		faucet:   faucet,
	}
}

// Routes builds the HTTP API. An empty origin list disables CORS handling.
func (h *HTTPHandler) Routes(corsOrigins []string) http.Handler {
	standard := alice.New(h.recoverPanic, h.logRequest, secureHeaders, makeResponseJSON)
	signed := standard.Append(h.requireSigner)

	mux := pat.New()
	mux.Get("/health", standard.ThenFunc(h.HealthCheck))

	mux.Get("/api/items", standard.ThenFunc(h.ListItems))
	mux.Post("/api/items", signed.ThenFunc(h.CreateItem))
	mux.Get("/api/items/:id/receipts", standard.ThenFunc(h.ListReceipts))
	mux.Put("/api/items/:id/quantity", signed.ThenFunc(h.UpdateQuantity))
	mux.Post("/api/items/:id/purchase", signed.ThenFunc(h.Purchase))
	mux.Get("/api/items/:id", standard.ThenFunc(h.GetItem))
	mux.Del("/api/items/:id", signed.ThenFunc(h.DeleteItem))

	mux.Get("/api/wallets/:owner", standard.ThenFunc(h.Balance))
	if h.faucet {
		mux.Post("/api/wallets/:owner/deposit", standard.ThenFunc(h.Deposit))
	}

	if len(corsOrigins) == 0 {
		return mux
	}
	c := cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(mux)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.ledger.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HTTPResponse{Success: true, Items: items})
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HTTPResponse{Success: true, Item: item})
}

func (h *HTTPHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	receipts, err := h.ledger.Receipts(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HTTPResponse{Success: true, Receipts: receipts})
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, errInvalidBody.Error(), service.KindInvalidInput)
		return
	}

	item, err := h.ledger.Create(r.Context(), signerFrom(r), req.ID, req.Name, req.Quantity, req.Price)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, HTTPResponse{
		Success: true,
		Message: "item created",
		Item:    item,
	})
}

func (h *HTTPHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, errInvalidBody.Error(), service.KindInvalidInput)
		return
	}

	item, err := h.ledger.UpdateQuantity(r.Context(), signerFrom(r), id, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HTTPResponse{
		Success: true,
		Message: "quantity updated",
		Item:    item,
	})
}

func (h *HTTPHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req PurchaseHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, errInvalidBody.Error(), service.KindInvalidInput)
		return
	}

	receipt, err := h.ledger.Purchase(r.Context(), service.PurchaseRequest{
		RequestID: req.RequestID,
		ItemID:    id,
		Quantity:  req.Quantity,
		Buyer:     signerFrom(r),
		Seller:    req.Seller,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HTTPResponse{
		Success: true,
		Message: "purchase completed",
		Receipt: receipt,
	})
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.ledger.Delete(r.Context(), signerFrom(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HTTPResponse{Success: true, Message: "item deleted"})
}

func (h *HTTPHandler) Balance(w http.ResponseWriter, r *http.Request) {
	owner, err := domain.ParseIdentity(r.URL.Query().Get(":owner"))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error(), service.KindInvalidInput)
		return
	}

	balance, err := h.wallets.Balance(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HTTPResponse{Success: true, Balance: &balance})
}

func (h *HTTPHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	owner, err := domain.ParseIdentity(r.URL.Query().Get(":owner"))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error(), service.KindInvalidInput)
		return
	}

	var req DepositHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, errInvalidBody.Error(), service.KindInvalidInput)
		return
	}

	balance, err := h.wallets.Deposit(r.Context(), owner, req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HTTPResponse{
		Success: true,
		Message: "deposit completed",
		Balance: &balance,
	})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.ErrorKind(err)
	status := statusForKind(kind)

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		message = "internal error"
	}
	writeFailure(w, status, message, kind)
}

func statusForKind(kind string) int {
	switch kind {
	case service.KindInvalidPrice, service.KindInvalidQuantity, service.KindInvalidAmount, service.KindInvalidInput:
		return http.StatusBadRequest
	case service.KindUnauthorizedAccess:
		return http.StatusForbidden
	case service.KindItemNotFound:
		return http.StatusNotFound
	case service.KindInsufficientQuantity, service.KindItemExists, service.KindDuplicateRequest, service.KindConflict:
		return http.StatusConflict
	case service.KindInsufficientFunds:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func itemID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.URL.Query().Get(":id"), 10, 64)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, errInvalidItemID.Error(), service.KindInvalidInput)
		return 0, false
	}
	return id, true
}

func writeFailure(w http.ResponseWriter, status int, message, kind string) {
	writeJSON(w, status, HTTPResponse{
		Success: false,
		Message: message,
		Error:   kind,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
