package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/tickethub/reservation/internal/app"
	"github.com/tickethub/reservation/internal/domain"
)

var validate = validator.New()

// HoldRequester is the minimal interface needed to request a hold.
type HoldRequester interface {
	RequestHold(ctx context.Context, in app.RequestHoldInput) (domain.Hold, error)
}

// HoldCanceller is the minimal interface needed to cancel a hold.
type HoldCanceller interface {
	CancelHold(ctx context.Context, holdID, owner string) error
}

// HoldExtender is the minimal interface needed to extend a hold.
type HoldExtender interface {
	ExtendHold(ctx context.Context, holdID string, ttl time.Duration) (domain.Hold, error)
}

// HandleRequestHold returns an HTTP handler for creating holds.
func HandleRequestHold(svc HoldRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req requestHoldRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
			return
		}

		ttl, ok := parseTTL(w, req.TTL)
		if !ok {
			return
		}

		hold, err := svc.RequestHold(r.Context(), app.RequestHoldInput{
			TicketClassID: req.TicketClassID,
			Quantity:      req.Quantity,
			Owner:         req.Owner,
			TTL:           ttl,
		})
		if err != nil {
			writeHoldError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(newHoldResponse(hold))
	}
}

// HandleCancelHold returns an HTTP handler for cancelling holds.
func HandleCancelHold(svc HoldCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holdID := mux.Vars(r)["id"]
		owner := r.URL.Query().Get("owner")
		if owner == "" {
			writeError(w, http.StatusBadRequest, codeOwnerRequired, domain.ErrOwnerRequired.Error())
			return
		}

		if err := svc.CancelHold(r.Context(), holdID, owner); err != nil {
			writeHoldError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleExtendHold returns an HTTP handler for extending hold expiry.
func HandleExtendHold(svc HoldExtender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holdID := mux.Vars(r)["id"]

		var req extendHoldRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		ttl, ok := parseTTL(w, req.TTL)
		if !ok {
			return
		}

		hold, err := svc.ExtendHold(r.Context(), holdID, ttl)
		if err != nil {
			writeHoldError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newHoldResponse(hold))
	}
}

func writeHoldError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrInvalidQuantity:
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case domain.ErrInvalidID:
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case domain.ErrInvalidTTL:
		writeError(w, http.StatusBadRequest, codeInvalidTTL, err.Error())
	case domain.ErrOwnerRequired:
		writeError(w, http.StatusBadRequest, codeOwnerRequired, err.Error())
	case domain.ErrTicketClassNotFound:
		writeError(w, http.StatusNotFound, codeTicketClassNotFound, err.Error())
	case domain.ErrHoldNotFound:
		writeError(w, http.StatusNotFound, codeHoldNotFound, err.Error())
	case domain.ErrInsufficientInventory:
		writeError(w, http.StatusConflict, codeInsufficientInventory, err.Error())
	case domain.ErrHoldExpired:
		writeError(w, http.StatusConflict, codeHoldExpired, err.Error())
	case domain.ErrHoldAlreadyConfirmed:
		writeError(w, http.StatusConflict, codeHoldAlreadyConfirmed, err.Error())
	case domain.ErrNotOwner:
		writeError(w, http.StatusForbidden, codeNotOwner, err.Error())
	case domain.ErrLockNotAcquired:
		writeError(w, http.StatusServiceUnavailable, codeLockContention, "try again")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseTTL(w http.ResponseWriter, raw string) (time.Duration, bool) {
	if raw == "" {
		return 0, true
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl < 0 {
		writeError(w, http.StatusBadRequest, codeInvalidTTL, "invalid ttl format")
		return 0, false
	}
	return ttl, true
}

type requestHoldRequest struct {
	TicketClassID string `json:"ticket_class_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"required,gt=0"`
	Owner         string `json:"owner" validate:"required"`
	// TTL is a Go duration string, e.g. "15m". Empty means the default.
	TTL string `json:"ttl" validate:"omitempty"`
}

type extendHoldRequest struct {
	TTL string `json:"ttl" validate:"omitempty"`
}

type holdResponse struct {
	ID            string    `json:"id"`
	TicketClassID string    `json:"ticket_class_id"`
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func newHoldResponse(hold domain.Hold) holdResponse {
	return holdResponse{
		ID:            hold.ID,
		TicketClassID: hold.TicketClassID,
		Quantity:      hold.Quantity,
		Status:        string(hold.Status),
		ExpiresAt:     hold.ExpiresAt,
	}
}
