package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tickethub/reservation/internal/domain"
)

// HoldConfirmer is the minimal interface needed to confirm a hold.
type HoldConfirmer interface {
	ConfirmHold(ctx context.Context, holdID string) (domain.Sale, error)
}

// HandleConfirmHold returns an HTTP handler for confirming a hold into a sale.
func HandleConfirmHold(svc HoldConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holdID := mux.Vars(r)["id"]

		sale, err := svc.ConfirmHold(r.Context(), holdID)
		if err != nil {
			writeHoldError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(saleResponse{
			ID:            sale.ID,
			TicketClassID: sale.TicketClassID,
			HoldID:        sale.HoldID,
			Quantity:      sale.Quantity,
			CommittedAt:   sale.CommittedAt,
		})
	}
}

type saleResponse struct {
	ID            string    `json:"id"`
	TicketClassID string    `json:"ticket_class_id"`
	HoldID        string    `json:"hold_id"`
	Quantity      int       `json:"quantity"`
	CommittedAt   time.Time `json:"committed_at"`
}
