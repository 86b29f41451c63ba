package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// AvailabilityReader is the minimal interface needed to read availability.
type AvailabilityReader interface {
	GetAvailability(ctx context.Context, ticketClassID string) (int, error)
}

// HandleGetAvailability returns an HTTP handler reporting a class's remaining capacity.
func HandleGetAvailability(svc AvailabilityReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID := mux.Vars(r)["id"]

		available, err := svc.GetAvailability(r.Context(), classID)
		if err != nil {
			writeHoldError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(availabilityResponse{
			TicketClassID: classID,
			Available:     available,
		})
	}
}

type availabilityResponse struct {
	TicketClassID string `json:"ticket_class_id"`
	Available     int    `json:"available"`
}
