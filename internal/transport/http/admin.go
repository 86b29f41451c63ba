package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tickethub/reservation/internal/app"
	"github.com/tickethub/reservation/internal/domain"
)

// AdminEventService is the minimal interface needed for admin event endpoints.
type AdminEventService interface {
	CreateEvent(ctx context.Context, in app.CreateEventInput) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
}

// AdminClassService is the minimal interface needed for admin ticket-class endpoints.
type AdminClassService interface {
	CreateTicketClass(ctx context.Context, in app.CreateTicketClassInput) (domain.TicketClass, error)
	ListTicketClasses(ctx context.Context, eventID string) ([]domain.TicketClass, error)
	AdjustCapacity(ctx context.Context, ticketClassID string, totalCapacity int) error
}

// HandleListEvents returns an HTTP handler for listing events.
func HandleListEvents(svc AdminEventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.ListEvents(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		resp := make([]eventResponse, 0, len(events))
		for _, event := range events {
			resp = append(resp, newEventResponse(event))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleCreateEvent returns an HTTP handler for creating an event.
func HandleCreateEvent(svc AdminEventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEventRequest
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

		var startsAt *time.Time
		if req.StartsAt != "" {
			parsed, err := time.Parse(time.RFC3339, req.StartsAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidStartsAt, "invalid starts_at format")
				return
			}
			startsAt = &parsed
		}

		event, err := svc.CreateEvent(r.Context(), app.CreateEventInput{
			Name:     req.Name,
			StartsAt: startsAt,
		})
		if err != nil {
			writeAdminError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(newEventResponse(event))
	}
}

// HandleListTicketClasses returns an HTTP handler for listing an event's ticket classes.
func HandleListTicketClasses(svc AdminClassService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := mux.Vars(r)["id"]

		classes, err := svc.ListTicketClasses(r.Context(), eventID)
		if err != nil {
			writeAdminError(w, err)
			return
		}
		resp := make([]ticketClassResponse, 0, len(classes))
		for _, class := range classes {
			resp = append(resp, newTicketClassResponse(class))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleCreateTicketClass returns an HTTP handler for creating a ticket class.
func HandleCreateTicketClass(svc AdminClassService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := mux.Vars(r)["id"]

		var req createTicketClassRequest
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

		class, err := svc.CreateTicketClass(r.Context(), app.CreateTicketClassInput{
			EventID:       eventID,
			Name:          req.Name,
			TotalCapacity: req.TotalCapacity,
		})
		if err != nil {
			writeAdminError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(newTicketClassResponse(class))
	}
}

// HandleAdjustCapacity returns an HTTP handler for changing a class's total capacity.
func HandleAdjustCapacity(svc AdminClassService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID := mux.Vars(r)["id"]

		var req adjustCapacityRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		if err := svc.AdjustCapacity(r.Context(), classID, req.TotalCapacity); err != nil {
			writeAdminError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeAdminError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrEventNameRequired:
		writeError(w, http.StatusBadRequest, codeEventNameRequired, err.Error())
	case domain.ErrClassNameRequired:
		writeError(w, http.StatusBadRequest, codeClassNameRequired, err.Error())
	case domain.ErrInvalidCapacity:
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
	case domain.ErrInvalidID:
		writeError(w, http.StatusNotFound, codeInvalidID, err.Error())
	case domain.ErrEventNotFound:
		writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
	case domain.ErrTicketClassNotFound:
		writeError(w, http.StatusNotFound, codeTicketClassNotFound, err.Error())
	case domain.ErrClassAlreadyExists:
		writeError(w, http.StatusConflict, codeClassAlreadyExists, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type createEventRequest struct {
	Name     string `json:"name" validate:"required"`
	StartsAt string `json:"starts_at,omitempty" validate:"omitempty"`
}

type eventResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	StartsAt time.Time `json:"starts_at"`
}

func newEventResponse(event domain.Event) eventResponse {
	return eventResponse{
		ID:       event.ID,
		Name:     event.Name,
		StartsAt: event.StartsAt,
	}
}

type createTicketClassRequest struct {
	Name          string `json:"name" validate:"required"`
	TotalCapacity int    `json:"total_capacity" validate:"required,gt=0"`
}

type adjustCapacityRequest struct {
	TotalCapacity int `json:"total_capacity"`
}

type ticketClassResponse struct {
	ID            string `json:"id"`
	EventID       string `json:"event_id"`
	Name          string `json:"name"`
	TotalCapacity int    `json:"total_capacity"`
	SoldCount     int    `json:"sold_count"`
}

func newTicketClassResponse(class domain.TicketClass) ticketClassResponse {
	return ticketClassResponse{
		ID:            class.ID,
		EventID:       class.EventID,
		Name:          class.Name,
		TotalCapacity: class.TotalCapacity,
		SoldCount:     class.SoldCount,
	}
}
