package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HoldService combines everything the hold endpoints need.
type HoldService interface {
	HoldRequester
	HoldCanceller
	HoldExtender
	HoldConfirmer
	AvailabilityReader
}

// AdminService combines everything the admin endpoints need.
type AdminService interface {
	AdminEventService
	AdminClassService
}

// NewRouter wires all endpoints onto a mux router.
func NewRouter(holds HoldService, admin AdminService) *mux.Router {
	r := mux.NewRouter()

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", HealthHandler).Methods(http.MethodGet)

	r.Handle("/holds", HandleRequestHold(holds)).Methods(http.MethodPost)
	r.Handle("/holds/{id}", HandleCancelHold(holds)).Methods(http.MethodDelete)
	r.Handle("/holds/{id}/extend", HandleExtendHold(holds)).Methods(http.MethodPost)
	r.Handle("/holds/{id}/confirm", HandleConfirmHold(holds)).Methods(http.MethodPost)

	r.Handle("/ticket-classes/{id}/availability", HandleGetAvailability(holds)).Methods(http.MethodGet)

	r.Handle("/admin/events", HandleListEvents(admin)).Methods(http.MethodGet)
	r.Handle("/admin/events", HandleCreateEvent(admin)).Methods(http.MethodPost)
	r.Handle("/admin/events/{id}/ticket-classes", HandleListTicketClasses(admin)).Methods(http.MethodGet)
	r.Handle("/admin/events/{id}/ticket-classes", HandleCreateTicketClass(admin)).Methods(http.MethodPost)
	r.Handle("/admin/ticket-classes/{id}/capacity", HandleAdjustCapacity(admin)).Methods(http.MethodPatch)

	return r
}
