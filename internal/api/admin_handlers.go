package api

import (
	"log/slog"
	"net/http"

	"rentals/internal/dashboard"
	"rentals/internal/entities"
	"rentals/internal/service"

	"github.com/gorilla/mux"
)

type AdminHandler struct {
	service *service.AdminService
	log     *slog.Logger
}

func NewAdminHandler(svc *service.AdminService, log *slog.Logger) *AdminHandler {
	return &AdminHandler{service: svc, log: log}
}

// ListBookings returns every booking. ?status narrows the query in the
// database; the dashboard parameters then apply as for customers.
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	query := dashboardQuery(r)
	status := query.Filter.Status
	if status == dashboard.All {
		status = ""
	}
	bookings, err := h.service.ListAllBookings(r.Context(), status)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	bookings = dashboard.Apply(bookings, query)
	writeJSON(w, http.StatusOK, entities.BookingsList{Total: len(bookings), Bookings: bookings})
}

func (h *AdminHandler) SetBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req entities.OperationalStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	booking, err := h.service.SetOperationalStatus(r.Context(), requestor(r), mux.Vars(r)["id"], &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
