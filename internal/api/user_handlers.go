package api

import (
	"log/slog"
	"net/http"

	"rentals/internal/auth"
	"rentals/internal/dashboard"
	"rentals/internal/entities"
	"rentals/internal/service"

	"github.com/gorilla/mux"
)

type UserBookingHandler struct {
	bookings *service.BookingService
	checkout *service.CheckoutService
	log      *slog.Logger
}

func NewUserBookingHandler(bookings *service.BookingService, checkout *service.CheckoutService, log *slog.Logger) *UserBookingHandler {
	return &UserBookingHandler{bookings: bookings, checkout: checkout, log: log}
}

func (h *UserBookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	booking, err := h.bookings.Create(r.Context(), requestor(r), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// ListBookings returns the caller's bookings, narrowed and ordered by the
// search, status, paymentStatus, sort and order query parameters.
func (h *UserBookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.List(r.Context(), requestor(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	bookings = dashboard.Apply(bookings, dashboardQuery(r))
	writeJSON(w, http.StatusOK, entities.BookingsList{Total: len(bookings), Bookings: bookings})
}

func (h *UserBookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Get(r.Context(), requestor(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *UserBookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var patch entities.BookingPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	booking, err := h.bookings.Update(r.Context(), requestor(r), mux.Vars(r)["id"], &patch)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *UserBookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Cancel(r.Context(), requestor(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *UserBookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.bookings.Delete(r.Context(), requestor(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserBookingHandler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	resp, err := h.checkout.InitiateCheckout(r.Context(), requestor(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserBookingHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := h.checkout.ResolvePaymentStatus(r.Context(), requestor(r), mux.Vars(r)["sessionId"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CheckAvailability quotes a vehicle for ?startDate=&endDate= without booking it.
func (h *UserBookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	availability, err := h.bookings.CheckAvailability(r.Context(), mux.Vars(r)["id"], q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

func dashboardQuery(r *http.Request) dashboard.Query {
	q := r.URL.Query()
	return dashboard.Query{
		Search: q.Get("search"),
		Filter: dashboard.Filter{
			Status:        q.Get("status"),
			PaymentStatus: q.Get("paymentStatus"),
		},
		Sort: dashboard.Sort{
			Field:     q.Get("sort"),
			Direction: dashboard.ParseDirection(q.Get("order")),
		},
	}
}

func requestor(r *http.Request) entities.Requestor {
	req, _ := auth.RequestorFromContext(r.Context())
	return req
}
