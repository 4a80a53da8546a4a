package api

import (
	"log/slog"
	"net/http"

	"rentals/internal/entities"
	"rentals/internal/service"

	"github.com/gorilla/mux"
)

type PaymentMethodHandler struct {
	service *service.PaymentMethodService
	log     *slog.Logger
}

func NewPaymentMethodHandler(svc *service.PaymentMethodService, log *slog.Logger) *PaymentMethodHandler {
	return &PaymentMethodHandler{service: svc, log: log}
}

func (h *PaymentMethodHandler) List(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.List(r.Context(), requestor(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, methods)
}

func (h *PaymentMethodHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req entities.SavePaymentMethodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	pm, err := h.service.Save(r.Context(), requestor(r), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, pm)
}

func (h *PaymentMethodHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SetDefault(r.Context(), requestor(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Default payment method updated"})
}

func (h *PaymentMethodHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), requestor(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
