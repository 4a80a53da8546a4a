package api

import (
	"log/slog"
	"net/http"

	"rentals/internal/entities"
	"rentals/internal/service"

	"github.com/gorilla/mux"
)

// FleetHandler serves the public catalogue and its admin maintenance routes.
type FleetHandler struct {
	service *service.FleetService
	log     *slog.Logger
}

func NewFleetHandler(svc *service.FleetService, log *slog.Logger) *FleetHandler {
	return &FleetHandler{service: svc, log: log}
}

func (h *FleetHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.service.ListBranches(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, branches)
}

func (h *FleetHandler) GetBranch(w http.ResponseWriter, r *http.Request) {
	branch, err := h.service.GetBranch(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, branch)
}

func (h *FleetHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.service.ListVehicles(r.Context(), r.URL.Query().Get("branchId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (h *FleetHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.service.GetVehicle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (h *FleetHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req entities.BranchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	branch, err := h.service.CreateBranch(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, branch)
}

func (h *FleetHandler) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	var req entities.BranchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	branch, err := h.service.UpdateBranch(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, branch)
}

func (h *FleetHandler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBranch(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FleetHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req entities.VehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	vehicle, err := h.service.CreateVehicle(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}
