package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/busanbank/live-support-api/config"
	"github.com/busanbank/live-support-api/coordination"
)

// Consultant exposes the availability endpoints for consultants
type Consultant struct {
	Pool coordination.ConsultantPool
}

type consultantStatusResponse struct {
	ConsultantID string `json:"consultantId"`
	Status       string `json:"status"`
	Load         int64  `json:"load"`
}

// ReadyHandler marks a consultant available for assignment
func (c Consultant) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	consultantID := mux.Vars(r)["consultant_id"]

	if err := c.Pool.MarkReady(r.Context(), consultantID); err != nil {
		config.ErrorStatus("failed to mark consultant ready", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("consultant ready", "consultantId", consultantID)
	writeJSON(w, http.StatusOK, consultantStatusResponse{
		ConsultantID: consultantID,
		Status:       coordination.ConsultantReady,
	})
}

// OfflineHandler takes a consultant out of rotation
func (c Consultant) OfflineHandler(w http.ResponseWriter, r *http.Request) {
	consultantID := mux.Vars(r)["consultant_id"]

	if err := c.Pool.MarkOffline(r.Context(), consultantID); err != nil {
		config.ErrorStatus("failed to mark consultant offline", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("consultant offline", "consultantId", consultantID)
	writeJSON(w, http.StatusOK, consultantStatusResponse{
		ConsultantID: consultantID,
		Status:       coordination.ConsultantOffline,
	})
}

// ConsultantByIDHandler returns a consultant's availability and load
func (c Consultant) ConsultantByIDHandler(w http.ResponseWriter, r *http.Request) {
	consultantID := mux.Vars(r)["consultant_id"]

	status, err := c.Pool.Status(r.Context(), consultantID)
	if err != nil {
		config.ErrorStatus("failed to read consultant status", http.StatusInternalServerError, w, err)
		return
	}
	load, err := c.Pool.Load(r.Context(), consultantID)
	if err != nil {
		config.ErrorStatus("failed to read consultant load", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, consultantStatusResponse{
		ConsultantID: consultantID,
		Status:       status,
		Load:         load,
	})
}

// ReadyConsultantsHandler lists ready consultants, longest idle first
func (c Consultant) ReadyConsultantsHandler(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	ids, err := c.Pool.Ready(r.Context(), limit)
	if err != nil {
		config.ErrorStatus("failed to list ready consultants", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}
