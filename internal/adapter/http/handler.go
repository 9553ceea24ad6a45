package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/internal/metrics"
	"currency-rates-service/pkg/logger"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type rateResponse struct {
	Pair        string    `json:"pair"`
	Rate        float64   `json:"rate"`
	ReverseRate float64   `json:"reverse_rate,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type updateRequest struct {
	Sources []string `json:"sources,omitempty"`
}

type schedulerResponse struct {
	Running bool `json:"running"`
	Changed bool `json:"changed"`
}

type Handler struct {
	rates     ports.RateQuery
	updater   ports.Updater
	scheduler ports.Scheduler
	store     ports.RatesStore
	status    func() *model.Status
	log       *logger.Logger
	metrics   *metrics.Metrics
}

func NewHandler(
	rates ports.RateQuery,
	updater ports.Updater,
	scheduler ports.Scheduler,
	store ports.RatesStore,
	status func() *model.Status,
	log *logger.Logger,
	metrics *metrics.Metrics,
) *Handler {
	return &Handler{
		rates:     rates,
		updater:   updater,
		scheduler: scheduler,
		store:     store,
		status:    status,
		log:       log,
		metrics:   metrics,
	}
}

func (h *Handler) GetRateHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.RateQueriesTotal.Inc()

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	if from == "" || to == "" {
		h.sendErrorResponse(w, http.StatusBadRequest, "missing required parameters: from and to")
		return
	}

	ctx := r.Context()
	quote, err := h.rates.GetRate(ctx, from, to)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := rateResponse{
		Pair:      quote.Pair.Key(),
		Rate:      quote.Rate,
		UpdatedAt: quote.UpdatedAt,
	}
	// The reverse quote is informational; its absence is not an error.
	if reverse, err := h.rates.GetRate(ctx, to, from); err == nil {
		resp.ReverseRate = reverse.Rate
	}

	h.sendSuccessResponse(w, resp)
}

func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	h.metrics.UpdateRequestsTotal.Inc()

	// An empty body means "all sources"; anything else malformed is a
	// caller mistake.
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.sendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.updater.RunUpdate(r.Context(), req.Sources)
	if err != nil {
		// The result still carries the per-source breakdown.
		h.log.Error("Manual update failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(Response{Success: false, Data: result, Error: err.Error()})
		return
	}

	h.sendSuccessResponse(w, result)
}

func (h *Handler) StartSchedulerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	changed := h.scheduler.Start()
	h.sendSuccessResponse(w, schedulerResponse{Running: h.scheduler.Running(), Changed: changed})
}

func (h *Handler) StopSchedulerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	changed := h.scheduler.Stop()
	h.sendSuccessResponse(w, schedulerResponse{Running: h.scheduler.Running(), Changed: changed})
}

func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.StatusRequestsTotal.Inc()
	h.sendSuccessResponse(w, h.status())
}

func (h *Handler) JournalHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.LoadJournal()
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			h.sendErrorResponse(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		if limit < len(records) {
			records = records[len(records)-limit:]
		}
	}

	h.sendSuccessResponse(w, records)
}

func (h *Handler) sendSuccessResponse(w http.ResponseWriter, data interface{}) {
	response := Response{
		Success: true,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := Response{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode error response", "error", err)
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errorMessage := "internal server error"

	switch {
	case errors.Is(err, model.ErrInvalidCurrency):
		statusCode = http.StatusBadRequest
		errorMessage = err.Error()
	case errors.Is(err, model.ErrRateUnavailable):
		statusCode = http.StatusNotFound
		errorMessage = err.Error()
	case errors.Is(err, model.ErrSourceUnavailable):
		statusCode = http.StatusServiceUnavailable
		errorMessage = "external sources unavailable"
	case errors.Is(err, model.ErrPersistence):
		statusCode = http.StatusInternalServerError
		errorMessage = "storage failure"
	}

	h.log.Error("Service error", "error", err, "status_code", statusCode)
	h.sendErrorResponse(w, statusCode, errorMessage)
}
