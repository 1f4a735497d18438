package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/lendex/emi-engine/internal/domain"
	"github.com/lendex/emi-engine/internal/service"
	apperrors "github.com/lendex/emi-engine/pkg/errors"
	"github.com/lendex/emi-engine/pkg/response"
)

type ScheduleHandler struct {
	service   *service.ScheduleService
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewScheduleHandler(service *service.ScheduleService, logger *logrus.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// obligationType maps the URL collection segment (loans, emis) onto the
// domain obligation type.
func obligationType(r *http.Request) string {
	if mux.Vars(r)["kind"] == "emis" {
		return domain.ObligationTypeEMI
	}
	return domain.ObligationTypeLoan
}

// GetSchedule handles GET /{kind}/{id}/schedule
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	resp, err := h.service.GetSchedule(r.Context(), obligationType(r), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, resp)
}

// ListPayments handles GET /{kind}/{id}/payments
func (h *ScheduleHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	records, err := h.service.ListPayments(r.Context(), obligationType(r), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, records)
}

// CreatePayment handles POST /{kind}/{id}/payments
func (h *ScheduleHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req domain.CreatePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.service.CreatePayment(r.Context(), obligationType(r), id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, record)
}

// RecordFullPayment handles POST /{kind}/{id}/schedule/full
func (h *ScheduleHandler) RecordFullPayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req domain.RecordFullPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.RecordFullPayment(r.Context(), obligationType(r), id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, resp)
}

// RecordPartialPayment handles POST /{kind}/{id}/schedule/partial
func (h *ScheduleHandler) RecordPartialPayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req domain.RecordPartialPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.RecordPartialPayment(r.Context(), obligationType(r), id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, resp)
}

// GetOutstanding handles GET /{kind}/{id}/outstanding
func (h *ScheduleHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	resp, err := h.service.GetOutstanding(r.Context(), obligationType(r), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, resp)
}

// Reminders handles GET /reminders
func (h *ScheduleHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.OverdueSnapshots(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, alerts)
}

func (h *ScheduleHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "request validation failed", err)
		return false
	}
	return true
}

func (h *ScheduleHandler) writeError(w http.ResponseWriter, err error) {
	var bizErr *apperrors.BusinessError
	if !errors.As(err, &bizErr) {
		h.logger.WithError(err).Error("unexpected error")
		response.InternalServerError(w, "internal error", err)
		return
	}

	switch bizErr.Code {
	case apperrors.ErrCodeObligationNotFound:
		response.NotFound(w, bizErr.Message)
	case apperrors.ErrCodeInvalidObligation,
		apperrors.ErrCodeInvalidAmount,
		apperrors.ErrCodeInvalidDate,
		apperrors.ErrCodeUseFullPaymentInstead,
		apperrors.ErrCodeBucketOutOfRange:
		response.BadRequest(w, bizErr.Message, bizErr.Err)
	case apperrors.ErrCodeBucketAlreadyPaid,
		apperrors.ErrCodeOverpayNotConfirmed:
		response.Error(w, http.StatusConflict, bizErr.Message, bizErr.Err)
	case apperrors.ErrCodeNetworkFailure:
		response.Error(w, http.StatusBadGateway, bizErr.Message, bizErr.Err)
	default:
		h.logger.WithError(err).Error("request failed")
		response.InternalServerError(w, bizErr.Message, bizErr.Err)
	}
}
