/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance/leave accounting engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Attendance:
    POST /api/employees/{id}/clock-in          Record the day's start event
    POST /api/employees/{id}/clock-out         Record an end event, settle accrual
    POST /api/employees/{id}/pings             Append a mid-day GPS ping
    GET  /api/employees/{id}/days/{date}       One day's record
    PUT  /api/employees/{id}/days/{date}/memo  Edit workType/details, re-settle

  Leave:
    POST /api/employees/{id}/vacations         Record interval + ledger debit
    GET  /api/employees/{id}/balance           Formatted balances
    POST /api/employees/{id}/balance/grant     Admin adjustment
    GET  /api/employees/{id}/history           Audit entries, newest first

  Reporting:
    GET  /api/employees/{id}/report/{month}    Monthly aggregate (YYYY-MM)

  Holidays:
    GET/POST /api/holidays, DELETE /api/holidays/{id}

ERROR HANDLING:
  Domain errors map to JSON with appropriate HTTP status:
  - 400: Malformed input (bad clock string, unknown vacation type, no clock-in)
  - 404: Missing day or event
  - 409: Insufficient balance, debit against a missing balance document
  - 500: Storage errors

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/worktime"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    worktime.TxStore
	Recorder *worktime.Recorder
	Ledger   *worktime.Ledger
	Reports  *worktime.Aggregator
}

// NewHandler creates a handler with the engine wired onto the given store.
func NewHandler(store worktime.TxStore) *Handler {
	return &Handler{
		Store:    store,
		Recorder: worktime.NewRecorder(store),
		Ledger:   worktime.NewLedger(store),
		Reports:  worktime.NewAggregator(store),
	}
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// ClockIn records the day's start event. The date defaults to today.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req ClockEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date := dateOrToday(r.URL.Query().Get("date"))
	if err := h.Recorder.ClockIn(r.Context(), employeeID, date, req.toEvent()); err != nil {
		writeDomainError(w, "Failed to clock in", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClockOut records an end event and settles the day's compensatory accrual.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req ClockEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date := dateOrToday(r.URL.Query().Get("date"))
	st, err := h.Recorder.ClockOut(r.Context(), employeeID, date, req.toEvent())
	if err != nil {
		writeDomainError(w, "Failed to clock out", err)
		return
	}

	if st == nil {
		// Event recorded but not settleable (unparseable punch). The record
		// stands; a later memo edit or corrected clock-out settles it.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(st))
}

// RecordPing appends a mid-day GPS ping. No accounting runs.
func (h *Handler) RecordPing(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req ClockEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date := dateOrToday(r.URL.Query().Get("date"))
	if err := h.Recorder.RecordPing(r.Context(), employeeID, date, req.toEvent()); err != nil {
		writeDomainError(w, "Failed to record ping", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDay returns one day's full record.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	date := chi.URLParam(r, "date")

	rec, err := h.Recorder.Day(r.Context(), employeeID, date)
	if err != nil {
		writeDomainError(w, "Failed to get day", err)
		return
	}

	writeJSON(w, http.StatusOK, toDayDTO(date, rec))
}

// EditMemo updates workType/details on one recorded event and re-settles the
// day when the edit can change its accounting.
func (h *Handler) EditMemo(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	date := chi.URLParam(r, "date")

	var req MemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	seq := worktime.Sequence(req.Sequence)
	switch seq {
	case worktime.SeqStart, worktime.SeqGPS, worktime.SeqEnd:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown sequence %q", req.Sequence), nil)
		return
	}

	var workType *worktime.WorkType
	if req.WorkType != nil {
		wt := worktime.WorkType(*req.WorkType)
		workType = &wt
	}

	st, err := h.Recorder.EditMemo(r.Context(), employeeID, date, seq, req.Index, workType, req.Details)
	if err != nil {
		writeDomainError(w, "Failed to edit memo", err)
		return
	}

	if st == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(st))
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// RequestVacation records a leave interval on the day and debits the ledger.
func (h *Handler) RequestVacation(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req VacationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date := dateOrToday(req.Date)
	iv := worktime.VacationInterval{
		Start: req.Start,
		End:   req.End,
		Type:  worktime.VacationType(req.Type),
	}

	m, err := h.Recorder.RequestVacation(r.Context(), employeeID, date, iv)
	if err != nil {
		writeDomainError(w, "Failed to record vacation", err)
		return
	}

	resp := VacationResponse{
		Date:     date,
		Vacation: VacationDTO{Start: iv.Start, End: iv.End, Type: string(iv.Type)},
	}
	if m != nil {
		dto := toMutationDTO(*m)
		resp.Mutation = &dto
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GetBalance returns the formatted balances. A missing document reads as zero.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	b, _, err := h.Ledger.BalanceOf(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceDTO(b))
}

// GrantBalance applies an admin adjustment. This is the only way to create a
// balance document with a credit before any overtime is worked.
func (h *Handler) GrantBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var (
		field    worktime.BalanceField
		amount   decimal.Decimal
		parseErr error
	)
	switch req.Field {
	case "annualLeave", string(worktime.FieldAnnual):
		field = worktime.FieldAnnual
		amount, parseErr = worktime.ParseDays(req.Amount)
	case "compensatoryLeave", string(worktime.FieldCompensatory):
		field = worktime.FieldCompensatory
		amount, parseErr = worktime.ParseHours(req.Amount)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown field %q", req.Field), nil)
		return
	}
	if parseErr != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", parseErr)
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = worktime.ReasonManualGrant
	}

	m, err := h.Ledger.Apply(r.Context(), employeeID, field, amount, reason, nil)
	if err != nil {
		writeDomainError(w, "Failed to apply grant", err)
		return
	}

	writeJSON(w, http.StatusOK, toMutationDTO(m))
}

// GetHistory returns the audit log, newest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	entries, err := h.Ledger.History(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get history", err)
		return
	}

	dtos := make([]HistoryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = HistoryDTO{
			ID:        e.ID,
			Field:     string(e.Field),
			Before:    worktime.FormatBalance(e.Field, e.Before),
			After:     worktime.FormatBalance(e.Field, e.After),
			Change:    worktime.FormatBalance(e.Field, e.Change),
			Reason:    e.Reason,
			Details:   e.Details,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetMonthlyReport returns the month's aggregate. Month is YYYY-MM.
func (h *Handler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	month := chi.URLParam(r, "month")

	t, err := time.Parse("2006-01", month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month format (use YYYY-MM)", err)
		return
	}

	rep, err := h.Reports.Monthly(r.Context(), employeeID, t.Year(), t.Month())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	dto := ReportDTO{
		EmployeeID:       rep.EmployeeID,
		Month:            month,
		Workdays:         rep.Workdays,
		StandardMinutes:  rep.StandardMinutes,
		WorkedMinutes:    rep.WorkedMinutes,
		OvertimeMinutes:  rep.OvertimeMinutes,
		ShortfallMinutes: rep.ShortfallMinutes,
		VacationMinutes:  rep.VacationMinutes,
	}
	if len(rep.VacationByType) > 0 {
		dto.VacationByType = make(map[string]int, len(rep.VacationByType))
		for typ, minutes := range rep.VacationByType {
			dto.VacationByType[string(typ)] = minutes
		}
	}

	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the full calendar, date-ascending.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.Holidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = HolidayDTO{ID: hol.ID, Date: hol.Date, Name: hol.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds one calendar entry.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	hol := worktime.Holiday{ID: uuid.NewString(), Date: req.Date, Name: req.Name}
	if err := h.Store.PutHoliday(r.Context(), hol); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}

	writeJSON(w, http.StatusCreated, HolidayDTO{ID: hol.ID, Date: hol.Date, Name: hol.Name})
}

// DeleteHoliday removes one calendar entry.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func dateOrToday(date string) string {
	if date != "" {
		return date
	}
	return time.Now().Format("2006-01-02")
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	// Balance conflicts before the generic not-found check: a debit against a
	// missing balance document is a 409, not a 404.
	case errors.Is(err, worktime.ErrInsufficientBalance) || errors.Is(err, worktime.ErrBalanceNotFound):
		writeError(w, http.StatusConflict, message, err)
	case worktime.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case worktime.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
