/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  Defines the JSON shapes exchanged with clients. Balances cross this
  boundary as suffixed strings ("12일", "3.5시간"); everything behind it is
  decimal arithmetic. The suffix never survives past this file.

SEE ALSO:
  - handlers.go: handlers that produce/consume these
  - worktime/codec.go: the suffix codec
*/
package api

import (
	"github.com/warp/attendance-engine/worktime"
)

// ErrorResponse is the standard error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// ClockEventRequest is the body of clock-in, clock-out, and ping calls.
type ClockEventRequest struct {
	Clock         string `json:"clock"`
	GPSCoordinate string `json:"gpsCoordinate,omitempty"`
	Address       string `json:"address,omitempty"`
	WorkType      string `json:"workType,omitempty"`
	Details       string `json:"details,omitempty"`
}

func (r ClockEventRequest) toEvent() worktime.AttendanceEvent {
	return worktime.AttendanceEvent{
		Clock:         r.Clock,
		GPSCoordinate: r.GPSCoordinate,
		Address:       r.Address,
		WorkType:      worktime.WorkType(r.WorkType),
		Details:       r.Details,
	}
}

// SettlementDTO reports what a clock-out (or a re-settling memo edit) did.
type SettlementDTO struct {
	Duration      string        `json:"duration"`      // "8시간 30분"
	StoredMinutes int           `json:"storedMinutes"` // capped on remote days
	AccruedHours  string        `json:"accruedHours"`  // "1.5시간"
	ClawbackHours string        `json:"clawbackHours"` // "1시간", zero if none
	Mutations     []MutationDTO `json:"mutations,omitempty"`
}

// MutationDTO is one balance change, formatted in the field's unit.
type MutationDTO struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
	Change string `json:"change"`
}

func toMutationDTO(m worktime.Mutation) MutationDTO {
	return MutationDTO{
		Field:  string(m.Field),
		Before: worktime.FormatBalance(m.Field, m.Before),
		After:  worktime.FormatBalance(m.Field, m.After),
		Change: worktime.FormatBalance(m.Field, m.Change),
	}
}

func toSettlementDTO(st *worktime.Settlement) *SettlementDTO {
	if st == nil {
		return nil
	}
	dto := &SettlementDTO{
		Duration:      st.Duration.String(),
		StoredMinutes: st.StoredMinutes,
		AccruedHours:  worktime.FormatHours(st.AccruedHours),
		ClawbackHours: worktime.FormatHours(st.ClawbackHours),
	}
	for _, m := range st.Mutations {
		dto.Mutations = append(dto.Mutations, toMutationDTO(m))
	}
	return dto
}

// MemoRequest edits workType/details on one recorded event. Nil fields are
// left untouched.
type MemoRequest struct {
	Sequence string  `json:"sequence"` // "start" | "gps" | "end"
	Index    int     `json:"index"`
	WorkType *string `json:"workType,omitempty"`
	Details  *string `json:"details,omitempty"`
}

// EventDTO is one attendance event as stored.
type EventDTO struct {
	Clock           string `json:"clock"`
	GPSCoordinate   string `json:"gpsCoordinate,omitempty"`
	Address         string `json:"address,omitempty"`
	WorkType        string `json:"workType,omitempty"`
	Details         string `json:"details,omitempty"`
	DurationMinutes *int   `json:"durationMinutes,omitempty"`
}

// DayDTO is one employee-day.
type DayDTO struct {
	Date              string        `json:"date"`
	Start             []EventDTO    `json:"start,omitempty"`
	GPS               []EventDTO    `json:"gps,omitempty"`
	End               []EventDTO    `json:"end,omitempty"`
	Vacations         []VacationDTO `json:"vacations,omitempty"`
	DailyCompensatory string        `json:"dailyCompensatory"`
}

func toDayDTO(date string, rec *worktime.DailyRecord) DayDTO {
	dto := DayDTO{
		Date:              date,
		Start:             toEventDTOs(rec.Start),
		GPS:               toEventDTOs(rec.GPS),
		End:               toEventDTOs(rec.End),
		DailyCompensatory: worktime.FormatHours(rec.DailyCompensatory),
	}
	for _, iv := range rec.Vacations {
		dto.Vacations = append(dto.Vacations, VacationDTO{Start: iv.Start, End: iv.End, Type: string(iv.Type)})
	}
	return dto
}

func toEventDTOs(evs []worktime.AttendanceEvent) []EventDTO {
	var out []EventDTO
	for _, ev := range evs {
		out = append(out, EventDTO{
			Clock:           ev.Clock,
			GPSCoordinate:   ev.GPSCoordinate,
			Address:         ev.Address,
			WorkType:        string(ev.WorkType),
			Details:         ev.Details,
			DurationMinutes: ev.DurationMinutes,
		})
	}
	return out
}

// =============================================================================
// VACATIONS AND BALANCES
// =============================================================================

// VacationRequest records one leave interval on a day and debits the ledger.
type VacationRequest struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
	Type  string `json:"type"`
}

// VacationDTO is a stored interval.
type VacationDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Type  string `json:"type"`
}

// VacationResponse is the interval plus the ledger mutation it caused, if any.
type VacationResponse struct {
	Date     string       `json:"date"`
	Vacation VacationDTO  `json:"vacation"`
	Mutation *MutationDTO `json:"mutation,omitempty"`
}

// BalanceDTO carries the suffixed-string encodings clients expect.
type BalanceDTO struct {
	AnnualLeave       string `json:"annualLeave"`       // "12일"
	CompensatoryLeave string `json:"compensatoryLeave"` // "3.5시간"
}

func toBalanceDTO(b worktime.Balance) BalanceDTO {
	return BalanceDTO{
		AnnualLeave:       worktime.FormatDays(b.Annual),
		CompensatoryLeave: worktime.FormatHours(b.Compensatory),
	}
}

// GrantRequest is an admin balance adjustment. Amount uses the suffixed
// encoding of the target field and may be negative.
type GrantRequest struct {
	Field  string `json:"field"`  // "annualLeave" | "compensatoryLeave"
	Amount string `json:"amount"` // "15일" / "-1.5시간"
	Reason string `json:"reason,omitempty"`
}

// HistoryDTO is one audit entry.
type HistoryDTO struct {
	ID        string            `json:"id"`
	Field     string            `json:"field"`
	Before    string            `json:"before"`
	After     string            `json:"after"`
	Change    string            `json:"change"`
	Reason    string            `json:"reason"`
	Details   map[string]string `json:"details,omitempty"`
	CreatedAt string            `json:"createdAt"`
}

// =============================================================================
// REPORTS AND HOLIDAYS
// =============================================================================

// ReportDTO is the monthly aggregate.
type ReportDTO struct {
	EmployeeID       string         `json:"employeeId"`
	Month            string         `json:"month"` // YYYY-MM
	Workdays         int            `json:"workdays"`
	StandardMinutes  int            `json:"standardMinutes"`
	WorkedMinutes    int            `json:"workedMinutes"`
	OvertimeMinutes  int            `json:"overtimeMinutes"`
	ShortfallMinutes int            `json:"shortfallMinutes"`
	VacationMinutes  int            `json:"vacationMinutes"`
	VacationByType   map[string]int `json:"vacationByType,omitempty"`
}

// HolidayDTO is one calendar entry.
type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"` // YYYY-MM-DD
	Name string `json:"name"`
}

// CreateHolidayRequest adds a holiday; the ID is assigned server-side.
type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}
