package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/worktime/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(store.NewMemory()), logger))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// =============================================================================
// ATTENDANCE FLOW
// =============================================================================

func TestClockInAndOut_AccruesOvertime(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/employees/emp-1"

	resp := doJSON(t, http.MethodPost, base+"/clock-in?date=2026-03-10", api.ClockEventRequest{
		Clock:         "오전 9:30:00",
		GPSCoordinate: "37.5665,126.9780",
		WorkType:      "내근",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, base+"/clock-out?date=2026-03-10", api.ClockEventRequest{
		Clock:    "오후 8:00:00",
		WorkType: "내근",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st api.SettlementDTO
	decodeInto(t, resp, &st)
	assert.Equal(t, "8시간 30분", st.Duration)
	assert.Equal(t, 510, st.StoredMinutes)
	assert.Equal(t, "1.5시간", st.AccruedHours)
	assert.Equal(t, "0시간", st.ClawbackHours)
	require.Len(t, st.Mutations, 1)
	assert.Equal(t, "1.5시간", st.Mutations[0].After)

	resp = doJSON(t, http.MethodGet, base+"/balance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var b api.BalanceDTO
	decodeInto(t, resp, &b)
	assert.Equal(t, "0일", b.AnnualLeave)
	assert.Equal(t, "1.5시간", b.CompensatoryLeave)
}

func TestClockOut_WithoutClockIn_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/clock-out?date=2026-03-10", api.ClockEventRequest{
		Clock: "오후 6:30:00",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetDay_Missing_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/days/2026-03-10", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditMemo_UnknownSequence_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/employees/emp-1/days/2026-03-10/memo", api.MemoRequest{
		Sequence: "middle",
		Index:    0,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEditMemo_SwitchToRemote_Resettles(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/employees/emp-1"

	resp := doJSON(t, http.MethodPost, base+"/clock-in?date=2026-03-10", api.ClockEventRequest{Clock: "오전 9:30:00"})
	resp.Body.Close()
	resp = doJSON(t, http.MethodPost, base+"/clock-out?date=2026-03-10", api.ClockEventRequest{
		Clock: "오후 8:00:00", WorkType: "내근",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	remote := "재택"
	resp = doJSON(t, http.MethodPut, base+"/days/2026-03-10/memo", api.MemoRequest{
		Sequence: "end",
		Index:    0,
		WorkType: &remote,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st api.SettlementDTO
	decodeInto(t, resp, &st)
	assert.Equal(t, 300, st.StoredMinutes, "remote day stores at most 5 hours")

	resp = doJSON(t, http.MethodGet, base+"/balance", nil)
	var b api.BalanceDTO
	decodeInto(t, resp, &b)
	assert.Equal(t, "0시간", b.CompensatoryLeave, "accrual reversed, clawback floored at zero")
}

// =============================================================================
// LEAVE FLOW
// =============================================================================

func TestVacation_InsufficientBalance_Conflict(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/vacations", api.VacationRequest{
		Date: "2026-03-12", Start: "09:30", End: "18:30", Type: "종일연차",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGrantThenVacation_DebitsAnnual(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/employees/emp-1"

	resp := doJSON(t, http.MethodPost, base+"/balance/grant", api.GrantRequest{
		Field: "annualLeave", Amount: "15일", Reason: "입사 연차 부여",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m api.MutationDTO
	decodeInto(t, resp, &m)
	assert.Equal(t, "15일", m.After)

	// An unparseable full-day interval still debits exactly one day.
	resp = doJSON(t, http.MethodPost, base+"/vacations", api.VacationRequest{
		Date: "2026-03-12", Start: "", End: "", Type: "종일연차",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var vr api.VacationResponse
	decodeInto(t, resp, &vr)
	require.NotNil(t, vr.Mutation)
	assert.Equal(t, "14일", vr.Mutation.After)

	resp = doJSON(t, http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hist []api.HistoryDTO
	decodeInto(t, resp, &hist)
	require.Len(t, hist, 2)
	assert.Equal(t, "휴가 사용", hist[0].Reason, "newest first")
	assert.Equal(t, "입사 연차 부여", hist[1].Reason)
}

func TestGrant_UnknownField_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/balance/grant", api.GrantRequest{
		Field: "sickLeave", Amount: "3일",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVacation_UnknownType_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/vacations", api.VacationRequest{
		Date: "2026-03-12", Start: "14:00", End: "16:00", Type: "안식년",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// REPORTS AND HOLIDAYS
// =============================================================================

func TestMonthlyReport(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/employees/emp-1"

	resp := doJSON(t, http.MethodPost, base+"/clock-in?date=2026-03-10", api.ClockEventRequest{Clock: "오전 9:30:00"})
	resp.Body.Close()
	resp = doJSON(t, http.MethodPost, base+"/clock-out?date=2026-03-10", api.ClockEventRequest{
		Clock: "오후 6:30:00", WorkType: "내근",
	})
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, base+"/report/2026-03", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rep api.ReportDTO
	decodeInto(t, resp, &rep)
	assert.Equal(t, "2026-03", rep.Month)
	assert.Equal(t, 22, rep.Workdays)
	assert.Equal(t, 22*420, rep.StandardMinutes)
	assert.Equal(t, 420, rep.WorkedMinutes)
	assert.Equal(t, 21*420, rep.ShortfallMinutes)
}

func TestMonthlyReport_BadMonth(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/report/March-2026", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHolidays_CRUD(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL + "/api/holidays"

	resp := doJSON(t, http.MethodPost, url, api.CreateHolidayRequest{Date: "2026-05-05", Name: "어린이날"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created api.HolidayDTO
	decodeInto(t, resp, &created)
	require.NotEmpty(t, created.ID)

	resp = doJSON(t, http.MethodGet, url, nil)
	var list []api.HolidayDTO
	decodeInto(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "어린이날", list[0].Name)

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/%s", url, created.ID), nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, url, nil)
	decodeInto(t, resp, &list)
	assert.Empty(t, list)
}

func TestHolidays_BadDate(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/holidays", api.CreateHolidayRequest{Date: "05/05/2026", Name: "x"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
