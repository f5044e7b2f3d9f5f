package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"kas/internal/core"
	"kas/internal/log"
)

const (
	defaultActivity = 10
	maxActivity     = 100
	defaultDays     = 7
	maxDays         = 366
)

type memberRequest struct {
	Name     string `json:"name"`
	Division string `json:"division"`
}

type paymentRequest struct {
	MemberID string      `json:"memberId"`
	Amount   amountInput `json:"amount"`
	Date     string      `json:"date"`
	Notes    string      `json:"notes"`
}

type expenseRequest struct {
	Category    string      `json:"category"`
	Amount      amountInput `json:"amount"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
}

type settingsRequest struct {
	WeeklyFee amountInput `json:"weeklyFee"`
	OrgName   *string     `json:"orgName"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "revision": s.book.Revision()})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	state := s.book.Snapshot()
	totals := state.DashboardTotals()
	writeJSON(w, http.StatusOK, map[string]any{
		"orgName":   state.Settings.OrgName,
		"weeklyFee": s.present.amount(state.Settings.WeeklyFee),
		"income":    s.present.amount(totals.Income),
		"expense":   s.present.amount(totals.Expense),
		"balance":   s.present.amount(totals.Balance),
		"members":   totals.Members,
		"unpaid":    len(state.UnpaidActiveMembers(s.book.Now())),
	})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	n, err := parseIntParam(r.URL.Query(), "n", defaultActivity, 1, maxActivity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	feed := s.book.Snapshot().ActivityFeed(n)
	writeJSON(w, http.StatusOK, map[string]any{"items": s.present.transactions(feed)})
}

type seriesPoint struct {
	Date    core.Date  `json:"date"`
	Income  amountJSON `json:"income"`
	Expense amountJSON `json:"expense"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	days, err := parseIntParam(r.URL.Query(), "days", defaultDays, 1, maxDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	series := s.book.Snapshot().DailySeries(days, core.DateOf(s.book.Now()))
	points := make([]seriesPoint, len(series.Days))
	for i, day := range series.Days {
		points[i] = seriesPoint{
			Date:    day,
			Income:  s.present.amount(series.Income[i]),
			Expense: s.present.amount(series.Expense[i]),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": points})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := strings.ToLower(strings.TrimSpace(q.Get("status")))
	now := s.book.Now()

	var keep func(core.Member) bool
	switch status {
	case "", core.FilterAll:
		keep = func(core.Member) bool { return true }
	case core.FilterPaid:
		keep = func(m core.Member) bool { return m.IsActive() && core.IsPaidUp(m, now) }
	case core.FilterUnpaid:
		keep = func(m core.Member) bool { return m.IsActive() && !core.IsPaidUp(m, now) }
	default:
		writeError(w, r, badRequest("status must be all, paid or unpaid"))
		return
	}

	out := []memberJSON{}
	for _, m := range s.book.Snapshot().SearchMembers(q.Get("q")) {
		if keep(m) {
			out = append(out, s.present.member(m, core.IsPaidUp(m, now)))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (s *Server) handleUnpaidMembers(w http.ResponseWriter, r *http.Request) {
	unpaid := s.book.Snapshot().UnpaidActiveMembers(s.book.Now())
	out := make([]memberJSON, len(unpaid))
	for i, m := range unpaid {
		out[i] = s.present.member(m, false)
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := s.book.UpsertMember(r.Context(), "", sanitizeInput(req.Name), sanitizeInput(req.Division))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.present.member(m, core.IsPaidUp(m, s.book.Now())))
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.book.Snapshot().Member(id); !ok {
		writeError(w, r, &core.NotFoundError{Kind: "member", ID: id})
		return
	}
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := s.book.UpsertMember(r.Context(), id, sanitizeInput(req.Name), sanitizeInput(req.Division))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.present.member(m, core.IsPaidUp(m, s.book.Now())))
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.book.DeleteMember(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.money("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.book.RecordPayment(r.Context(), strings.TrimSpace(req.MemberID), amount, date, sanitizeInput(req.Notes))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.present.payment(p))
}

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.money("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.book.RecordExpense(r.Context(), sanitizeInput(req.Category), amount, date, sanitizeInput(req.Description))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.present.expense(e))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses := s.book.Snapshot().ExpensesByDate()
	out := make([]expenseJSON, len(expenses))
	for i, e := range expenses {
		out[i] = s.present.expense(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": out})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type")))
	switch filter {
	case "":
		filter = core.FilterAll
	case core.FilterAll, core.FilterIncome, core.FilterExpense:
	default:
		writeError(w, r, badRequest("type must be all, income or expense"))
		return
	}
	txs := s.book.Snapshot().Transactions(filter)
	writeJSON(w, http.StatusOK, map[string]any{"transactions": s.present.transactions(txs)})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.book.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reportJSON struct {
	Start   core.Date  `json:"start"`
	End     core.Date  `json:"end"`
	Income  amountJSON `json:"income"`
	Expense amountJSON `json:"expense"`
	Balance amountJSON `json:"balance"`
	Count   int        `json:"count"`
}

// handleReport sums a date range, both ends included. The range defaults to
// the current month up to today.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := core.DateOf(s.book.Now())
	start, err := parseDateField("start", q.Get("start"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseDateField("end", q.Get("end"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if start.IsEmpty() {
		start = core.NewDate(today.Year(), int(today.Month()), 1)
	}
	if end.IsEmpty() {
		end = today
	}
	if end.Compare(start) < 0 {
		writeError(w, r, &core.ValidationError{Field: "end", Err: fmt.Errorf("end %s is before start %s", end, start)})
		return
	}

	state, revision := s.book.View()
	key := fmt.Sprintf("%d|%s|%s", revision, start, end)
	totals, hit := s.reports.Get(key)
	s.metrics.CacheLookup(hit)
	if !hit {
		totals = state.ReportTotals(start, end)
		s.reports.Set(key, totals)
	}

	writeJSON(w, http.StatusOK, reportJSON{
		Start:   totals.Start,
		End:     totals.End,
		Income:  s.present.amount(totals.Income),
		Expense: s.present.amount(totals.Expense),
		Balance: s.present.amount(totals.Balance),
		Count:   totals.Count,
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.present.settings(s.book.Snapshot().Settings))
}

// handleUpdateSettings keeps the current value of any field left out of the
// body.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	current := s.book.Snapshot().Settings
	fee := current.WeeklyFee
	if req.WeeklyFee.set {
		var err error
		if fee, err = req.WeeklyFee.money("weeklyFee"); err != nil {
			writeError(w, r, err)
			return
		}
	}
	orgName := current.OrgName
	if req.OrgName != nil {
		orgName = sanitizeInput(*req.OrgName)
	}
	updated, err := s.book.UpdateSettings(r.Context(), fee, orgName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.present.settings(updated))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc := s.book.ExportAll()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.book.ImportAll(r.Context(), data); err != nil {
		writeError(w, r, err)
		return
	}
	state := s.book.Snapshot()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Ledger imported",
		"members", len(state.Members), "payments", len(state.Payments), "expenses", len(state.Expenses))
	writeJSON(w, http.StatusOK, map[string]any{
		"members":  len(state.Members),
		"payments": len(state.Payments),
		"expenses": len(state.Expenses),
		"imported": s.book.Now().UTC(),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.book.ResetAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.present.settings(s.book.Snapshot().Settings))
}
