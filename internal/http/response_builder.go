package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"kas/internal/core"
	"kas/internal/log"
)

type amountJSON struct {
	Value   int64  `json:"value"`
	Display string `json:"display"`
}

type memberJSON struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Division    string            `json:"division"`
	Status      core.MemberStatus `json:"status"`
	JoinDate    core.Date         `json:"joinDate"`
	LastPayment core.Date         `json:"lastPayment,omitzero"`
	PaidUp      bool              `json:"paidUp"`
}

type paymentJSON struct {
	ID         string     `json:"id"`
	MemberID   string     `json:"memberId"`
	MemberName string     `json:"memberName"`
	Division   string     `json:"division"`
	Amount     amountJSON `json:"amount"`
	Date       core.Date  `json:"date"`
	Notes      string     `json:"notes"`
}

type expenseJSON struct {
	ID          string     `json:"id"`
	Category    string     `json:"category"`
	Amount      amountJSON `json:"amount"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
}

type transactionJSON struct {
	ID       string      `json:"id"`
	Type     core.TxType `json:"type"`
	Date     core.Date   `json:"date"`
	Amount   amountJSON  `json:"amount"`
	Title    string      `json:"title"`
	Detail   string      `json:"detail"`
	Summary  string      `json:"summary"`
	MemberID string      `json:"memberId,omitempty"`
	Division string      `json:"division,omitempty"`
}

type settingsJSON struct {
	WeeklyFee amountJSON `json:"weeklyFee"`
	OrgName   string     `json:"orgName"`
}

type errorJSON struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Min   int64  `json:"min,omitempty"`
}

// presenter formats domain values for responses.
type presenter struct {
	currency string
}

func (p presenter) amount(m core.Money) amountJSON {
	return amountJSON{Value: int64(m), Display: m.Display(p.currency)}
}

func (p presenter) member(m core.Member, paidUp bool) memberJSON {
	return memberJSON{
		ID:          m.ID,
		Name:        m.Name,
		Division:    m.Division,
		Status:      m.Status,
		JoinDate:    m.JoinDate,
		LastPayment: m.LastPayment,
		PaidUp:      paidUp,
	}
}

func (p presenter) payment(v core.Payment) paymentJSON {
	return paymentJSON{
		ID:         v.ID,
		MemberID:   v.MemberID,
		MemberName: v.MemberName,
		Division:   v.Division,
		Amount:     p.amount(v.Amount),
		Date:       v.Date,
		Notes:      v.Notes,
	}
}

func (p presenter) expense(v core.Expense) expenseJSON {
	return expenseJSON{
		ID:          v.ID,
		Category:    v.Category,
		Amount:      p.amount(v.Amount),
		Date:        v.Date,
		Description: v.Description,
	}
}

func (p presenter) transactions(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(txs))
	for i, tx := range txs {
		out[i] = transactionJSON{
			ID:       tx.ID,
			Type:     tx.Type,
			Date:     tx.Date,
			Amount:   p.amount(tx.Amount),
			Title:    tx.Title(),
			Detail:   tx.Detail(),
			Summary:  tx.Summary(),
			MemberID: tx.MemberID,
			Division: tx.Division,
		}
	}
	return out
}

func (p presenter) settings(s core.Settings) settingsJSON {
	return settingsJSON{WeeklyFee: p.amount(s.WeeklyFee), OrgName: s.OrgName}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps ledger error kinds to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	fields := log.NewFields().WithError(err).WithOperation(r.Pattern)

	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		logger.DebugContext(ctx, "Rejected request", fields.WithErrorType(log.ErrorTypeValidation).ToSlice()...)
		body := errorJSON{Error: err.Error(), Field: ve.Field}
		if errors.Is(ve.Err, core.ErrAmountBelowFee) {
			body.Min = int64(ve.Min)
		}
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case core.IsImport(err), errors.Is(err, errBadRequest):
		logger.DebugContext(ctx, "Rejected request", fields.WithErrorType(log.ErrorTypeImport).ToSlice()...)
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: err.Error()})
	case core.IsNotFound(err):
		logger.DebugContext(ctx, "Rejected request", fields.WithErrorType(log.ErrorTypeNotFound).ToSlice()...)
		writeJSON(w, http.StatusNotFound, errorJSON{Error: err.Error()})
	case core.IsPersistence(err):
		logger.ErrorContext(ctx, "Ledger could not be saved", fields.WithErrorType(log.ErrorTypePersistence).ToSlice()...)
		writeJSON(w, http.StatusServiceUnavailable, errorJSON{Error: "data could not be saved, please try again"})
	default:
		logger.ErrorContext(ctx, "Unhandled error", fields.WithErrorType(log.ErrorTypeInternal).ToSlice()...)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal error"})
	}
}
