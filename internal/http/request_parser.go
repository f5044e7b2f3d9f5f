package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"kas/internal/core"
)

// maxBodyBytes caps JSON request bodies, import documents included.
const maxBodyBytes = 10 << 20

// errBadRequest marks malformed requests that never reached the ledger.
var errBadRequest = errors.New("bad request")

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }
func (e *badRequestError) Unwrap() error { return errBadRequest }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a JSON object body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// readBody returns the raw request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, badRequest("read body: %v", err)
	}
	return data, nil
}

// amountInput accepts a JSON number or a string such as "Rp 2.000".
type amountInput struct {
	set   bool
	value core.Money
	err   error
}

func (a *amountInput) UnmarshalJSON(b []byte) error {
	a.set = true
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			a.err = core.ErrInvalidAmount
			return nil
		}
		a.value, a.err = core.ParseAmount(s)
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || v <= 0 {
		a.err = core.ErrInvalidAmount
		return nil
	}
	a.value = core.Money(v)
	return nil
}

// money returns the parsed amount or a validation error for field.
func (a amountInput) money(field string) (core.Money, error) {
	if !a.set || a.err != nil {
		return 0, &core.ValidationError{Field: field, Err: core.ErrInvalidAmount}
	}
	return a.value, nil
}

// parseDateField parses an optional YYYY-MM-DD value. Empty gives the zero
// date, which the ledger treats as today.
func parseDateField(field, s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

// parseIntParam reads an integer query parameter clamped to [lo, hi].
func parseIntParam(q url.Values, key string, def, lo, hi int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("%s must be an integer", key)
	}
	return min(max(n, lo), hi), nil
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
