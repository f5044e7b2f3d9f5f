// Package core provides the ledger domain types and their derived views.
//
// This file contains amount parsing and display helpers. Amounts are whole
// currency units (the organization keeps its books in rupiah) so no minor
// unit is stored.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
)

// Money is an amount in whole currency units.
type Money int64

func (m Money) Validate() error {
	if m <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParseAmount converts user input such as "2000", "2.000", "Rp 12,500" to Money.
//
// Dots and commas are accepted only as thousands separators (groups of three
// digits). Signs, fractions and zero are rejected.
//
// Examples:
//
//	ParseAmount("2000")      -> 2000, nil
//	ParseAmount("Rp 2.000")  -> 2000, nil
//	ParseAmount("12,500")    -> 12500, nil
//	ParseAmount("2.5")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Rp")
	s = strings.TrimPrefix(s, "rp")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}

	groups := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == ',' })
	if len(groups) == 0 || strings.Count(s, ".")+strings.Count(s, ",") != len(groups)-1 {
		return 0, ErrInvalidAmount
	}
	if len(groups) > 1 {
		// 1-3 leading digits, then exact groups of three.
		if len(groups[0]) > 3 {
			return 0, ErrInvalidAmount
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return 0, ErrInvalidAmount
			}
		}
	}
	digits := strings.Join(groups, "")
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return Money(v), nil
}

// Display formats the amount for the given ISO 4217 currency code using the
// currency's grapheme and separators. Unknown codes fall back to the plain
// integer.
func (m Money) Display(currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return strconv.FormatInt(int64(m), 10)
	}
	minor := int64(m)
	for i := 0; i < cur.Fraction; i++ {
		minor *= 10
	}
	return money.New(minor, cur.Code).Display()
}
