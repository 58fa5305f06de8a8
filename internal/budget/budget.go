// Package budget computes trip totals for the calculator page.
package budget

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	xcurrency "github.com/exploremore-ph/exploremore/internal/currency"
)

var ErrNegative = errors.New("budget values must not be negative")

// Input amounts are PHP.
type Input struct {
	StayDuration   float64 `json:"stayDuration" validate:"gte=0,lte=366"`
	Accommodation  float64 `json:"accommodationCost" validate:"gte=0"`
	Transportation float64 `json:"transportationBudget" validate:"gte=0"`
	Food           float64 `json:"foodBudget" validate:"gte=0"`
	Other          float64 `json:"otherCosts" validate:"gte=0"`
	Currency       string  `json:"currency"`
}

type Result struct {
	TotalPHP  float64 `json:"total_php"`
	Total     float64 `json:"total"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
	Rate      float64 `json:"rate"`
	Source    string  `json:"source"`
}

// TotalPHP is nights times the nightly rate plus the one-off amounts.
func TotalPHP(in Input) float64 {
	return in.StayDuration*in.Accommodation + in.Transportation + in.Food + in.Other
}

// Calculate converts the PHP total into in.Currency (PHP when empty).
func Calculate(in Input, rates xcurrency.Rates) (Result, error) {
	if in.StayDuration < 0 || in.Accommodation < 0 || in.Transportation < 0 || in.Food < 0 || in.Other < 0 {
		return Result{}, ErrNegative
	}
	code := strings.ToUpper(strings.TrimSpace(in.Currency))
	if code == "" {
		code = xcurrency.Base
	}
	rate, err := rates.Rate(code)
	if err != nil {
		return Result{}, err
	}
	php := TotalPHP(in)
	total := php * rate
	formatted, err := Format(total, code)
	if err != nil {
		return Result{}, err
	}
	return Result{
		TotalPHP:  php,
		Total:     total,
		Currency:  code,
		Formatted: formatted,
		Rate:      rate,
		Source:    rates.Source,
	}, nil
}

var printer = message.NewPrinter(language.AmericanEnglish)

// Format renders amount as en-US money: symbol, grouping and the
// currency's standard number of decimals.
func Format(amount float64, code string) (string, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%w: %s", xcurrency.ErrUnsupportedCurrency, code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	sym := printer.Sprint(currency.Symbol(unit))
	return sym + printer.Sprint(number.Decimal(amount, number.Scale(scale))), nil
}
