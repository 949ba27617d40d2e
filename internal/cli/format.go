// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTokens formats a token count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M", 1234567890 -> "1.2B"
func FormatTokens(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatCost formats a USD cost value.
func FormatCost(cost float64) string {
	return FormatCurrency(cost, "USD")
}

// FormatCurrency formats an amount in the given currency, scaling the
// precision down as the amount grows.
func FormatCurrency(amount float64, currency string) string {
	symbol, suffix := currencySymbol(currency)

	var body string
	switch {
	case amount >= 1000:
		body = FormatNumber(int64(math.Round(amount)))
	case amount >= 100:
		body = fmt.Sprintf("%.0f", amount)
	case amount >= 10:
		body = fmt.Sprintf("%.1f", amount)
	default:
		body = fmt.Sprintf("%.2f", amount)
	}

	if suffix {
		return body + " " + symbol
	}
	return symbol + body
}

// currencySymbol returns the display symbol for a currency code and whether
// it trails the amount. Unknown codes render as a trailing code.
func currencySymbol(currency string) (string, bool) {
	switch strings.ToUpper(currency) {
	case "USD", "":
		return "$", false
	case "EUR":
		return "€", false
	case "GBP":
		return "£", false
	case "JPY":
		return "¥", false
	default:
		return strings.ToUpper(currency), true
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDelta formats a cost delta against a previous value with sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatCost(delta)
	}
	return "-" + FormatCost(-delta)
}

// FormatTrend formats the relative change from previous to current.
// A zero previous value has no meaningful trend and renders as "n/a".
func FormatTrend(current, previous float64) string {
	if previous == 0 {
		return "n/a"
	}
	change := (current - previous) / previous
	if change >= 0 {
		return "+" + FormatPercent(change)
	}
	return "-" + FormatPercent(-change)
}

// EstimateMarker returns the suffix appended to estimated cost figures.
func EstimateMarker(estimated bool) string {
	if estimated {
		return " (est.)"
	}
	return ""
}
