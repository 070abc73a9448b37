// Package core holds the domain model of the ledger together with the pure
// arithmetic that operates on it: currency conversion, schedule labels and
// next-payment selection.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Convert converts amount from src to dst via the USD-relative rate table.
//
// The conversion path is src -> USD -> dst. When src equals dst the amount is
// returned exactly, with no arithmetic applied. When either rate is missing
// or zero the amount is returned unconverted: a stale or partial rate table
// must never prevent a number from being shown.
func Convert(amount float64, src, dst Currency, rates ExchangeRates) float64 {
	if src == dst {
		return amount
	}
	rateSrc := rates[src]
	rateDst := rates[dst]
	if rateSrc == 0 || rateDst == 0 {
		return amount
	}
	return amount / rateSrc * rateDst
}

// symbolOverrides covers currencies whose display symbol is not derivable
// from the code itself.
var symbolOverrides = map[Currency]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"NAD": "N$",
	"ZAR": "R",
	"KES": "KSh",
	"GHS": "GH₵",
	"NGN": "₦",
	"EGP": "E£",
	"SAR": "SR",
	"AED": "د.إ",
	"INR": "₹",
	"ARS": "$",
	"CLP": "$",
	"COP": "$",
	"MXN": "$",
	"PHP": "₱",
}

// Symbol returns the display symbol for a currency code, falling back to the
// code itself when no symbol is known.
func Symbol(code Currency) string {
	if s, ok := symbolOverrides[code]; ok {
		return s
	}
	return string(code)
}

// FormatAmount renders an amount with its currency symbol and two decimals,
// e.g. "$12.50" or "KSh1,200.00".
func FormatAmount(amount float64, code Currency) string {
	return Symbol(code) + groupThousands(strconv.FormatFloat(amount, 'f', 2, 64))
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if frac != "" {
		out = fmt.Sprintf("%s.%s", out, frac)
	}
	if neg {
		return "-" + out
	}
	return out
}
