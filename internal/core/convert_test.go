package core

import (
	"math"
	"testing"
)

func TestConvertSameCurrencyIsExact(t *testing.T) {
	rates := ExchangeRates{"USD": 1, "EUR": 0.9}
	for _, a := range []float64{0, 0.1, 19.99, 12345.678} {
		if got := Convert(a, "EUR", "EUR", rates); got != a {
			t.Fatalf("Convert(%v, EUR, EUR) = %v, want identical", a, got)
		}
	}
}

func TestConvertViaUSD(t *testing.T) {
	rates := ExchangeRates{"USD": 1, "EUR": 0.5, "KES": 130}
	cases := []struct {
		amount   float64
		src, dst Currency
		want     float64
	}{
		{10, "USD", "EUR", 5},
		{5, "EUR", "USD", 10},
		{1, "USD", "KES", 130},
		{2, "EUR", "KES", 520},
	}
	for _, tc := range cases {
		got := Convert(tc.amount, tc.src, tc.dst, rates)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Convert(%v, %s, %s) = %v, want %v", tc.amount, tc.src, tc.dst, got, tc.want)
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	rates := ExchangeRates{"USD": 1, "EUR": 0.92, "JPY": 149.3}
	a := 54.99
	back := Convert(Convert(a, "EUR", "JPY", rates), "JPY", "EUR", rates)
	if math.Abs(back-a) > 1e-9 {
		t.Fatalf("round trip drifted: %v -> %v", a, back)
	}
}

func TestConvertMissingRateFailsSoft(t *testing.T) {
	rates := ExchangeRates{"USD": 1}
	if got := Convert(42, "USD", "EUR", rates); got != 42 {
		t.Fatalf("missing target rate: got %v, want 42", got)
	}
	if got := Convert(42, "XXX", "USD", rates); got != 42 {
		t.Fatalf("missing source rate: got %v, want 42", got)
	}
	rates["EUR"] = 0
	if got := Convert(42, "USD", "EUR", rates); got != 42 {
		t.Fatalf("zero rate: got %v, want 42", got)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount float64
		code   Currency
		want   string
	}{
		{12.5, "USD", "$12.50"},
		{1200, "KES", "KSh1,200.00"},
		{1999, "EUR", "€1,999.00"},
		{0, "XTS", "XTS0.00"},
		{-42.1, "USD", "$-42.10"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.amount, tc.code); got != tc.want {
			t.Fatalf("FormatAmount(%v, %s) = %q, want %q", tc.amount, tc.code, got, tc.want)
		}
	}
}
