package entity

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvertTokenAmount(t *testing.T) {
	amount := ConvertTokenAmount(big.NewInt(1500000), 6)
	if !amount.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("amount = %s", amount)
	}

	negative := ConvertTokenAmount(big.NewInt(-25), 1)
	if !negative.Equal(decimal.RequireFromString("-2.5")) {
		t.Fatalf("negative amount = %s", negative)
	}

	raw := ConvertTokenAmount(big.NewInt(42), 0)
	if !raw.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("zero-decimals amount = %s", raw)
	}

	if !ConvertTokenAmount(nil, 18).IsZero() {
		t.Fatalf("nil amount must convert to zero")
	}
}

func TestSafeDiv(t *testing.T) {
	if !SafeDiv(decimal.NewFromInt(10), decimal.Zero).IsZero() {
		t.Fatalf("division by zero must yield zero")
	}
	quotient := SafeDiv(decimal.NewFromInt(10), decimal.NewFromInt(4))
	if !quotient.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("quotient = %s", quotient)
	}
}

func TestTickPrice(t *testing.T) {
	if !TickPrice(0).Equal(decimal.New(1, 0)) {
		t.Fatalf("tick 0 price = %s", TickPrice(0))
	}
	if !TickPrice(1).Equal(decimal.RequireFromString("1.0001")) {
		t.Fatalf("tick 1 price = %s", TickPrice(1))
	}
	if !TickPrice(2).Equal(decimal.RequireFromString("1.00020001")) {
		t.Fatalf("tick 2 price = %s", TickPrice(2))
	}

	// Positive and negative exponents are reciprocal to within roundoff.
	product := TickPrice(-100).Mul(TickPrice(100))
	diff := product.Sub(decimal.New(1, 0)).Abs()
	if diff.GreaterThan(decimal.New(1, -12)) {
		t.Fatalf("reciprocal drift = %s", diff)
	}

	// Monotonic in the index.
	if !TickPrice(60).GreaterThan(TickPrice(0)) || !TickPrice(-60).LessThan(TickPrice(0)) {
		t.Fatalf("tick price must increase with the index")
	}
}

func TestTickIDAndIntervalID(t *testing.T) {
	if got := TickID("0xabc", -60); got != "0xabc#-60" {
		t.Fatalf("tick id = %s", got)
	}
	if got := IntervalID("0xabc", PeriodHour, 1700000000); got != "0xabc-3600-1700000000" {
		t.Fatalf("interval id = %s", got)
	}
	if got := PeriodStart(1700000181, PeriodFiveMinutes); got != 1700000100 {
		t.Fatalf("period start = %d", got)
	}
}
