package entity

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// tickPricePrecision bounds the fractional digits carried while raising
// 1.0001 to a tick exponent; without rounding the representation grows
// without limit.
const tickPricePrecision = 36

// ConvertTokenAmount scales a raw integer token amount into a decimal
// using the token's decimals. Exact (a pure exponent shift).
func ConvertTokenAmount(value *big.Int, decimals uint8) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -int32(decimals))
}

// SafeDiv divides a by b, returning zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// TickPrice computes 1.0001^index by exponentiation by squaring,
// rounding intermediate products to keep digit growth bounded.
func TickPrice(index int32) decimal.Decimal {
	exponent := index
	if exponent < 0 {
		exponent = -exponent
	}

	base := decimal.NewFromFloat(1.0001)
	result := decimal.New(1, 0)
	for exponent > 0 {
		if exponent&1 == 1 {
			result = result.Mul(base).Round(tickPricePrecision)
		}
		base = base.Mul(base).Round(tickPricePrecision)
		exponent >>= 1
	}

	if index < 0 {
		return SafeDiv(decimal.New(1, 0), result)
	}
	return result
}
