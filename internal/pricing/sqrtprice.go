package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"

	"poolLedger/internal/entity"
)

// pricePrecision is the fractional precision carried through sqrt-price
// ratio division.
const pricePrecision = 36

var one = decimal.New(1, 0)

// SqrtPriceX96ToTokenPrices converts a pool's Q64.96 sqrt price into the
// pair of decimal-adjusted token prices. token0Price is the amount of
// token0 equal to one token1; token1Price is its reciprocal.
func SqrtPriceX96ToTokenPrices(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) (decimal.Decimal, decimal.Decimal) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() == 0 {
		return decimal.Zero, decimal.Zero
	}

	// ratio = sqrtPrice^2 / 2^192, shifted by the decimal difference.
	num := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	denom := new(big.Int).Lsh(big.NewInt(1), 192)

	price1 := decimal.NewFromBigInt(num, int32(decimals0)).
		DivRound(decimal.NewFromBigInt(denom, int32(decimals1)), pricePrecision)
	price0 := entity.SafeDiv(one, price1)
	return price0, price1
}
