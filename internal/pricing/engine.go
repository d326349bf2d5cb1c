package pricing

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units.
type Money = int64

const basisPoints = 10000

// ErrAmountOutOfRange is returned when a total does not fit in Money.
var ErrAmountOutOfRange = errors.New("pricing: amount out of range")

var (
	maxMoney = decimal.NewFromInt(math.MaxInt64)
	minMoney = decimal.NewFromInt(math.MinInt64)
)

// Item describes a line item used for pricing calculation. UnitPrice includes tax.
type Item struct {
	Qty       int64
	UnitPrice Money
}

// Breakdown splits a tax-inclusive amount into its net and tax parts.
type Breakdown struct {
	Gross Money
	Net   Money
	Tax   Money
}

// Subtotal sums quantity times unit price over items, skipping non-positive
// quantities. The sum is exact; ErrAmountOutOfRange reports a total that
// cannot be represented in minor units.
func Subtotal(items []Item) (Money, error) {
	total := decimal.Zero
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		total = total.Add(decimal.NewFromInt(it.Qty).Mul(decimal.NewFromInt(it.UnitPrice)))
	}
	if total.GreaterThan(maxMoney) || total.LessThan(minMoney) {
		return 0, ErrAmountOutOfRange
	}
	return total.IntPart(), nil
}

// SplitInclusive derives the tax-exclusive amount and tax from a gross amount
// at taxBps basis points. Net is rounded half away from zero and tax absorbs
// the remainder, so Net+Tax always equals Gross.
func SplitInclusive(gross Money, taxBps int64) Breakdown {
	if taxBps <= 0 {
		return Breakdown{Gross: gross, Net: gross}
	}
	net := decimal.NewFromInt(gross).
		Mul(decimal.NewFromInt(basisPoints)).
		Div(decimal.NewFromInt(basisPoints + taxBps)).
		Round(0).
		IntPart()
	return Breakdown{Gross: gross, Net: net, Tax: gross - net}
}
