// Copyright (c) 2024 Neomantra Corp
//
// Fixed-precision Price and Quantity.
//
// Both are integer-backed: a scaled integer plus a decimal precision,
// rather than a fixed scale or a float. Parsing happens once at the
// boundary (from_str/from_float); all further computation stays in scaled
// integers; string formatting happens once more at the boundary
// (String/to_str).

package tradecore

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// MaxPrecision is the binding numeric limit from the external-interfaces
// section: price and quantity precision must not exceed 9 decimal places.
const MaxPrecision uint8 = 9

var pow10 = [MaxPrecision + 1]int64{
	1, 10, 100, 1_000, 10_000, 100_000,
	1_000_000, 10_000_000, 100_000_000, 1_000_000_000,
}

func scaleFactor(precision uint8) (int64, error) {
	if precision > MaxPrecision {
		return 0, unexpectedPrecisionError(precision)
	}
	return pow10[precision], nil
}

///////////////////////////////////////////////////////////////////////////////
// Price

// Price is a signed fixed-point decimal: raw/10^precision.
type Price struct {
	raw       int64
	precision uint8
}

// NewPriceFromRaw builds a Price directly from its scaled integer form.
func NewPriceFromRaw(raw int64, precision uint8) (Price, error) {
	if precision > MaxPrecision {
		return Price{}, unexpectedPrecisionError(precision)
	}
	return Price{raw: raw, precision: precision}, nil
}

// PriceFromStr parses a displayed decimal string, e.g. "1.2345", into a
// Price at the precision implied by the number of digits after the point.
func PriceFromStr(s string) (Price, error) {
	raw, precision, err := parseScaledDecimal(s)
	if err != nil {
		return Price{}, err
	}
	return NewPriceFromRaw(raw, precision)
}

// PriceFromFloat rounds v to precision decimal places using round-half-to-even.
func PriceFromFloat(v float64, precision uint8) (Price, error) {
	factor, err := scaleFactor(precision)
	if err != nil {
		return Price{}, err
	}
	raw, err := roundHalfToEven(v * float64(factor))
	if err != nil {
		return Price{}, err
	}
	return NewPriceFromRaw(raw, precision)
}

func (p Price) Raw() int64      { return p.raw }
func (p Price) Precision() uint8 { return p.precision }

func (p Price) IsZero() bool { return p.raw == 0 }

// AsFloat64 returns an approximate float64 view of the price, used for
// display and for figures that tolerate float error (value-bar
// thresholds, the mid-quote size, realized return); prices and money
// themselves are computed on the scaled integers.
func (p Price) AsFloat64() float64 {
	factor, _ := scaleFactor(p.precision)
	return float64(p.raw) / float64(factor)
}

func (p Price) String() string {
	return formatScaled(p.raw, p.precision)
}

// rescaleInt64 returns raw scaled to the target precision, erroring on overflow.
func rescaleInt64(raw int64, from, to uint8) (int64, error) {
	if from == to {
		return raw, nil
	}
	if to > from {
		factor, err := scaleFactor(to - from)
		if err != nil {
			return 0, err
		}
		result := raw * factor
		if factor != 0 && result/factor != raw {
			return 0, ErrQuantityOverflow
		}
		return result, nil
	}
	factor, err := scaleFactor(from - to)
	if err != nil {
		return 0, err
	}
	return raw / factor, nil
}

func matchPrecision(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

// Add returns p+other at the higher of the two precisions.
func (p Price) Add(other Price) (Price, error) {
	prec := matchPrecision(p.precision, other.precision)
	pr, err := rescaleInt64(p.raw, p.precision, prec)
	if err != nil {
		return Price{}, err
	}
	or, err := rescaleInt64(other.raw, other.precision, prec)
	if err != nil {
		return Price{}, err
	}
	sum := pr + or
	if (or > 0 && sum < pr) || (or < 0 && sum > pr) {
		return Price{}, ErrQuantityOverflow
	}
	return Price{raw: sum, precision: prec}, nil
}

// Sub returns p-other at the higher of the two precisions.
func (p Price) Sub(other Price) (Price, error) {
	neg := Price{raw: -other.raw, precision: other.precision}
	return p.Add(neg)
}

// Mul returns p*scalar at p's precision (scalar is a plain multiplier,
// e.g. a contract multiplier).
func (p Price) Mul(scalar int64) (Price, error) {
	result := p.raw * scalar
	if scalar != 0 && result/scalar != p.raw {
		return Price{}, ErrQuantityOverflow
	}
	return Price{raw: result, precision: p.precision}, nil
}

// Cmp returns -1, 0, or 1 comparing p to other after matching precision.
func (p Price) Cmp(other Price) int {
	prec := matchPrecision(p.precision, other.precision)
	pr, _ := rescaleInt64(p.raw, p.precision, prec)
	or, _ := rescaleInt64(other.raw, other.precision, prec)
	switch {
	case pr < or:
		return -1
	case pr > or:
		return 1
	default:
		return 0
	}
}

func (p Price) Equals(other Price) bool  { return p.Cmp(other) == 0 }
func (p Price) LessThan(o Price) bool    { return p.Cmp(o) < 0 }
func (p Price) GreaterThan(o Price) bool { return p.Cmp(o) > 0 }

///////////////////////////////////////////////////////////////////////////////
// Quantity

// Quantity is an unsigned fixed-point decimal: raw/10^precision.
type Quantity struct {
	raw       uint64
	precision uint8
}

func NewQuantityFromRaw(raw uint64, precision uint8) (Quantity, error) {
	if precision > MaxPrecision {
		return Quantity{}, unexpectedPrecisionError(precision)
	}
	return Quantity{raw: raw, precision: precision}, nil
}

func QuantityFromStr(s string) (Quantity, error) {
	if strings.HasPrefix(strings.TrimSpace(s), "-") {
		return Quantity{}, ErrNegativeQuantity
	}
	raw, precision, err := parseScaledDecimal(s)
	if err != nil {
		return Quantity{}, err
	}
	if raw < 0 {
		return Quantity{}, ErrNegativeQuantity
	}
	return NewQuantityFromRaw(uint64(raw), precision)
}

func QuantityFromFloat(v float64, precision uint8) (Quantity, error) {
	if v < 0 {
		return Quantity{}, ErrNegativeQuantity
	}
	factor, err := scaleFactor(precision)
	if err != nil {
		return Quantity{}, err
	}
	raw, err := roundHalfToEven(v * float64(factor))
	if err != nil {
		return Quantity{}, err
	}
	return NewQuantityFromRaw(uint64(raw), precision)
}

func (q Quantity) Raw() uint64      { return q.raw }
func (q Quantity) Precision() uint8 { return q.precision }
func (q Quantity) IsZero() bool     { return q.raw == 0 }

func (q Quantity) AsFloat64() float64 {
	factor, _ := scaleFactor(q.precision)
	return float64(q.raw) / float64(factor)
}

func (q Quantity) String() string {
	return formatScaled(int64(q.raw), q.precision)
}

func (q Quantity) Add(other Quantity) (Quantity, error) {
	prec := matchPrecision(q.precision, other.precision)
	qr, err := rescaleInt64(int64(q.raw), q.precision, prec)
	if err != nil {
		return Quantity{}, err
	}
	or, err := rescaleInt64(int64(other.raw), other.precision, prec)
	if err != nil {
		return Quantity{}, err
	}
	sum := qr + or
	if sum < qr {
		return Quantity{}, ErrQuantityOverflow
	}
	return Quantity{raw: uint64(sum), precision: prec}, nil
}

// Sub returns q-other; errors if the result would be negative.
func (q Quantity) Sub(other Quantity) (Quantity, error) {
	prec := matchPrecision(q.precision, other.precision)
	qr, err := rescaleInt64(int64(q.raw), q.precision, prec)
	if err != nil {
		return Quantity{}, err
	}
	or, err := rescaleInt64(int64(other.raw), other.precision, prec)
	if err != nil {
		return Quantity{}, err
	}
	if or > qr {
		return Quantity{}, ErrNegativeQuantity
	}
	return Quantity{raw: uint64(qr - or), precision: prec}, nil
}

func (q Quantity) Cmp(other Quantity) int {
	prec := matchPrecision(q.precision, other.precision)
	qr, _ := rescaleInt64(int64(q.raw), q.precision, prec)
	or, _ := rescaleInt64(int64(other.raw), other.precision, prec)
	switch {
	case qr < or:
		return -1
	case qr > or:
		return 1
	default:
		return 0
	}
}

func (q Quantity) Equals(other Quantity) bool { return q.Cmp(other) == 0 }
func (q Quantity) LessThan(o Quantity) bool   { return q.Cmp(o) < 0 }

///////////////////////////////////////////////////////////////////////////////
// Decimal — unscaled rational result of mixing a Price with a Quantity.

// Decimal holds an exact rational value as numerator/denominator, computed
// via int64 arithmetic rather than pulling in a general decimal library:
// Price x Quantity always has a power-of-ten denominator, so a plain
// fraction is exact and cheap.
type Decimal struct {
	num int64
	den int64 // always a power of ten
}

func (d Decimal) AsFloat64() float64 {
	return float64(d.num) / float64(d.den)
}

func (d Decimal) String() string {
	return strconv.FormatFloat(d.AsFloat64(), 'f', -1, 64)
}

// MulPriceQuantity computes p*q exactly as a Decimal.
func MulPriceQuantity(p Price, q Quantity) (Decimal, error) {
	num := p.raw * int64(q.raw)
	if p.raw != 0 && num/p.raw != int64(q.raw) {
		return Decimal{}, ErrQuantityOverflow
	}
	denFactor, err := scaleFactor(p.precision + q.precision)
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{num: num, den: denFactor}, nil
}

///////////////////////////////////////////////////////////////////////////////
// shared parsing/formatting helpers

// parseScaledDecimal parses a plain decimal string ("-1.2345", "10") into
// its scaled integer and implied precision (digit count after the point).
func parseScaledDecimal(s string) (int64, uint8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf("%w: empty string", ErrUnknownEnumValue)
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	precision := uint8(0)
	if hasFrac {
		precision = uint8(len(fracPart))
		if precision > MaxPrecision {
			return 0, 0, unexpectedPrecisionError(precision)
		}
	}
	digits := intPart + fracPart
	if digits == "" {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownEnumValue, s)
	}
	raw, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing %q: %w", s, err)
	}
	if neg {
		raw = -raw
	}
	return raw, precision, nil
}

func formatScaled(raw int64, precision uint8) string {
	if precision == 0 {
		return strconv.FormatInt(raw, 10)
	}
	neg := raw < 0
	if neg {
		raw = -raw
	}
	factor := pow10[precision]
	intPart := raw / factor
	fracPart := raw % factor
	s := fmt.Sprintf("%d.%0*d", intPart, precision, fracPart)
	if neg {
		s = "-" + s
	}
	return s
}

// bigRatFromPrice and bigRatFromQuantity lift fixed-point values into
// exact rationals for the rare computations (weighted-average price,
// PnL) that aren't themselves naturally fixed-point until rounded back.
func bigRatFromPrice(p Price) *big.Rat {
	factor, _ := scaleFactor(p.precision)
	return new(big.Rat).SetFrac(big.NewInt(p.raw), big.NewInt(factor))
}

func bigRatFromQuantity(q Quantity) *big.Rat {
	factor, _ := scaleFactor(q.precision)
	return new(big.Rat).SetFrac(new(big.Int).SetUint64(q.raw), big.NewInt(factor))
}

// weightedAvgPrice folds a new observation (lastPx, lastQty) into a
// running average (prevPx, prevQty) using exact big.Rat arithmetic,
// rounding half-to-even back to the higher of the two prices'
// precisions. Shared by Order.applyFilled (avg_px) and Position's
// avg_px_open/avg_px_close folding — both are the same weighted mean
// over fixed-point inputs, the only difference is which quantities feed it.
func weightedAvgPrice(prevPx Price, prevQty int64, lastPx Price, lastQty int64, totalQty int64) (Price, error) {
	if totalQty == 0 {
		return prevPx, nil
	}
	targetPrecision := lastPx.precision
	if prevPx.precision > targetPrecision {
		targetPrecision = prevPx.precision
	}

	prevAvg := bigRatFromPrice(prevPx)
	last := bigRatFromPrice(lastPx)
	prevQtyR := new(big.Rat).SetInt64(prevQty)
	lastQtyR := new(big.Rat).SetInt64(lastQty)
	totalQtyR := new(big.Rat).SetInt64(totalQty)

	weighted := new(big.Rat).Mul(prevAvg, prevQtyR)
	weighted.Add(weighted, new(big.Rat).Mul(last, lastQtyR))
	mean := new(big.Rat).Quo(weighted, totalQtyR)

	factor, err := scaleFactor(targetPrecision)
	if err != nil {
		return Price{}, err
	}
	scaled := new(big.Rat).Mul(mean, new(big.Rat).SetInt64(factor))
	raw, err := roundRatHalfToEven(scaled)
	if err != nil {
		return Price{}, err
	}
	return NewPriceFromRaw(raw, targetPrecision)
}

// PriceMulQuantity computes p*q exactly via big.Rat and rounds the result
// half-to-even to p's precision. Unlike MulPriceQuantity, which returns an
// unrounded Decimal at the combined precision, this is for callers that
// need the product back as a Price at a specific scale, e.g. notional
// value and commission calculations.
func PriceMulQuantity(p Price, q Quantity) (Price, error) {
	product := new(big.Rat).Mul(bigRatFromPrice(p), bigRatFromQuantity(q))
	return roundRatToPrice(product, p.precision)
}

// roundRatToPrice scales r by precision's power of ten and rounds
// half-to-even back to a Price's raw integer form.
func roundRatToPrice(r *big.Rat, precision uint8) (Price, error) {
	factor, err := scaleFactor(precision)
	if err != nil {
		return Price{}, err
	}
	scaled := new(big.Rat).Mul(r, new(big.Rat).SetInt64(factor))
	raw, err := roundRatHalfToEven(scaled)
	if err != nil {
		return Price{}, err
	}
	return NewPriceFromRaw(raw, precision)
}

// roundRatHalfToEven rounds an exact rational to the nearest integer,
// ties going to even.
func roundRatHalfToEven(r *big.Rat) (int64, error) {
	num := r.Num()
	den := r.Denom()
	quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	remAbs := new(big.Int).Abs(rem)
	twiceRem := new(big.Int).Lsh(remAbs, 1)
	denAbs := new(big.Int).Abs(den)
	cmp := twiceRem.Cmp(denAbs)
	result := new(big.Int).Set(quo)
	neg := r.Sign() < 0
	switch {
	case cmp < 0:
		// round toward zero, no adjustment
	case cmp > 0:
		if neg {
			result.Sub(result, big.NewInt(1))
		} else {
			result.Add(result, big.NewInt(1))
		}
	default:
		// exactly halfway: round to even
		if new(big.Int).And(result, big.NewInt(1)).Sign() != 0 {
			if neg {
				result.Sub(result, big.NewInt(1))
			} else {
				result.Add(result, big.NewInt(1))
			}
		}
	}
	if !result.IsInt64() {
		return 0, ErrQuantityOverflow
	}
	return result.Int64(), nil
}

// roundHalfToEven rounds v to the nearest integer, ties going to even,
// returning an error if v doesn't fit an int64.
func roundHalfToEven(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrQuantityOverflow
	}
	floor := math.Floor(v)
	diff := v - floor
	var rounded float64
	switch {
	case diff < 0.5:
		rounded = floor
	case diff > 0.5:
		rounded = floor + 1
	default:
		// exactly .5: round to even
		if math.Mod(floor, 2) == 0 {
			rounded = floor
		} else {
			rounded = floor + 1
		}
	}
	if rounded > math.MaxInt64 || rounded < math.MinInt64 {
		return 0, ErrQuantityOverflow
	}
	return int64(rounded), nil
}
