// Copyright (c) 2024 Neomantra Corp

package tradecore

import (
	"fmt"
	"math/big"
)

// Currency is an ISO-4217-ish currency code, e.g. "USD", "BTC".
type Currency string

// Money is a decimal amount tagged with its currency. Cross-currency
// arithmetic is a hard error; callers must convert explicitly first.
type Money struct {
	Amount   Price // reuses Price's signed fixed-point representation
	Currency Currency
}

func NewMoney(amount Price, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

func ZeroMoney(currency Currency) Money {
	zero, _ := NewPriceFromRaw(0, 2)
	return Money{Amount: zero, Currency: currency}
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	sum, err := m.Amount.Add(other.Amount)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	diff, err := m.Amount.Sub(other.Amount)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: diff, Currency: m.Currency}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.String(), m.Currency)
}

// MoneyByCurrency is an additive map of per-currency running totals, used
// by Position to track commissions without collapsing currencies.
type MoneyByCurrency map[Currency]Money

func (mbc MoneyByCurrency) Add(m Money) MoneyByCurrency {
	if mbc == nil {
		mbc = make(MoneyByCurrency)
	}
	if existing, ok := mbc[m.Currency]; ok {
		sum, err := existing.Add(m)
		if err == nil {
			mbc[m.Currency] = sum
			return mbc
		}
	}
	mbc[m.Currency] = m
	return mbc
}

// CommissionSchedule is a flat maker/taker fee table, each rate in basis
// points of the fill's notional value (price*qty).
type CommissionSchedule struct {
	MakerBps int64
	TakerBps int64
	Currency Currency
}

// Commission computes the fee for a fill at price/qty, picking the maker or
// taker rate by side. Runs entirely in big.Rat so the fee never passes
// through a float64 on the way from notional to rounded currency amount.
func (c CommissionSchedule) Commission(price Price, qty Quantity, side LiquiditySide) (Money, error) {
	bps := c.TakerBps
	if side == LiquiditySide_Maker {
		bps = c.MakerBps
	}
	if bps == 0 {
		return ZeroMoney(c.Currency), nil
	}
	notional, err := PriceMulQuantity(price, qty)
	if err != nil {
		return Money{}, err
	}
	fee := new(big.Rat).Mul(bigRatFromPrice(notional), new(big.Rat).SetFrac64(bps, 10_000))
	px, err := roundRatToPrice(fee, notional.Precision())
	if err != nil {
		return Money{}, err
	}
	return NewMoney(px, c.Currency), nil
}
