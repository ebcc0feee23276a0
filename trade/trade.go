/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package trade defines the immutable normalised trade record that is the
// unit of work for the reconciliation engine. A Trade is constructed once,
// via New, and never mutated afterward: every rule matcher in package
// matchers reads Trade values by copy or by pointer-to-const.
package trade

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Source identifies which of the two independent feeds a Trade came from.
type Source int

const (
	SourceTrader Source = iota
	SourceExchange
)

func (s Source) String() string {
	switch s {
	case SourceTrader:
		return "TRADER"
	case SourceExchange:
		return "EXCHANGE"
	default:
		return "UNKNOWN"
	}
}

// Side is the buy/sell indicator (tag-54 style single letter).
type Side string

const (
	Buy  Side = "B"
	Sell Side = "S"
)

// Unit is the quantity unit a Trade is natively quoted in.
type Unit string

const (
	UnitMT  Unit = "MT"
	UnitBBL Unit = "BBL"
)

var (
	// ErrNonPositiveQuantity is returned when a Trade is constructed with a
	// quantity that is zero or negative.
	ErrNonPositiveQuantity = errors.New("trade: quantity must be strictly positive")
	// ErrInvalidSide is returned when buy_sell is not B or S.
	ErrInvalidSide = errors.New("trade: buy_sell must be B or S")
	// ErrInvalidUnit is returned when unit is not MT or BBL.
	ErrInvalidUnit = errors.New("trade: unit must be MT or BBL")
	// ErrStrikeWithoutPutCall is returned when strike is set but put_call is not.
	ErrStrikeWithoutPutCall = errors.New("trade: strike requires put_call")
	// ErrZeroConversionRatio is returned when the product's MT<->BBL ratio
	// resolves to zero, which would make unit conversion a division by zero.
	ErrZeroConversionRatio = errors.New("trade: conversion ratio must be non-zero")
)

// RatioFunc resolves the MT<->BBL conversion ratio for a product. Config
// supplies this as config.Config.ConversionRatio, keeping package trade free
// of any dependency on package config.
type RatioFunc func(product string) decimal.Decimal

// Trade is an immutable normalised trade record. Fields are exported and
// treated as read-only by convention after New returns — no setter ever
// exists.
type Trade struct {
	ID             string
	Source         Source
	Product        string
	ContractMonth  string
	Quantity       decimal.Decimal
	Unit           Unit
	Price          decimal.Decimal
	BuySell        Side
	QuantityMT     decimal.Decimal
	QuantityBBL    decimal.Decimal

	BrokerGroupID      *int
	ExchClearingAcctID *int
	ExchangeGroupID    *int

	Strike  *decimal.Decimal
	PutCall *string

	SpreadFlag *string

	DealID        *string
	TradeNativeID *string
	TradeDatetime *string
}

// Option sets one optional field during New. Options are applied in order,
// so a later option overrides an earlier one touching the same field.
type Option func(*Trade)

func WithBrokerGroupID(v int) Option { return func(t *Trade) { t.BrokerGroupID = &v } }

func WithExchClearingAcctID(v int) Option { return func(t *Trade) { t.ExchClearingAcctID = &v } }

func WithExchangeGroupID(v int) Option { return func(t *Trade) { t.ExchangeGroupID = &v } }

func WithOption(strike decimal.Decimal, putCall string) Option {
	return func(t *Trade) {
		t.Strike = &strike
		t.PutCall = &putCall
	}
}

func WithSpreadFlag(v string) Option { return func(t *Trade) { t.SpreadFlag = &v } }

func WithDealID(v string) Option { return func(t *Trade) { t.DealID = &v } }

func WithTradeNativeID(v string) Option { return func(t *Trade) { t.TradeNativeID = &v } }

func WithTradeDatetime(v string) Option { return func(t *Trade) { t.TradeDatetime = &v } }

// New constructs a Trade, validating the construction-time invariants:
// quantity > 0, buy_sell in {B,S}, unit in {MT,BBL}, and
// strike implies put_call. The MT/BBL derived quantities are computed here,
// once, using ratio for the product's conversion factor.
func New(
	id string,
	source Source,
	product string,
	contractMonth string,
	quantity decimal.Decimal,
	unit Unit,
	price decimal.Decimal,
	buySell Side,
	ratio RatioFunc,
	opts ...Option,
) (Trade, error) {
	if quantity.Sign() <= 0 {
		return Trade{}, fmt.Errorf("trade %s: %w", id, ErrNonPositiveQuantity)
	}
	if buySell != Buy && buySell != Sell {
		return Trade{}, fmt.Errorf("trade %s: %w", id, ErrInvalidSide)
	}
	if unit != UnitMT && unit != UnitBBL {
		return Trade{}, fmt.Errorf("trade %s: %w", id, ErrInvalidUnit)
	}

	t := Trade{
		ID:            id,
		Source:        source,
		Product:       product,
		ContractMonth: contractMonth,
		Quantity:      quantity,
		Unit:          unit,
		Price:         price,
		BuySell:       buySell,
	}

	for _, opt := range opts {
		opt(&t)
	}

	if t.Strike != nil && t.PutCall == nil {
		return Trade{}, fmt.Errorf("trade %s: %w", id, ErrStrikeWithoutPutCall)
	}

	r := ratio(product)
	if r.IsZero() {
		return Trade{}, fmt.Errorf("trade %s: %w", id, ErrZeroConversionRatio)
	}

	switch unit {
	case UnitMT:
		t.QuantityMT = quantity
		t.QuantityBBL = quantity.Mul(r)
	case UnitBBL:
		t.QuantityBBL = quantity
		t.QuantityMT = quantity.Div(r)
	}

	return t, nil
}

// IsOption reports whether the trade carries strike/put-call information.
func (t Trade) IsOption() bool {
	return t.Strike != nil
}

// OptionsCompatible reports whether two trades may legally share a
// multi-leg match: either neither is an option, or both are options with
// an identical (strike, put_call) pair. Enforced by every multi-trade
// rule.
func OptionsCompatible(trades ...Trade) bool {
	anyOption := false
	for _, t := range trades {
		if t.IsOption() {
			anyOption = true
			break
		}
	}
	if !anyOption {
		return true
	}
	var strike decimal.Decimal
	var putCall string
	for i, t := range trades {
		if !t.IsOption() {
			return false
		}
		if i == 0 {
			strike = *t.Strike
			putCall = *t.PutCall
			continue
		}
		if !t.Strike.Equal(strike) || *t.PutCall != putCall {
			return false
		}
	}
	return true
}

func (t Trade) String() string {
	return fmt.Sprintf("Trade(%s %s %s %s %s %s@%s)",
		t.ID, t.Source, t.Product, t.ContractMonth, t.BuySell, t.Quantity, t.Price)
}
