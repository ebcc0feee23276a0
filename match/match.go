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

// Package match defines the immutable result of pairing one or more trader
// trades with one or more exchange trades under a single rule.
package match

import (
	"fmt"

	"github.com/shopspring/decimal"

	"reconengine/trade"
)

// Type is the tag a Result carries, one per rule family.
type Type string

const (
	TypeExact                   Type = "EXACT"
	TypeSpread                  Type = "SPREAD"
	TypeCrack                   Type = "CRACK"
	TypeComplexCrack            Type = "COMPLEX_CRACK"
	TypeProductSpread           Type = "PRODUCT_SPREAD"
	TypeFly                     Type = "FLY"
	TypeAggregation             Type = "AGGREGATION"
	TypeAggregatedSpread        Type = "AGGREGATED_SPREAD"
	TypeAggregatedCrack         Type = "AGGREGATED_CRACK"
	TypeAggregatedComplexCrack  Type = "AGGREGATED_COMPLEX_CRACK"
	TypeAggregatedProductSpread Type = "AGGREGATED_PRODUCT_SPREAD"
	TypeMultilegSpread          Type = "MULTILEG_SPREAD"
	TypeComplexCrackRoll        Type = "COMPLEX_CRACK_ROLL"
)

// Status distinguishes a plain 1:1 pairing from a multi-leg group match.
type Status string

const (
	StatusMatched      Status = "MATCHED"
	StatusGroupMatched Status = "GROUP_MATCHED"
)

// Result is the immutable record of one rule's successful hypothesis: a
// primary trader trade and primary exchange trade, plus any additional legs
// a multi-leg rule consumed. Constructed once via New and never mutated —
// mirrors trade.Trade's own immutability contract.
type Result struct {
	MatchID    string
	RuleNumber int
	MatchType  Type
	Confidence decimal.Decimal
	Status     Status

	TraderPrimary      trade.Trade
	ExchangePrimary    trade.Trade
	TraderAdditional   []trade.Trade
	ExchangeAdditional []trade.Trade

	MatchedFields     []string
	DifferingFields   []string
	TolerancesApplied map[string]decimal.Decimal
}

// New constructs a Result. matchID is caller-supplied (typically a
// google/uuid string) so callers control id generation strategy.
func New(
	matchID string,
	ruleNumber int,
	matchType Type,
	confidence decimal.Decimal,
	traderPrimary, exchangePrimary trade.Trade,
	opts ...Option,
) Result {
	r := Result{
		MatchID:           matchID,
		RuleNumber:        ruleNumber,
		MatchType:         matchType,
		Confidence:        confidence,
		Status:            StatusMatched,
		TraderPrimary:     traderPrimary,
		ExchangePrimary:   exchangePrimary,
		TolerancesApplied: make(map[string]decimal.Decimal),
	}
	for _, opt := range opts {
		opt(&r)
	}
	if len(r.TraderAdditional) > 0 || len(r.ExchangeAdditional) > 0 {
		r.Status = StatusGroupMatched
	}
	return r
}

// Option sets one optional field of a Result during New.
type Option func(*Result)

func WithTraderAdditional(trades ...trade.Trade) Option {
	return func(r *Result) { r.TraderAdditional = append(r.TraderAdditional, trades...) }
}

func WithExchangeAdditional(trades ...trade.Trade) Option {
	return func(r *Result) { r.ExchangeAdditional = append(r.ExchangeAdditional, trades...) }
}

func WithMatchedFields(fields ...string) Option {
	return func(r *Result) { r.MatchedFields = append(r.MatchedFields, fields...) }
}

func WithDifferingFields(fields ...string) Option {
	return func(r *Result) { r.DifferingFields = append(r.DifferingFields, fields...) }
}

func WithTolerancesApplied(applied map[string]decimal.Decimal) Option {
	return func(r *Result) {
		for k, v := range applied {
			r.TolerancesApplied[k] = v
		}
	}
}

// AllTraderTrades returns the primary trader trade followed by any
// additional trader legs, in consumption order.
func (r Result) AllTraderTrades() []trade.Trade {
	out := make([]trade.Trade, 0, 1+len(r.TraderAdditional))
	out = append(out, r.TraderPrimary)
	return append(out, r.TraderAdditional...)
}

// AllExchangeTrades returns the primary exchange trade followed by any
// additional exchange legs, in consumption order.
func (r Result) AllExchangeTrades() []trade.Trade {
	out := make([]trade.Trade, 0, 1+len(r.ExchangeAdditional))
	out = append(out, r.ExchangePrimary)
	return append(out, r.ExchangeAdditional...)
}

// IsMultiLeg reports whether this match consumed more than one trade on
// either side.
func (r Result) IsMultiLeg() bool {
	return len(r.TraderAdditional) > 0 || len(r.ExchangeAdditional) > 0
}

// QuantityDifference is the absolute MT difference between the summed
// trader-side and summed exchange-side quantities, after MT normalisation.
func (r Result) QuantityDifference() decimal.Decimal {
	traderSum := decimal.Zero
	for _, t := range r.AllTraderTrades() {
		traderSum = traderSum.Add(t.QuantityMT)
	}
	exchangeSum := decimal.Zero
	for _, t := range r.AllExchangeTrades() {
		exchangeSum = exchangeSum.Add(t.QuantityMT)
	}
	return traderSum.Sub(exchangeSum).Abs()
}

func (r Result) Summary() string {
	return fmt.Sprintf("Result(%s rule=%d type=%s confidence=%s%% status=%s)",
		r.MatchID, r.RuleNumber, r.MatchType, r.Confidence, r.Status)
}
