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

// Package config holds the frozen configuration record the engine and every
// rule matcher read from: tolerances, the confidence table, per-product
// MT<->BBL conversion ratios, the universal-field list and the rule
// processing order. Config is never parsed from a file here; the caller
// hands the engine an already-loaded record, built once through
// functional options and never mutated afterward.
package config

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// RuleID identifies one of the thirteen cascading matching rules by number.
type RuleID int

const (
	RuleExact RuleID = iota + 1
	RuleSpread
	RuleCrack
	RuleComplexCrack
	RuleProductSpread
	RuleFly
	RuleAggregation
	RuleAggregatedComplexCrack
	RuleAggregatedSpread
	RuleMultilegSpread
	RuleAggregatedCrack
	RuleComplexCrackRoll
	RuleAggregatedProductSpread
)

// UniversalField is a trade field whose value must agree across every leg
// of any match, under every rule.
type UniversalField int

const (
	FieldBrokerGroupID UniversalField = iota
	FieldExchClearingAcctID
	FieldExchangeGroupID
)

// ErrUnknownRule is returned by Confidence/ToleranceFor when asked about a
// rule id the Config was not built with.
var ErrUnknownRule = errors.New("config: unknown rule id")

// Tolerance bounds the allowed absolute difference in quantity for a rule,
// separately per unit, since a rule may validate both an MT leg and a BBL
// leg of the same hypothesis (e.g. Rule 4).
type Tolerance struct {
	MT  decimal.Decimal
	BBL decimal.Decimal
}

// Config is the frozen record every package in this module reads
// tolerances, confidence levels and conversion ratios from. Zero value is
// not useful; always build with New.
type Config struct {
	order                 []RuleID
	confidence            map[RuleID]decimal.Decimal
	tolerance             map[RuleID]Tolerance
	universalFields       []UniversalField
	conversionRatios      map[string]decimal.Decimal
	defaultRatio          decimal.Decimal
	universalToleranceMT  decimal.Decimal
	universalToleranceBBL decimal.Decimal

	// ProductSpreadTierConfidence holds the three product-spread confidence
	// tiers (hyphenated match, two-leg exact, two-leg aggregated). The Rule 5
	// matcher reads the first two; Rule 13 uses its entry in the per-rule
	// confidence table, so no matcher reads the third. Tier adjustments
	// belong in configuration, not hard-coded in a matcher.
	ProductSpreadTierConfidence [3]decimal.Decimal
}

// Option mutates a Config under construction.
type Option func(*Config)

// defaultOrder is the natural rule-number order; callers needing a
// different cascade pass WithOrder.
func defaultOrder() []RuleID {
	return []RuleID{
		RuleExact, RuleSpread, RuleCrack, RuleComplexCrack, RuleProductSpread,
		RuleFly, RuleAggregation, RuleAggregatedComplexCrack, RuleAggregatedSpread,
		RuleMultilegSpread, RuleAggregatedCrack, RuleComplexCrackRoll,
		RuleAggregatedProductSpread,
	}
}

// defaultConfidence is the descending confidence table: rule 1 is
// certain, tolerance-bearing rules progressively less so.
func defaultConfidence() map[RuleID]decimal.Decimal {
	pct := func(v int) decimal.Decimal { return decimal.NewFromInt(int64(v)) }
	return map[RuleID]decimal.Decimal{
		RuleExact:                   pct(100),
		RuleSpread:                  pct(95),
		RuleCrack:                   pct(95),
		RuleComplexCrack:            pct(90),
		RuleProductSpread:           pct(90),
		RuleFly:                     pct(88),
		RuleAggregation:             pct(97),
		RuleAggregatedComplexCrack:  pct(85),
		RuleAggregatedSpread:        pct(88),
		RuleMultilegSpread:          pct(85),
		RuleAggregatedCrack:         pct(88),
		RuleComplexCrackRoll:        pct(82),
		RuleAggregatedProductSpread: pct(85),
	}
}

// New builds a Config with the standard defaults, then applies opts in
// order.
func New(opts ...Option) Config {
	c := Config{
		order:                 defaultOrder(),
		confidence:            defaultConfidence(),
		tolerance:             make(map[RuleID]Tolerance),
		universalFields:       []UniversalField{FieldBrokerGroupID, FieldExchClearingAcctID},
		conversionRatios:      make(map[string]decimal.Decimal),
		defaultRatio:          decimal.NewFromFloat(7.0),
		universalToleranceMT:  decimal.NewFromInt(145),
		universalToleranceBBL: decimal.NewFromInt(500),
		ProductSpreadTierConfidence: [3]decimal.Decimal{
			decimal.NewFromInt(95), decimal.NewFromInt(92), decimal.NewFromInt(90),
		},
	}
	c.conversionRatios["marine 0.5% crack"] = decimal.NewFromFloat(6.35)
	c.conversionRatios["380cst crack"] = decimal.NewFromFloat(6.35)
	c.conversionRatios["naphtha crack"] = decimal.NewFromFloat(8.9)

	for _, opt := range opts {
		opt(&c)
	}

	for _, r := range c.order {
		if _, ok := c.tolerance[r]; !ok {
			switch r {
			case RuleExact, RuleAggregation:
				c.tolerance[r] = Tolerance{MT: decimal.Zero, BBL: decimal.Zero}
			default:
				c.tolerance[r] = Tolerance{MT: c.universalToleranceMT, BBL: c.universalToleranceBBL}
			}
		}
	}
	return c
}

func WithOrder(order []RuleID) Option {
	return func(c *Config) { c.order = order }
}

func WithConfidence(rule RuleID, pct decimal.Decimal) Option {
	return func(c *Config) { c.confidence[rule] = pct }
}

func WithTolerance(rule RuleID, t Tolerance) Option {
	return func(c *Config) { c.tolerance[rule] = t }
}

func WithUniversalFields(fields []UniversalField) Option {
	return func(c *Config) { c.universalFields = fields }
}

func WithConversionRatio(product string, ratio decimal.Decimal) Option {
	return func(c *Config) { c.conversionRatios[strings.ToLower(product)] = ratio }
}

func WithDefaultConversionRatio(ratio decimal.Decimal) Option {
	return func(c *Config) { c.defaultRatio = ratio }
}

func WithUniversalTolerances(mt, bbl decimal.Decimal) Option {
	return func(c *Config) {
		c.universalToleranceMT = mt
		c.universalToleranceBBL = bbl
	}
}

func WithProductSpreadTierConfidence(hyphenated, twoLegExact, twoLegAggregated decimal.Decimal) Option {
	return func(c *Config) {
		c.ProductSpreadTierConfidence = [3]decimal.Decimal{hyphenated, twoLegExact, twoLegAggregated}
	}
}

// Order returns the configured rule processing order. The returned slice is
// a copy; mutating it does not affect the Config.
func (c Config) Order() []RuleID {
	out := make([]RuleID, len(c.order))
	copy(out, c.order)
	return out
}

// Confidence returns the configured confidence percentage for rule.
func (c Config) Confidence(rule RuleID) (decimal.Decimal, error) {
	v, ok := c.confidence[rule]
	if !ok {
		return decimal.Decimal{}, ErrUnknownRule
	}
	return v, nil
}

// ToleranceFor returns the configured quantity tolerance for rule.
func (c Config) ToleranceFor(rule RuleID) (Tolerance, error) {
	v, ok := c.tolerance[rule]
	if !ok {
		return Tolerance{}, ErrUnknownRule
	}
	return v, nil
}

// UniversalFields returns the fields that must agree across every leg of
// any match, under every rule.
func (c Config) UniversalFields() []UniversalField {
	out := make([]UniversalField, len(c.universalFields))
	copy(out, c.universalFields)
	return out
}

// ConversionRatio resolves the MT<->BBL ratio for product, falling back to
// the configured default. It satisfies trade.RatioFunc by method value:
// trade.New(..., cfg.ConversionRatio, ...).
func (c Config) ConversionRatio(product string) decimal.Decimal {
	if r, ok := c.conversionRatios[strings.ToLower(product)]; ok {
		return r
	}
	return c.defaultRatio
}

func (r RuleID) String() string {
	switch r {
	case RuleExact:
		return "EXACT"
	case RuleSpread:
		return "SPREAD"
	case RuleCrack:
		return "CRACK"
	case RuleComplexCrack:
		return "COMPLEX_CRACK"
	case RuleProductSpread:
		return "PRODUCT_SPREAD"
	case RuleFly:
		return "FLY"
	case RuleAggregation:
		return "AGGREGATION"
	case RuleAggregatedComplexCrack:
		return "AGGREGATED_COMPLEX_CRACK"
	case RuleAggregatedSpread:
		return "AGGREGATED_SPREAD"
	case RuleMultilegSpread:
		return "MULTILEG_SPREAD"
	case RuleAggregatedCrack:
		return "AGGREGATED_CRACK"
	case RuleComplexCrackRoll:
		return "COMPLEX_CRACK_ROLL"
	case RuleAggregatedProductSpread:
		return "AGGREGATED_PRODUCT_SPREAD"
	default:
		return "UNKNOWN_RULE"
	}
}
