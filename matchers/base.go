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

// Package matchers implements the thirteen cascading rule matchers the
// engine drives in configured order. Every matcher shares the same
// contract (Matcher) and the same universal-field and option-compatibility
// checks; Rules 1, 3 and 7 index their candidates through package matchkey.
package matchers

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"reconengine/config"
	"reconengine/match"
	"reconengine/pool"
	"reconengine/trade"
)

// Matcher is implemented by every rule. FindMatches runs exactly once per
// engine pass: it reads the Pool's currently unmatched trades, commits
// every hypothesis it can validate, and returns the matches it created.
type Matcher interface {
	Rule() config.RuleID
	FindMatches(cfg config.Config, p *pool.Pool) []match.Result
}

// NewMatchID mints a match id tagged with the rule's name, e.g.
// "CRACK-3c9b1e2f".
func NewMatchID(rule config.RuleID) string {
	return rule.String() + "-" + uuid.New().String()[:8]
}

// ValidateUniversalFields reports whether a and b agree on every field
// config.Config.UniversalFields() names. Enforced by every rule without
// exception.
func ValidateUniversalFields(cfg config.Config, a, b trade.Trade) bool {
	for _, f := range cfg.UniversalFields() {
		switch f {
		case config.FieldBrokerGroupID:
			if !intPtrEqual(a.BrokerGroupID, b.BrokerGroupID) {
				return false
			}
		case config.FieldExchClearingAcctID:
			if !intPtrEqual(a.ExchClearingAcctID, b.ExchClearingAcctID) {
				return false
			}
		case config.FieldExchangeGroupID:
			if !intPtrEqual(a.ExchangeGroupID, b.ExchangeGroupID) {
				return false
			}
		}
	}
	return true
}

// ValidateUniversalFieldsAll reports whether every trade in trades agrees
// pairwise on the configured universal fields.
func ValidateUniversalFieldsAll(cfg config.Config, trades ...trade.Trade) bool {
	for i := 1; i < len(trades); i++ {
		if !ValidateUniversalFields(cfg, trades[0], trades[i]) {
			return false
		}
	}
	return true
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IsCrackProduct reports whether a product name belongs to the crack
// family (its economic value derives from a base-product/brent spread).
func IsCrackProduct(product string) bool {
	return strings.Contains(strings.ToLower(product), "crack")
}

// ExtractBaseProduct strips a trailing "crack" suffix (with or without a
// separating space) to recover the base product a crack trades against,
// e.g. "380cst crack" -> "380cst".
func ExtractBaseProduct(product string) string {
	lower := strings.ToLower(strings.TrimSpace(product))
	lower = strings.TrimSuffix(lower, "crack")
	return strings.TrimSpace(lower)
}

// RoundBank2 rounds to 2 decimal places using banker's rounding (round
// half to even), the intermediate-step rounding the crack and crack-roll
// price formulas require.
func RoundBank2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// absDiff returns |a - b|.
func absDiff(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b).Abs()
}

// withinTolerance reports whether |a - b| <= tol.
func withinTolerance(a, b, tol decimal.Decimal) bool {
	return absDiff(a, b).LessThanOrEqual(tol)
}
