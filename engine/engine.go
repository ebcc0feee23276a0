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

// Package engine drives one reconciliation run: it builds the unmatched
// pool from the two input sequences, applies every configured rule matcher
// in order, and returns the cumulative match list together with the
// residual unmatched trades on both sides.
package engine

import (
	"errors"
	"log"

	"reconengine/config"
	"reconengine/match"
	"reconengine/matchers"
	"reconengine/pool"
	"reconengine/trade"
)

// ErrIntegrityViolation is returned by Run when the post-cascade pool
// integrity check fails. The Output alongside it is still fully populated;
// callers decide whether to trust the partial results.
var ErrIntegrityViolation = errors.New("engine: pool integrity check failed")

// Output is everything one reconciliation run produces.
type Output struct {
	Matches           []match.Result
	UnmatchedTrader   []trade.Trade
	UnmatchedExchange []trade.Trade
	Statistics        pool.Statistics
}

// registry maps each rule id to its matcher implementation. A rule id in
// the configured order with no registry entry is skipped with a warning,
// never a failure.
func registry() map[config.RuleID]matchers.Matcher {
	return map[config.RuleID]matchers.Matcher{
		config.RuleExact: matchers.ExactMatcher{},
		config.RuleSpread: matchers.SpreadMatcher{},
		config.RuleCrack: matchers.CrackMatcher{},
		config.RuleComplexCrack: matchers.ComplexCrackMatcher{},
		config.RuleProductSpread: matchers.ProductSpreadMatcher{},
		config.RuleFly: matchers.FlyMatcher{},
		config.RuleAggregation: matchers.AggregationMatcher{},
		config.RuleAggregatedComplexCrack: matchers.AggregatedComplexCrackMatcher{},
		config.RuleAggregatedSpread: matchers.AggregatedSpreadMatcher{},
		config.RuleMultilegSpread: matchers.MultilegSpreadMatcher{},
		config.RuleAggregatedCrack: matchers.AggregatedCrackMatcher{},
		config.RuleComplexCrackRoll: matchers.ComplexCrackRollMatcher{},
		config.RuleAggregatedProductSpread: matchers.AggregatedProductSpreadMatcher{},
	}
}

// Run executes the full rule cascade over the two trade sequences. Trades
// consumed by an earlier rule are invisible to every later rule; each
// matcher commits its own matches through the pool. Run never aborts on a
// rule-internal soft failure — if the final integrity check fails the
// already-computed Output is returned alongside ErrIntegrityViolation.
func Run(cfg config.Config, traderTrades, exchangeTrades []trade.Trade) (Output, error) {
	p := pool.New(traderTrades, exchangeTrades)
	reg := registry()

	var all []match.Result
	for _, rule := range cfg.Order() {
		m, ok := reg[rule]
		if !ok {
			log.Printf("engine: no matcher registered for rule %d (%s), skipping", rule, rule)
			continue
		}
		produced := m.FindMatches(cfg, p)
		if len(produced) > 0 {
			log.Printf("engine: rule %d (%s) matched %d", rule, rule, len(produced))
		}
		all = append(all, produced...)
	}

	out := Output{
		Matches:           all,
		UnmatchedTrader:   p.UnmatchedTrader(),
		UnmatchedExchange: p.UnmatchedExchange(),
		Statistics:        p.Statistics(),
	}
	if !p.ValidateIntegrity() {
		log.Printf("engine: CRITICAL: %v", ErrIntegrityViolation)
		return out, ErrIntegrityViolation
	}
	return out, nil
}
