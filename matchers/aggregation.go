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

package matchers

import (
	"log"

	"github.com/shopspring/decimal"

	"reconengine/config"
	"reconengine/match"
	"reconengine/matchkey"
	"reconengine/pool"
	"reconengine/trade"
)

// AggregationMatcher implements Rule 7: every field but quantity agrees
// between a group of two-or-more trades on one side and a single trade on
// the other, whose quantity equals the exact sum of the group's
// quantities. Runs in both directions: many trader rows to one exchange
// row, and one trader row to many exchange rows.
type AggregationMatcher struct{}

func (AggregationMatcher) Rule() config.RuleID { return config.RuleAggregation }

// aggregationKey groups by every fundamental field except quantity:
// product, contract month, price, direction, and the universal fields.
func aggregationKey(cfg config.Config, t trade.Trade) matchkey.Key {
	parts := append([]string{t.Product, t.ContractMonth, t.Price.String(), string(t.BuySell)},
		matchkey.UniversalParts(cfg, t)...)
	return matchkey.Build(parts...)
}

func (AggregationMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	confidence, err := cfg.Confidence(config.RuleAggregation)
	if err != nil {
		log.Printf("matchers: rule 7 skipped, %v", err)
		return results
	}

	results = append(results, findManyToOneAggregations(cfg, p, confidence, true)...)
	results = append(results, findManyToOneAggregations(cfg, p, confidence, false)...)
	return results
}

// findManyToOneAggregations groups one side into aggregation-key buckets
// and, for each bucket of 2+ unmatched trades whose summed MT quantity
// equals an unmatched single trade's quantity on the other side, commits
// a group match. manyIsTrader selects which side plays the many role.
func findManyToOneAggregations(cfg config.Config, p *pool.Pool, confidence decimal.Decimal, manyIsTrader bool) []match.Result {
	var results []match.Result

	var many, one []trade.Trade
	if manyIsTrader {
		many = p.UnmatchedTrader()
		one = p.UnmatchedExchange()
	} else {
		many = p.UnmatchedExchange()
		one = p.UnmatchedTrader()
	}

	buckets := make(map[matchkey.Key][]trade.Trade)
	var order []matchkey.Key
	for _, t := range many {
		k := aggregationKey(cfg, t)
		if _, ok := buckets[k]; !ok {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], t)
	}

	oneIdx := matchkey.BuildIndex(one, func(t trade.Trade) matchkey.Key { return aggregationKey(cfg, t) })

	for _, k := range order {
		group := buckets[k]
		if len(group) < 2 {
			continue
		}
		anyMatched := false
		total := decimal.Zero
		for _, t := range group {
			if (manyIsTrader && p.IsTraderMatched(t.ID)) || (!manyIsTrader && p.IsExchangeMatched(t.ID)) {
				anyMatched = true
				break
			}
			total = total.Add(t.QuantityMT)
		}
		if anyMatched {
			continue
		}
		if !trade.OptionsCompatible(group...) {
			continue
		}

		for _, candidate := range oneIdx.Candidates(k) {
			matched := (manyIsTrader && p.IsExchangeMatched(candidate.ID)) || (!manyIsTrader && p.IsTraderMatched(candidate.ID))
			if matched {
				continue
			}
			if !candidate.QuantityMT.Equal(total) {
				continue
			}
			if !trade.OptionsCompatible(append(append([]trade.Trade{}, group...), candidate)...) {
				continue
			}

			var result match.Result
			if manyIsTrader {
				result = match.New(NewMatchID(config.RuleAggregation), int(config.RuleAggregation), match.TypeAggregation,
					confidence, group[0], candidate,
					match.WithTraderAdditional(group[1:]...),
					match.WithMatchedFields("product", "contract_month", "price", "buy_sell"),
					match.WithDifferingFields("quantity"))
			} else {
				result = match.New(NewMatchID(config.RuleAggregation), int(config.RuleAggregation), match.TypeAggregation,
					confidence, candidate, group[0],
					match.WithExchangeAdditional(group[1:]...),
					match.WithMatchedFields("product", "contract_month", "price", "buy_sell"),
					match.WithDifferingFields("quantity"))
			}
			if err := p.RecordMatch(result); err != nil {
				log.Printf("matchers: rule 7 discarded hypothesis %s: %v", result.MatchID, err)
				continue
			}
			results = append(results, result)
			break
		}
	}
	return results
}
