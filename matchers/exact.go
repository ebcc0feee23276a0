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

	"reconengine/config"
	"reconengine/match"
	"reconengine/matchkey"
	"reconengine/pool"
	"reconengine/trade"
)

// ExactMatcher implements Rule 1: a pure 1:1 match on product, quantity_mt,
// price, contract_month and buy_sell, plus the universal fields. No
// tolerances.
type ExactMatcher struct{}

func (ExactMatcher) Rule() config.RuleID { return config.RuleExact }

func exactKey(cfg config.Config, t trade.Trade) matchkey.Key {
	parts := append([]string{
		t.Product,
		t.QuantityMT.String(),
		t.Price.String(),
		t.ContractMonth,
		string(t.BuySell),
	}, matchkey.UniversalParts(cfg, t)...)
	return matchkey.Build(parts...)
}

func (ExactMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	exchangeIdx := matchkey.BuildIndex(p.UnmatchedExchange(), func(t trade.Trade) matchkey.Key {
		return exactKey(cfg, t)
	})

	for _, traderTrade := range p.UnmatchedTrader() {
		k := exactKey(cfg, traderTrade)
		candidates := exchangeIdx.Candidates(k)
		var chosen *trade.Trade
		for i := range candidates {
			c := candidates[i]
			if p.IsExchangeMatched(c.ID) || !trade.OptionsCompatible(traderTrade, c) {
				continue
			}
			chosen = &c
			break
		}
		if chosen == nil {
			continue
		}
		exchangeIdx.Consume(k, chosen.ID)

		confidence, err := cfg.Confidence(config.RuleExact)
		if err != nil {
			log.Printf("matchers: rule 1 skipped, %v", err)
			return results
		}
		result := match.New(NewMatchID(config.RuleExact), int(config.RuleExact), match.TypeExact,
			confidence, traderTrade, *chosen,
			match.WithMatchedFields("product", "quantity_mt", "price", "contract_month", "buy_sell"))

		if err := p.RecordMatch(result); err != nil {
			log.Printf("matchers: rule 1 discarded hypothesis %s: %v", result.MatchID, err)
			continue
		}
		results = append(results, result)
	}
	return results
}
