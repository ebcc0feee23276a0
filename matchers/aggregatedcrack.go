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
	"reconengine/pool"
	"reconengine/trade"
)

// AggregatedCrackMatcher implements Rule 11: one trader crack row (MT)
// against several exchange crack rows (BBL) sharing product, contract
// month, price, and direction, whose summed BBL quantity converts back to
// the trader's MT quantity within the universal BBL tolerance.
type AggregatedCrackMatcher struct{}

func (AggregatedCrackMatcher) Rule() config.RuleID { return config.RuleAggregatedCrack }

func (AggregatedCrackMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	confidence, err := cfg.Confidence(config.RuleAggregatedCrack)
	if err != nil {
		log.Printf("matchers: rule 11 skipped, %v", err)
		return results
	}
	tol, err := cfg.ToleranceFor(config.RuleAggregatedCrack)
	if err != nil {
		log.Printf("matchers: rule 11 skipped, %v", err)
		return results
	}

	for _, crackTrade := range p.UnmatchedTrader() {
		if p.IsTraderMatched(crackTrade.ID) || !IsCrackProduct(crackTrade.Product) {
			continue
		}
		ratio := cfg.ConversionRatio(crackTrade.Product)
		expectedBBL := crackTrade.QuantityMT.Mul(ratio)

		groups := make(map[string][]trade.Trade)
		var order []string
		for _, c := range p.UnmatchedExchange() {
			if p.IsExchangeMatched(c.ID) {
				continue
			}
			if c.Product != crackTrade.Product || c.ContractMonth != crackTrade.ContractMonth {
				continue
			}
			if !ValidateUniversalFields(cfg, crackTrade, c) {
				continue
			}
			key := c.Price.String() + "\x1f" + string(c.BuySell)
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], c)
		}

		var chosenGroup []trade.Trade
		for _, key := range order {
			group := groups[key]
			if len(group) < 2 {
				continue
			}
			total := decimal.Zero
			for _, c := range group {
				total = total.Add(c.QuantityBBL)
			}
			if !withinTolerance(expectedBBL, total, tol.BBL) {
				continue
			}
			if !trade.OptionsCompatible(append([]trade.Trade{crackTrade}, group...)...) {
				continue
			}
			chosenGroup = group
			break
		}
		if chosenGroup == nil {
			continue
		}

		result := match.New(NewMatchID(config.RuleAggregatedCrack), int(config.RuleAggregatedCrack),
			match.TypeAggregatedCrack, confidence, crackTrade, chosenGroup[0],
			match.WithExchangeAdditional(chosenGroup[1:]...),
			match.WithMatchedFields("product", "contract_month", "price", "buy_sell"),
			match.WithTolerancesApplied(map[string]decimal.Decimal{"quantity_bbl": tol.BBL}))
		if err := p.RecordMatch(result); err != nil {
			log.Printf("matchers: rule 11 discarded hypothesis %s: %v", result.MatchID, err)
			continue
		}
		results = append(results, result)
	}
	return results
}
