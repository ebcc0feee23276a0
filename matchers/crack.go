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

// CrackMatcher implements Rule 3: a trader crack row (MT-native) against a
// BBL-native exchange crack row on the same signature, validated by a
// one-way MT->BBL conversion within the universal BBL tolerance.
type CrackMatcher struct{}

func (CrackMatcher) Rule() config.RuleID { return config.RuleCrack }

func crackSignature(cfg config.Config, t trade.Trade) matchkey.Key {
	parts := append([]string{t.Product, t.ContractMonth, t.Price.String(), string(t.BuySell)},
		matchkey.UniversalParts(cfg, t)...)
	return matchkey.Build(parts...)
}

func (CrackMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	var exchangeCracks []trade.Trade
	for _, t := range p.UnmatchedExchange() {
		if IsCrackProduct(t.Product) && t.Unit == trade.UnitBBL {
			exchangeCracks = append(exchangeCracks, t)
		}
	}
	exchangeIdx := matchkey.BuildIndex(exchangeCracks, func(t trade.Trade) matchkey.Key {
		return crackSignature(cfg, t)
	})

	confidence, err := cfg.Confidence(config.RuleCrack)
	if err != nil {
		log.Printf("matchers: rule 3 skipped, %v", err)
		return results
	}
	tol, err := cfg.ToleranceFor(config.RuleCrack)
	if err != nil {
		log.Printf("matchers: rule 3 skipped, %v", err)
		return results
	}

	for _, traderTrade := range p.UnmatchedTrader() {
		if !IsCrackProduct(traderTrade.Product) || traderTrade.Unit != trade.UnitMT {
			continue
		}
		k := crackSignature(cfg, traderTrade)
		ratio := cfg.ConversionRatio(traderTrade.Product)
		expectedBBL := traderTrade.QuantityMT.Mul(ratio)

		var chosen *trade.Trade
		for _, c := range exchangeIdx.Candidates(k) {
			if p.IsExchangeMatched(c.ID) {
				continue
			}
			if withinTolerance(expectedBBL, c.QuantityBBL, tol.BBL) && trade.OptionsCompatible(traderTrade, c) {
				chosen = &c
				break
			}
		}
		if chosen == nil {
			continue
		}
		exchangeIdx.Consume(k, chosen.ID)

		result := match.New(NewMatchID(config.RuleCrack), int(config.RuleCrack), match.TypeCrack,
			confidence, traderTrade, *chosen,
			match.WithMatchedFields("product", "contract_month", "price", "buy_sell"),
			match.WithTolerancesApplied(map[string]decimal.Decimal{"quantity_bbl": tol.BBL}))
		if err := p.RecordMatch(result); err != nil {
			log.Printf("matchers: rule 3 discarded hypothesis %s: %v", result.MatchID, err)
			continue
		}
		results = append(results, result)
	}
	return results
}
