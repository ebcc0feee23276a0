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

const brentSwapProduct = "brent swap"

// ComplexCrackMatcher implements Rule 4: a trader crack row pairs with two
// exchange rows on the same contract month and universal fields — one on
// the crack's base product, one on brent swap — validated by direction
// logic, quantity tolerances on both legs, and an exact price formula with
// a banker's-rounded intermediate step.
type ComplexCrackMatcher struct{}

func (ComplexCrackMatcher) Rule() config.RuleID { return config.RuleComplexCrack }

// validDirectionLogic implements: sell crack = sell base + buy brent; buy
// crack = buy base + sell brent.
func validDirectionLogic(crack, base, brent trade.Trade) bool {
	if crack.BuySell == trade.Sell {
		return base.BuySell == trade.Sell && brent.BuySell == trade.Buy
	}
	return base.BuySell == trade.Buy && brent.BuySell == trade.Sell
}

func (ComplexCrackMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	confidence, err := cfg.Confidence(config.RuleComplexCrack)
	if err != nil {
		log.Printf("matchers: rule 4 skipped, %v", err)
		return results
	}
	tol, err := cfg.ToleranceFor(config.RuleComplexCrack)
	if err != nil {
		log.Printf("matchers: rule 4 skipped, %v", err)
		return results
	}

	for _, crackTrade := range p.UnmatchedTrader() {
		if !IsCrackProduct(crackTrade.Product) {
			continue
		}
		baseProduct := ExtractBaseProduct(crackTrade.Product)
		ratio := cfg.ConversionRatio(crackTrade.Product)

		var chosenBase, chosenBrent *trade.Trade
		for _, c := range p.UnmatchedExchange() {
			if p.IsExchangeMatched(c.ID) {
				continue
			}
			if c.ContractMonth != crackTrade.ContractMonth || !ValidateUniversalFields(cfg, crackTrade, c) {
				continue
			}
			switch c.Product {
			case baseProduct:
				if chosenBase == nil {
					cc := c
					chosenBase = &cc
				}
			case brentSwapProduct:
				if chosenBrent == nil {
					cc := c
					chosenBrent = &cc
				}
			}
		}
		if chosenBase == nil || chosenBrent == nil {
			continue
		}
		if chosenBase.ID == chosenBrent.ID {
			continue
		}
		if !validDirectionLogic(crackTrade, *chosenBase, *chosenBrent) {
			continue
		}
		if !trade.OptionsCompatible(crackTrade, *chosenBase, *chosenBrent) {
			continue
		}
		if !withinTolerance(crackTrade.QuantityMT, chosenBase.QuantityMT, tol.MT) {
			continue
		}
		if !withinTolerance(crackTrade.QuantityMT.Mul(ratio), chosenBrent.QuantityBBL, tol.BBL) {
			continue
		}

		impliedBase := RoundBank2(chosenBase.Price.Div(ratio))
		impliedCrackPrice := impliedBase.Sub(chosenBrent.Price)
		if !impliedCrackPrice.Equal(crackTrade.Price) {
			continue
		}

		result := match.New(NewMatchID(config.RuleComplexCrack), int(config.RuleComplexCrack), match.TypeComplexCrack,
			confidence, crackTrade, *chosenBase,
			match.WithExchangeAdditional(*chosenBrent),
			match.WithMatchedFields("contract_month", "price_formula"),
			match.WithTolerancesApplied(map[string]decimal.Decimal{
				"quantity_mt": tol.MT, "quantity_bbl": tol.BBL,
			}))
		if err := p.RecordMatch(result); err != nil {
			log.Printf("matchers: rule 4 discarded hypothesis %s: %v", result.MatchID, err)
			continue
		}
		results = append(results, result)
	}
	return results
}
