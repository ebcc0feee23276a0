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

// AggregatedComplexCrackMatcher implements Rule 8: the same crack/base/brent
// triangle as Rule 4, except the base product leg is split across several
// exchange rows sharing an identical price and direction. The rows' summed
// MT quantity stands in for the single base quantity Rule 4 would use.
type AggregatedComplexCrackMatcher struct{}

func (AggregatedComplexCrackMatcher) Rule() config.RuleID { return config.RuleAggregatedComplexCrack }

func (AggregatedComplexCrackMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	confidence, err := cfg.Confidence(config.RuleAggregatedComplexCrack)
	if err != nil {
		log.Printf("matchers: rule 8 skipped, %v", err)
		return results
	}
	tol, err := cfg.ToleranceFor(config.RuleAggregatedComplexCrack)
	if err != nil {
		log.Printf("matchers: rule 8 skipped, %v", err)
		return results
	}

	for _, crackTrade := range p.UnmatchedTrader() {
		if !IsCrackProduct(crackTrade.Product) {
			continue
		}
		baseProduct := ExtractBaseProduct(crackTrade.Product)
		ratio := cfg.ConversionRatio(crackTrade.Product)

		var baseCandidates, brentCandidates []trade.Trade
		for _, c := range p.UnmatchedExchange() {
			if p.IsExchangeMatched(c.ID) {
				continue
			}
			if c.ContractMonth != crackTrade.ContractMonth || !ValidateUniversalFields(cfg, crackTrade, c) {
				continue
			}
			switch c.Product {
			case baseProduct:
				baseCandidates = append(baseCandidates, c)
			case brentSwapProduct:
				brentCandidates = append(brentCandidates, c)
			}
		}

		result := findAggregatedBaseCombination(cfg, crackTrade, baseCandidates, brentCandidates, ratio, confidence, tol)
		if result == nil {
			continue
		}
		if err := p.RecordMatch(*result); err != nil {
			log.Printf("matchers: rule 8 discarded hypothesis %s: %v", result.MatchID, err)
			continue
		}
		results = append(results, *result)
	}
	return results
}

// findAggregatedBaseCombination groups base candidates by (price, buy_sell)
// and tries each group of 2+ rows against each brent candidate.
func findAggregatedBaseCombination(
	cfg config.Config,
	crackTrade trade.Trade,
	baseCandidates, brentCandidates []trade.Trade,
	ratio decimal.Decimal,
	confidence decimal.Decimal,
	tol config.Tolerance,
) *match.Result {
	groups := make(map[string][]trade.Trade)
	var order []string
	for _, b := range baseCandidates {
		key := b.Price.String() + "\x1f" + string(b.BuySell)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], b)
	}

	for _, brent := range brentCandidates {
		for _, key := range order {
			group := groups[key]
			if len(group) < 2 {
				continue
			}
			total := decimal.Zero
			for _, b := range group {
				total = total.Add(b.QuantityMT)
			}
			if !validateAggregatedComplexCrackCombination(crackTrade, group, total, brent, ratio, tol) {
				continue
			}
			result := match.New(NewMatchID(config.RuleAggregatedComplexCrack), int(config.RuleAggregatedComplexCrack),
				match.TypeAggregatedComplexCrack, confidence, crackTrade, group[0],
				match.WithExchangeAdditional(append(append([]trade.Trade{}, group[1:]...), brent)...),
				match.WithMatchedFields("product", "contract_month", "aggregated_quantity", "buy_sell"),
				match.WithTolerancesApplied(map[string]decimal.Decimal{"quantity_mt": tol.MT, "quantity_bbl": tol.BBL}))
			return &result
		}
	}
	return nil
}

func validateAggregatedComplexCrackCombination(
	crackTrade trade.Trade,
	baseTrades []trade.Trade,
	totalBaseQuantity decimal.Decimal,
	brent trade.Trade,
	ratio decimal.Decimal,
	tol config.Tolerance,
) bool {
	if !validDirectionLogic(crackTrade, baseTrades[0], brent) {
		return false
	}
	if !trade.OptionsCompatible(append(append([]trade.Trade{crackTrade}, baseTrades...), brent)...) {
		return false
	}
	if !withinTolerance(crackTrade.QuantityMT, totalBaseQuantity, tol.MT) {
		return false
	}
	if !withinTolerance(crackTrade.QuantityMT.Mul(ratio), brent.QuantityBBL, tol.BBL) {
		return false
	}
	impliedBase := RoundBank2(baseTrades[0].Price.Div(ratio))
	return impliedBase.Sub(brent.Price).Equal(crackTrade.Price)
}
