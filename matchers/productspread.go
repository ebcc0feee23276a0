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
	"strings"

	"reconengine/config"
	"reconengine/match"
	"reconengine/pool"
	"reconengine/trade"
)

// ProductSpreadMatcher implements Rule 5 along both of its paths. On the
// hyphenated path the exchange reports a product spread (e.g. "marine
// 0.5%-380cst") as a single row while the trader reports the two component
// products separately, one leg carrying the spread price and the other
// priced at zero. On the two-leg path both sides report two rows, one per
// product, and the exchange rows' price differential must equal the
// trader's non-zero leg price. Quantities that only align after
// aggregation are declined here and left for Rule 13.
type ProductSpreadMatcher struct{}

func (ProductSpreadMatcher) Rule() config.RuleID { return config.RuleProductSpread }

// splitHyphenatedProduct parses "first-second" into its two components.
// Returns ok=false if the name isn't a two-part hyphenated product.
func splitHyphenatedProduct(product string) (first, second string, ok bool) {
	idx := strings.Index(product, "-")
	if idx < 0 {
		return "", "", false
	}
	first = strings.TrimSpace(product[:idx])
	second = strings.TrimSpace(product[idx+1:])
	if first == "" || second == "" {
		return "", "", false
	}
	return first, second, true
}

// validProductSpreadDirection implements: sell spread = sell first + buy
// second; buy spread = buy first + sell second.
func validProductSpreadDirection(spread, first, second trade.Trade) bool {
	if spread.BuySell == trade.Sell {
		return first.BuySell == trade.Sell && second.BuySell == trade.Buy
	}
	return first.BuySell == trade.Buy && second.BuySell == trade.Sell
}

func (ProductSpreadMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	confidence := cfg.ProductSpreadTierConfidence[0]

	for _, exchangeTrade := range p.UnmatchedExchange() {
		if p.IsExchangeMatched(exchangeTrade.ID) {
			continue
		}
		firstProduct, secondProduct, ok := splitHyphenatedProduct(exchangeTrade.Product)
		if !ok {
			continue
		}

		var firstTrade, secondTrade *trade.Trade
		for _, t := range p.UnmatchedTrader() {
			if p.IsTraderMatched(t.ID) {
				continue
			}
			if t.ContractMonth != exchangeTrade.ContractMonth || !t.QuantityMT.Equal(exchangeTrade.QuantityMT) {
				continue
			}
			if !ValidateUniversalFields(cfg, t, exchangeTrade) {
				continue
			}
			switch t.Product {
			case firstProduct:
				if firstTrade == nil {
					tt := t
					firstTrade = &tt
				}
			case secondProduct:
				if secondTrade == nil {
					tt := t
					secondTrade = &tt
				}
			}
		}
		if firstTrade == nil || secondTrade == nil || firstTrade.ID == secondTrade.ID {
			continue
		}

		hasZero := firstTrade.Price.IsZero() || secondTrade.Price.IsZero()
		hasNonzero := !firstTrade.Price.IsZero() || !secondTrade.Price.IsZero()
		oppositeDirections := firstTrade.BuySell != secondTrade.BuySell
		if !hasZero || !hasNonzero || !oppositeDirections {
			continue
		}
		if !validProductSpreadDirection(exchangeTrade, *firstTrade, *secondTrade) {
			continue
		}
		if !trade.OptionsCompatible(exchangeTrade, *firstTrade, *secondTrade) {
			continue
		}
		if !firstTrade.Price.Sub(secondTrade.Price).Equal(exchangeTrade.Price) {
			continue
		}

		result := match.New(NewMatchID(config.RuleProductSpread), int(config.RuleProductSpread), match.TypeProductSpread,
			confidence, *firstTrade, exchangeTrade,
			match.WithTraderAdditional(*secondTrade),
			match.WithMatchedFields("contract_month", "quantity_mt"),
			match.WithDifferingFields("product", "price"))
		if err := p.RecordMatch(result); err != nil {
			log.Printf("matchers: rule 5 discarded hypothesis %s: %v", result.MatchID, err)
			continue
		}
		results = append(results, result)
	}

	results = append(results, findTwoLegProductSpreads(cfg, p)...)
	return results
}

// findTwoLegProductSpreads is Rule 5's two-leg path: a trader pair on two
// distinct products against two exchange outright rows on those same
// products. Products, months, directions and quantities must align
// pairwise; only the prices differ, by exactly the trader's spread price.
func findTwoLegProductSpreads(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result
	confidence := cfg.ProductSpreadTierConfidence[1]

	for _, pair := range findTraderProductSpreadPairs(cfg, p.UnmatchedTrader()) {
		priced, zero := pair[0], pair[1]
		if p.IsTraderMatched(priced.ID) || p.IsTraderMatched(zero.ID) {
			continue
		}

		var pricedLeg, zeroLeg *trade.Trade
		for _, c := range p.UnmatchedExchange() {
			if p.IsExchangeMatched(c.ID) {
				continue
			}
			if c.ContractMonth != priced.ContractMonth || !ValidateUniversalFields(cfg, priced, c) {
				continue
			}
			switch {
			case pricedLeg == nil && c.Product == priced.Product &&
				c.BuySell == priced.BuySell && c.QuantityMT.Equal(priced.QuantityMT):
				cc := c
				pricedLeg = &cc
			case zeroLeg == nil && c.Product == zero.Product &&
				c.BuySell == zero.BuySell && c.QuantityMT.Equal(zero.QuantityMT):
				cc := c
				zeroLeg = &cc
			}
		}
		if pricedLeg == nil || zeroLeg == nil {
			continue
		}
		if !trade.OptionsCompatible(priced, zero, *pricedLeg, *zeroLeg) {
			continue
		}
		if !pricedLeg.Price.Sub(zeroLeg.Price).Equal(priced.Price) {
			continue
		}

		result := match.New(NewMatchID(config.RuleProductSpread), int(config.RuleProductSpread), match.TypeProductSpread,
			confidence, priced, *pricedLeg,
			match.WithTraderAdditional(zero),
			match.WithExchangeAdditional(*zeroLeg),
			match.WithMatchedFields("contract_month", "quantity_mt", "products"),
			match.WithDifferingFields("price"))
		if err := p.RecordMatch(result); err != nil {
			log.Printf("matchers: rule 5 discarded hypothesis %s: %v", result.MatchID, err)
			continue
		}
		results = append(results, result)
	}
	return results
}
