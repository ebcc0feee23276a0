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

// MultilegSpreadMatcher implements Rule 10: two trader spread legs matched
// against a chain of pre-identified elementary exchange spreads whose
// months net out to the trader's outer months, with internal legs
// cancelling in direction. Tier 1 chains two elementary spreads (A/B +
// B/C = A/C); Tier 2 chains three (A/B + B/C + C/D = A/D).
type MultilegSpreadMatcher struct{}

func (MultilegSpreadMatcher) Rule() config.RuleID { return config.RuleMultilegSpread }

// elementarySpread is a validated 2-leg exchange spread, legs ordered
// chronologically, ready to be chained with another spread.
type elementarySpread struct {
	Leg1, Leg2 trade.Trade
	Price      decimal.Decimal
	Months     [2]string
}

func buildElementarySpreads(cfg config.Config, trades []trade.Trade) []elementarySpread {
	buckets := make(map[string][]trade.Trade)
	for _, t := range trades {
		key := spreadGroupKey(cfg, t)
		buckets[key] = append(buckets[key], t)
	}
	var spreads []elementarySpread
	for _, bucket := range buckets {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				a, b := bucket[i], bucket[j]
				if !isCalendarLegPair(a, b) || !trade.OptionsCompatible(a, b) {
					continue
				}
				earlier, later := monthOrderedPair(a, b)
				spreads = append(spreads, elementarySpread{
					Leg1: earlier, Leg2: later,
					Price:  earlier.Price.Sub(later.Price),
					Months: [2]string{earlier.ContractMonth, later.ContractMonth},
				})
			}
		}
	}
	return spreads
}

// netSpreadWith computes the net (startMonth, endMonth, price) when s
// chains with other, sharing one boundary month, or ok=false if they
// don't share one.
func (s elementarySpread) netSpreadWith(other elementarySpread) (start, end string, price decimal.Decimal, ok bool) {
	if s.Months[1] == other.Months[0] {
		return s.Months[0], other.Months[1], s.Price.Add(other.Price), true
	}
	if other.Months[1] == s.Months[0] {
		return other.Months[0], s.Months[1], other.Price.Add(s.Price), true
	}
	return "", "", decimal.Zero, false
}

func (MultilegSpreadMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	confidence, err := cfg.Confidence(config.RuleMultilegSpread)
	if err != nil {
		log.Printf("matchers: rule 10 skipped, %v", err)
		return results
	}

	traderPairs := findAggregatedSpreadTraderPairs(cfg, p.UnmatchedTrader())

	for _, pair := range traderPairs {
		priceLeg, zeroLeg := pair[0], pair[1]
		if p.IsTraderMatched(priceLeg.ID) || p.IsTraderMatched(zeroLeg.ID) {
			continue
		}
		traderEarlier, traderLater := monthOrderedPair(priceLeg, zeroLeg)
		targetPrice := priceLeg.Price
		targetQuantity := priceLeg.QuantityMT
		targetProduct := priceLeg.Product

		allSpreads := buildElementarySpreads(cfg, p.UnmatchedExchange())
		var matching []elementarySpread
		for _, s := range allSpreads {
			if s.Leg1.Product != targetProduct || !s.Leg1.QuantityMT.Equal(targetQuantity) {
				continue
			}
			if !ValidateUniversalFields(cfg, s.Leg1, priceLeg) {
				continue
			}
			if p.IsExchangeMatched(s.Leg1.ID) || p.IsExchangeMatched(s.Leg2.ID) {
				continue
			}
			matching = append(matching, s)
		}
		if len(matching) < 2 {
			continue
		}

		result := findTier1Netting(matching, traderEarlier, traderLater, targetPrice, pair, confidence)
		if result == nil && len(matching) >= 3 {
			result = findTier2Netting(matching, traderEarlier, traderLater, targetPrice, pair, confidence)
		}
		if result == nil {
			continue
		}
		if !trade.OptionsCompatible(append(result.AllTraderTrades(), result.AllExchangeTrades()...)...) {
			continue
		}
		if err := p.RecordMatch(*result); err != nil {
			log.Printf("matchers: rule 10 discarded hypothesis %s: %v", result.MatchID, err)
			continue
		}
		results = append(results, *result)
	}
	return results
}

func findTier1Netting(
	spreads []elementarySpread,
	traderEarlier, traderLater trade.Trade,
	targetPrice decimal.Decimal,
	traderPair [2]trade.Trade,
	confidence decimal.Decimal,
) *match.Result {
	for i := 0; i < len(spreads); i++ {
		for j := i + 1; j < len(spreads); j++ {
			s1, s2 := spreads[i], spreads[j]

			var outerEarlier, outerLater, nettingLeg1, nettingLeg2 trade.Trade
			var netPrice decimal.Decimal
			switch {
			case s1.Months[1] == s2.Months[0]:
				outerEarlier, outerLater = s1.Leg1, s2.Leg2
				nettingLeg1, nettingLeg2 = s1.Leg2, s2.Leg1
				netPrice = s1.Price.Add(s2.Price)
			case s2.Months[1] == s1.Months[0]:
				outerEarlier, outerLater = s2.Leg1, s1.Leg2
				nettingLeg1, nettingLeg2 = s2.Leg2, s1.Leg1
				netPrice = s2.Price.Add(s1.Price)
			default:
				continue
			}

			if nettingLeg1.BuySell == nettingLeg2.BuySell {
				continue
			}
			if outerEarlier.ContractMonth != traderEarlier.ContractMonth || outerEarlier.BuySell != traderEarlier.BuySell {
				continue
			}
			if outerLater.ContractMonth != traderLater.ContractMonth || outerLater.BuySell != traderLater.BuySell {
				continue
			}
			if !netPrice.Equal(targetPrice) {
				continue
			}

			result := match.New(NewMatchID(config.RuleMultilegSpread), int(config.RuleMultilegSpread),
				match.TypeMultilegSpread, confidence, traderPair[0], s1.Leg1,
				match.WithTraderAdditional(traderPair[1]),
				match.WithExchangeAdditional(s1.Leg2, s2.Leg1, s2.Leg2),
				match.WithMatchedFields("product", "quantity"),
				match.WithDifferingFields("net_spread_price"))
			return &result
		}
	}
	return nil
}

func findTier2Netting(
	spreads []elementarySpread,
	traderEarlier, traderLater trade.Trade,
	targetPrice decimal.Decimal,
	traderPair [2]trade.Trade,
	confidence decimal.Decimal,
) *match.Result {
	n := len(spreads)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			for k := 0; k < n; k++ {
				if k == i || k == j {
					continue
				}
				first, second, third := spreads[i], spreads[j], spreads[k]

				_, _, interPrice, ok := first.netSpreadWith(second)
				if !ok {
					continue
				}
				var interEarlier, interLater trade.Trade
				if first.Months[1] == second.Months[0] {
					if first.Leg2.BuySell == second.Leg1.BuySell {
						continue
					}
					interEarlier, interLater = first.Leg1, second.Leg2
				} else {
					if second.Leg2.BuySell == first.Leg1.BuySell {
						continue
					}
					interEarlier, interLater = second.Leg1, first.Leg2
				}

				var finalEarlier, finalLater trade.Trade
				var finalPrice decimal.Decimal
				switch {
				case interLater.ContractMonth == third.Months[0] && interLater.BuySell != third.Leg1.BuySell:
					finalPrice = interPrice.Add(third.Price)
					finalEarlier, finalLater = interEarlier, third.Leg2
				case interEarlier.ContractMonth == third.Months[1] && interEarlier.BuySell != third.Leg2.BuySell:
					finalPrice = third.Price.Add(interPrice)
					finalEarlier, finalLater = third.Leg1, interLater
				default:
					continue
				}

				if finalEarlier.ContractMonth != traderEarlier.ContractMonth || finalEarlier.BuySell != traderEarlier.BuySell {
					continue
				}
				if finalLater.ContractMonth != traderLater.ContractMonth || finalLater.BuySell != traderLater.BuySell {
					continue
				}
				if !finalPrice.Equal(targetPrice) {
					continue
				}

				result := match.New(NewMatchID(config.RuleMultilegSpread), int(config.RuleMultilegSpread),
					match.TypeMultilegSpread, confidence, traderPair[0], first.Leg1,
					match.WithTraderAdditional(traderPair[1]),
					match.WithExchangeAdditional(first.Leg2, second.Leg1, second.Leg2, third.Leg1, third.Leg2),
					match.WithMatchedFields("product", "quantity"),
					match.WithDifferingFields("net_spread_price"))
				return &result
			}
		}
	}
	return nil
}
