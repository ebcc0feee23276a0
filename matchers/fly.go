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

// FlyMatcher implements Rule 6: a butterfly spread across three contract
// months. Quantities on the two outer legs sum to the middle leg; the
// outer legs share a direction opposite the middle leg.
type FlyMatcher struct{}

func (FlyMatcher) Rule() config.RuleID { return config.RuleFly }

// sortByMonth returns the three trades ordered earliest to latest contract
// month.
func sortByMonth(trades [3]trade.Trade) [3]trade.Trade {
	out := trades
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if trade.MonthBefore(out[j].ContractMonth, out[i].ContractMonth) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// isValidFlyGroup is the shared predicate for both trader and exchange fly
// triplets: same product, three distinct months, quantity relationship
// X+Z=Y on the month-sorted legs, outer legs same direction, middle leg
// opposite, and universal-field agreement.
func isValidFlyGroup(cfg config.Config, trades [3]trade.Trade) bool {
	months := map[string]bool{}
	for _, t := range trades {
		months[t.ContractMonth] = true
	}
	if len(months) != 3 {
		return false
	}
	for i := 1; i < 3; i++ {
		if trades[i].Product != trades[0].Product {
			return false
		}
	}
	sorted := sortByMonth(trades)
	x, y, z := sorted[0], sorted[1], sorted[2]
	if !x.QuantityMT.Add(z.QuantityMT).Equal(y.QuantityMT) {
		return false
	}
	if x.BuySell != z.BuySell || x.BuySell == y.BuySell {
		return false
	}
	return ValidateUniversalFieldsAll(cfg, x, y, z) && trade.OptionsCompatible(x, y, z)
}

func findTraderFlyGroups(cfg config.Config, trades []trade.Trade) [][3]trade.Trade {
	buckets := make(map[string][]trade.Trade)
	for _, t := range trades {
		if t.SpreadFlag == nil || *t.SpreadFlag != "S" {
			continue
		}
		key := t.Product + "\x1f"
		for _, p := range matchkey.UniversalParts(cfg, t) {
			key += p + "\x1f"
		}
		buckets[key] = append(buckets[key], t)
	}

	var groups [][3]trade.Trade
	for _, bucket := range buckets {
		if len(bucket) < 3 {
			continue
		}
		byMonth := make(map[string][]trade.Trade)
		for _, t := range bucket {
			byMonth[t.ContractMonth] = append(byMonth[t.ContractMonth], t)
		}
		months := make([]string, 0, len(byMonth))
		for m := range byMonth {
			months = append(months, m)
		}
		for i := 0; i < len(months); i++ {
			for j := i + 1; j < len(months); j++ {
				for k := j + 1; k < len(months); k++ {
					for _, a := range byMonth[months[i]] {
						for _, b := range byMonth[months[j]] {
							for _, c := range byMonth[months[k]] {
								candidate := [3]trade.Trade{a, b, c}
								if isValidFlyGroup(cfg, candidate) {
									groups = append(groups, candidate)
								}
							}
						}
					}
				}
			}
		}
	}
	return groups
}

func findExchangeFlyGroups(cfg config.Config, trades []trade.Trade) [][3]trade.Trade {
	var groups [][3]trade.Trade
	for _, group := range groupByDealID(trades) {
		if len(group) < 3 {
			continue
		}
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				for k := j + 1; k < len(group); k++ {
					candidate := [3]trade.Trade{group[i], group[j], group[k]}
					if isValidFlyGroup(cfg, candidate) {
						groups = append(groups, candidate)
					}
				}
			}
		}
	}
	return groups
}

func (FlyMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	confidence, err := cfg.Confidence(config.RuleFly)
	if err != nil {
		log.Printf("matchers: rule 6 skipped, %v", err)
		return results
	}

	traderGroups := findTraderFlyGroups(cfg, p.UnmatchedTrader())
	exchangeGroups := findExchangeFlyGroups(cfg, p.UnmatchedExchange())

	for _, tg := range traderGroups {
		if p.IsTraderMatched(tg[0].ID) || p.IsTraderMatched(tg[1].ID) || p.IsTraderMatched(tg[2].ID) {
			continue
		}
		for _, eg := range exchangeGroups {
			if p.IsExchangeMatched(eg[0].ID) || p.IsExchangeMatched(eg[1].ID) || p.IsExchangeMatched(eg[2].ID) {
				continue
			}
			if !validateFlyMatch(tg, eg) {
				continue
			}
			if !ValidateUniversalFields(cfg, tg[0], eg[0]) || !trade.OptionsCompatible(tg[0], tg[1], tg[2], eg[0], eg[1], eg[2]) {
				continue
			}
			ts := sortByMonth(tg)
			es := sortByMonth(eg)
			result := match.New(NewMatchID(config.RuleFly), int(config.RuleFly), match.TypeFly,
				confidence, ts[0], es[0],
				match.WithTraderAdditional(ts[1], ts[2]),
				match.WithExchangeAdditional(es[1], es[2]),
				match.WithMatchedFields("product", "contract_months", "fly_price"))
			if err := p.RecordMatch(result); err != nil {
				log.Printf("matchers: rule 6 discarded hypothesis %s: %v", result.MatchID, err)
				continue
			}
			results = append(results, result)
			break
		}
	}
	return results
}

func validateFlyMatch(trader, exchange [3]trade.Trade) bool {
	traderProducts := map[string]bool{}
	exchangeProducts := map[string]bool{}
	traderMonths := map[string]trade.Side{}
	exchangeMonths := map[string]trade.Side{}
	for i := 0; i < 3; i++ {
		traderProducts[trader[i].Product] = true
		exchangeProducts[exchange[i].Product] = true
		traderMonths[trader[i].ContractMonth] = trader[i].BuySell
		exchangeMonths[exchange[i].ContractMonth] = exchange[i].BuySell
	}
	if len(traderProducts) != 1 || len(exchangeProducts) != 1 {
		return false
	}
	for p := range traderProducts {
		if !exchangeProducts[p] {
			return false
		}
	}
	if len(traderMonths) != 3 || len(exchangeMonths) != 3 {
		return false
	}
	for month, side := range traderMonths {
		exSide, ok := exchangeMonths[month]
		if !ok || exSide != side {
			return false
		}
	}

	ts := sortByMonth(trader)
	es := sortByMonth(exchange)
	traderFlyPrice := ts[0].Price
	if traderFlyPrice.IsZero() {
		traderFlyPrice = ts[1].Price
		if traderFlyPrice.IsZero() {
			traderFlyPrice = ts[2].Price
		}
	}
	exchangeFlyPrice := es[0].Price.Sub(es[1].Price).Add(es[2].Price.Sub(es[1].Price))
	return traderFlyPrice.Equal(exchangeFlyPrice)
}
