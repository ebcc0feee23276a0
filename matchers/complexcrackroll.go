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
	"sort"

	"github.com/shopspring/decimal"

	"reconengine/config"
	"reconengine/match"
	"reconengine/pool"
	"reconengine/trade"
)

// ComplexCrackRollMatcher implements Rule 12: a calendar roll between two
// consecutive crack positions. Two trader crack rows (same base product,
// different months, opposite B/S, one priced/one zero) pair against four
// exchange rows — two complete base+brent crack positions, one per month
// — whose roll spread (earlier crack price minus later crack price,
// each via Rule 4's formula) equals the trader's non-zero leg price.
type ComplexCrackRollMatcher struct{}

func (ComplexCrackRollMatcher) Rule() config.RuleID { return config.RuleComplexCrackRoll }

type crackPosition struct {
	Base, Brent trade.Trade
}

func (ComplexCrackRollMatcher) FindMatches(cfg config.Config, p *pool.Pool) []match.Result {
	var results []match.Result

	confidence, err := cfg.Confidence(config.RuleComplexCrackRoll)
	if err != nil {
		log.Printf("matchers: rule 12 skipped, %v", err)
		return results
	}
	tol, err := cfg.ToleranceFor(config.RuleComplexCrackRoll)
	if err != nil {
		log.Printf("matchers: rule 12 skipped, %v", err)
		return results
	}

	pairs := findConsecutiveCrackPairs(cfg, p.UnmatchedTrader(), tol)

	for _, pair := range pairs {
		t1, t2 := pair[0], pair[1]
		if p.IsTraderMatched(t1.ID) || p.IsTraderMatched(t2.ID) {
			continue
		}
		baseProduct := ExtractBaseProduct(t1.Product)
		if baseProduct == "" {
			continue
		}

		positions := make(map[string]crackPosition)
		for _, month := range []string{t1.ContractMonth, t2.ContractMonth} {
			pos, ok := findExchangeCrackPosition(cfg, p, month, baseProduct, t1, tol)
			if ok {
				positions[month] = pos
			}
		}
		if len(positions) != 2 {
			continue
		}

		result := validateAndBuildCrackRoll(cfg, t1, t2, positions, confidence, tol)
		if result == nil {
			continue
		}
		if err := p.RecordMatch(*result); err != nil {
			log.Printf("matchers: rule 12 discarded hypothesis %s: %v", result.MatchID, err)
			continue
		}
		results = append(results, *result)
	}
	return results
}

// findConsecutiveCrackPairs sorts unmatched trader crack trades by id and
// scans a small index window (the next two trades) for pairs satisfying
// the crack-roll pattern.
func findConsecutiveCrackPairs(cfg config.Config, trades []trade.Trade, tol config.Tolerance) [][2]trade.Trade {
	var cracks []trade.Trade
	for _, t := range trades {
		if IsCrackProduct(t.Product) {
			cracks = append(cracks, t)
		}
	}
	sort.Slice(cracks, func(i, j int) bool { return cracks[i].ID < cracks[j].ID })

	var pairs [][2]trade.Trade
	for i := 0; i < len(cracks); i++ {
		for j := i + 1; j < len(cracks) && j < i+3; j++ {
			if validCrackRollPattern(cfg, cracks[i], cracks[j], tol) {
				pairs = append(pairs, [2]trade.Trade{cracks[i], cracks[j]})
			}
		}
	}
	return pairs
}

func validCrackRollPattern(cfg config.Config, a, b trade.Trade, tol config.Tolerance) bool {
	if a.Product != b.Product {
		return false
	}
	if a.ContractMonth == b.ContractMonth {
		return false
	}
	if a.BuySell == b.BuySell {
		return false
	}
	zeroCount := 0
	if a.Price.IsZero() {
		zeroCount++
	}
	if b.Price.IsZero() {
		zeroCount++
	}
	if zeroCount != 1 {
		return false
	}
	if !withinTolerance(a.QuantityMT, b.QuantityMT, tol.MT) {
		return false
	}
	return ValidateUniversalFields(cfg, a, b)
}

// findExchangeCrackPosition locates one base-product row and one brent
// swap row for the given contract month, validated against the reference
// trader crack trade's quantity via the MT<->BBL conversion.
func findExchangeCrackPosition(
	cfg config.Config,
	p *pool.Pool,
	month, baseProduct string,
	reference trade.Trade,
	tol config.Tolerance,
) (crackPosition, bool) {
	var base, brent *trade.Trade
	for _, c := range p.UnmatchedExchange() {
		if p.IsExchangeMatched(c.ID) {
			continue
		}
		if c.ContractMonth != month || !ValidateUniversalFields(cfg, c, reference) {
			continue
		}
		switch c.Product {
		case baseProduct:
			if base == nil {
				cc := c
				base = &cc
			}
		case brentSwapProduct:
			if brent == nil {
				cc := c
				brent = &cc
			}
		}
	}
	if base == nil || brent == nil {
		return crackPosition{}, false
	}

	ratio := cfg.ConversionRatio(reference.Product)
	refBBL := reference.QuantityMT.Mul(ratio)
	if !withinTolerance(base.QuantityMT.Mul(ratio), refBBL, tol.BBL) {
		return crackPosition{}, false
	}
	if !withinTolerance(refBBL, brent.QuantityBBL, tol.BBL) {
		return crackPosition{}, false
	}
	return crackPosition{Base: *base, Brent: *brent}, true
}

func calculateCrackPrice(base, brent trade.Trade, ratio decimal.Decimal) decimal.Decimal {
	basePerBBL := RoundBank2(base.Price.Div(ratio))
	return basePerBBL.Sub(brent.Price)
}

func validateAndBuildCrackRoll(
	cfg config.Config,
	t1, t2 trade.Trade,
	positions map[string]crackPosition,
	confidence decimal.Decimal,
	tol config.Tolerance,
) *match.Result {
	crackPrices := make(map[string]decimal.Decimal)
	for month, pos := range positions {
		traderForMonth := t1
		if t2.ContractMonth == month {
			traderForMonth = t2
		}
		ratio := cfg.ConversionRatio(traderForMonth.Product)
		crackPrices[month] = calculateCrackPrice(pos.Base, pos.Brent, ratio)
	}

	for _, t := range []trade.Trade{t1, t2} {
		pos := positions[t.ContractMonth]
		if !validDirectionLogic(t, pos.Base, pos.Brent) {
			return nil
		}
	}

	earlier, later := monthOrderedPair(t1, t2)
	rollSpread := crackPrices[earlier.ContractMonth].Sub(crackPrices[later.ContractMonth])
	traderSpreadPrice := earlier.Price
	if traderSpreadPrice.IsZero() {
		traderSpreadPrice = later.Price
	}
	if !rollSpread.Equal(traderSpreadPrice) {
		return nil
	}

	pos1 := positions[t1.ContractMonth]
	pos2 := positions[t2.ContractMonth]
	allExchange := []trade.Trade{pos1.Base, pos1.Brent, pos2.Base, pos2.Brent}
	if !trade.OptionsCompatible(append([]trade.Trade{t1, t2}, allExchange...)...) {
		return nil
	}

	result := match.New(NewMatchID(config.RuleComplexCrackRoll), int(config.RuleComplexCrackRoll),
		match.TypeComplexCrackRoll, confidence, t1, allExchange[0],
		match.WithTraderAdditional(t2),
		match.WithExchangeAdditional(allExchange[1:]...),
		match.WithMatchedFields("crack_products", "contract_months", "crack_roll_spread", "direction_logic"),
		match.WithTolerancesApplied(map[string]decimal.Decimal{"quantity_mt": tol.MT, "quantity_bbl": tol.BBL}))
	return &result
}
