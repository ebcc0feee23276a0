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

package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNew_DefaultConfidenceDescendsFromExact(t *testing.T) {
	c := New()
	exact, err := c.Confidence(RuleExact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exact.Equal(decimal.NewFromInt(100)) {
		t.Errorf("RuleExact confidence = %s, want 100", exact)
	}
	spread, _ := c.Confidence(RuleSpread)
	if spread.GreaterThanOrEqual(exact) {
		t.Errorf("RuleSpread confidence %s should be below RuleExact %s", spread, exact)
	}
}

func TestNew_ExactAndAggregationHaveZeroTolerance(t *testing.T) {
	c := New()
	tol, err := c.ToleranceFor(RuleExact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tol.MT.IsZero() || !tol.BBL.IsZero() {
		t.Errorf("RuleExact tolerance = %+v, want zero", tol)
	}
}

func TestConversionRatio_KnownOverridesAndDefault(t *testing.T) {
	c := New()
	cases := []struct {
		product string
		want    decimal.Decimal
	}{
		{"marine 0.5% crack", decimal.NewFromFloat(6.35)},
		{"380cst crack", decimal.NewFromFloat(6.35)},
		{"naphtha crack", decimal.NewFromFloat(8.9)},
		{"FE", decimal.NewFromFloat(7.0)},
	}
	for _, tc := range cases {
		got := c.ConversionRatio(tc.product)
		if !got.Equal(tc.want) {
			t.Errorf("ConversionRatio(%q) = %s, want %s", tc.product, got, tc.want)
		}
	}
}

func TestConfidence_UnknownRuleErrors(t *testing.T) {
	c := New()
	if _, err := c.Confidence(RuleID(999)); err != ErrUnknownRule {
		t.Fatalf("expected ErrUnknownRule, got %v", err)
	}
}

func TestOrder_ReturnsDefensiveCopy(t *testing.T) {
	c := New()
	order := c.Order()
	order[0] = RuleID(999)
	if c.Order()[0] != RuleExact {
		t.Fatalf("mutating Order() result affected Config internals")
	}
}

func TestWithOrder_OverridesDefault(t *testing.T) {
	c := New(WithOrder([]RuleID{RuleCrack, RuleExact}))
	got := c.Order()
	if len(got) != 2 || got[0] != RuleCrack || got[1] != RuleExact {
		t.Fatalf("Order() = %v, want [RuleCrack RuleExact]", got)
	}
}
