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

// Package pool is the single source of truth for which trades remain
// unmatched during one reconciliation run. The engine owns one Pool per
// run; every rule matcher reads it through read-only queries and writes to
// it only by committing a complete match.Result via RecordMatch.
package pool

import (
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"reconengine/match"
	"reconengine/trade"
)

// ErrUnknownTrade is returned by RecordMatch when a Result names a trade id
// the Pool never received.
var ErrUnknownTrade = errors.New("pool: unknown trade id")

// ErrAlreadyMatched is returned by RecordMatch when a Result names a trade
// id that a previous match already consumed.
var ErrAlreadyMatched = errors.New("pool: trade already matched")

// historyEntry is one line of the append-only audit trail: which trader and
// exchange ids were consumed together, and under which rule.
type historyEntry struct {
	TraderIDs   []string
	ExchangeIDs []string
	RuleNumber  int
	MatchID     string
}

// Pool holds two independent trade universes (trader side, exchange side)
// and tracks which ids have been consumed by a committed match. Insertion
// order is preserved throughout so iteration over available trades is
// deterministic across runs.
type Pool struct {
	traderOrder   []string
	traderByID    map[string]trade.Trade
	exchangeOrder []string
	exchangeByID  map[string]trade.Trade

	matchedTrader   map[string]bool
	matchedExchange map[string]bool

	history []historyEntry
	matches []match.Result
}

// New builds a Pool from the full trader and exchange trade sequences for
// one reconciliation run.
func New(traderTrades, exchangeTrades []trade.Trade) *Pool {
	p := &Pool{
		traderByID:      make(map[string]trade.Trade, len(traderTrades)),
		exchangeByID:    make(map[string]trade.Trade, len(exchangeTrades)),
		matchedTrader:   make(map[string]bool),
		matchedExchange: make(map[string]bool),
	}
	for _, t := range traderTrades {
		if _, dup := p.traderByID[t.ID]; dup {
			continue
		}
		p.traderOrder = append(p.traderOrder, t.ID)
		p.traderByID[t.ID] = t
	}
	for _, t := range exchangeTrades {
		if _, dup := p.exchangeByID[t.ID]; dup {
			continue
		}
		p.exchangeOrder = append(p.exchangeOrder, t.ID)
		p.exchangeByID[t.ID] = t
	}
	return p
}

// IsTraderMatched reports whether the trader trade with this id has already
// been consumed by a committed match.
func (p *Pool) IsTraderMatched(id string) bool { return p.matchedTrader[id] }

// IsExchangeMatched reports whether the exchange trade with this id has
// already been consumed by a committed match.
func (p *Pool) IsExchangeMatched(id string) bool { return p.matchedExchange[id] }

// UnmatchedTrader returns the trader trades not yet consumed by any match,
// in original insertion order. The returned slice is a fresh copy; callers
// may not mutate Pool state through it.
func (p *Pool) UnmatchedTrader() []trade.Trade {
	out := make([]trade.Trade, 0, len(p.traderOrder))
	for _, id := range p.traderOrder {
		if !p.matchedTrader[id] {
			out = append(out, p.traderByID[id])
		}
	}
	return out
}

// UnmatchedExchange returns the exchange trades not yet consumed by any
// match, in original insertion order.
func (p *Pool) UnmatchedExchange() []trade.Trade {
	out := make([]trade.Trade, 0, len(p.exchangeOrder))
	for _, id := range p.exchangeOrder {
		if !p.matchedExchange[id] {
			out = append(out, p.exchangeByID[id])
		}
	}
	return out
}

// RecordMatch atomically commits a complete match.Result: every trader and
// exchange trade it names is validated as known-and-unmatched before any
// state changes, so a rejected hypothesis never leaves the Pool partially
// mutated.
func (p *Pool) RecordMatch(result match.Result) error {
	traderTrades := result.AllTraderTrades()
	exchangeTrades := result.AllExchangeTrades()

	for _, t := range traderTrades {
		if _, known := p.traderByID[t.ID]; !known {
			log.Printf("pool: reject match %s: unknown trader trade %s", result.MatchID, t.ID)
			return fmt.Errorf("trader trade %s: %w", t.ID, ErrUnknownTrade)
		}
		if p.matchedTrader[t.ID] {
			log.Printf("pool: reject match %s: trader trade %s already matched", result.MatchID, t.ID)
			return fmt.Errorf("trader trade %s: %w", t.ID, ErrAlreadyMatched)
		}
	}
	for _, t := range exchangeTrades {
		if _, known := p.exchangeByID[t.ID]; !known {
			log.Printf("pool: reject match %s: unknown exchange trade %s", result.MatchID, t.ID)
			return fmt.Errorf("exchange trade %s: %w", t.ID, ErrUnknownTrade)
		}
		if p.matchedExchange[t.ID] {
			log.Printf("pool: reject match %s: exchange trade %s already matched", result.MatchID, t.ID)
			return fmt.Errorf("exchange trade %s: %w", t.ID, ErrAlreadyMatched)
		}
	}

	traderIDs := make([]string, len(traderTrades))
	for i, t := range traderTrades {
		p.matchedTrader[t.ID] = true
		traderIDs[i] = t.ID
	}
	exchangeIDs := make([]string, len(exchangeTrades))
	for i, t := range exchangeTrades {
		p.matchedExchange[t.ID] = true
		exchangeIDs[i] = t.ID
	}

	p.matches = append(p.matches, result)
	p.history = append(p.history, historyEntry{
		TraderIDs:   traderIDs,
		ExchangeIDs: exchangeIDs,
		RuleNumber:  result.RuleNumber,
		MatchID:     result.MatchID,
	})
	return nil
}

// Matches returns every match committed so far, in commit order.
func (p *Pool) Matches() []match.Result {
	out := make([]match.Result, len(p.matches))
	copy(out, p.matches)
	return out
}

// Statistics summarises the Pool's current state. Rates are percentages;
// OverallRate weighs the two sides equally regardless of their sizes.
type Statistics struct {
	TotalTrader     int
	TotalExchange   int
	MatchedTrader   int
	MatchedExchange int
	MatchCount      int

	TraderRate   decimal.Decimal
	ExchangeRate decimal.Decimal
	OverallRate  decimal.Decimal
}

// Statistics computes a point-in-time summary of how much of each side has
// been matched.
func (p *Pool) Statistics() Statistics {
	s := Statistics{
		TotalTrader:     len(p.traderOrder),
		TotalExchange:   len(p.exchangeOrder),
		MatchedTrader:   len(p.matchedTrader),
		MatchedExchange: len(p.matchedExchange),
		MatchCount:      len(p.matches),
	}
	s.TraderRate = matchRate(s.MatchedTrader, s.TotalTrader)
	s.ExchangeRate = matchRate(s.MatchedExchange, s.TotalExchange)
	s.OverallRate = s.TraderRate.Add(s.ExchangeRate).Div(decimal.NewFromInt(2))
	return s
}

func matchRate(matched, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(matched)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total)))
}

// ValidateIntegrity re-derives matched/unmatched membership from the
// committed match history and confirms it agrees with the Pool's own
// bookkeeping. A mismatch indicates a bug in RecordMatch, not bad input.
func (p *Pool) ValidateIntegrity() bool {
	traderSeen := make(map[string]bool)
	exchangeSeen := make(map[string]bool)
	for _, h := range p.history {
		for _, id := range h.TraderIDs {
			if traderSeen[id] {
				return false
			}
			traderSeen[id] = true
		}
		for _, id := range h.ExchangeIDs {
			if exchangeSeen[id] {
				return false
			}
			exchangeSeen[id] = true
		}
	}
	if len(traderSeen) != len(p.matchedTrader) || len(exchangeSeen) != len(p.matchedExchange) {
		return false
	}
	for id := range traderSeen {
		if !p.matchedTrader[id] {
			return false
		}
	}
	for id := range exchangeSeen {
		if !p.matchedExchange[id] {
			return false
		}
	}
	return true
}
