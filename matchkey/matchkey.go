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

// Package matchkey builds the hash index every rule matcher uses to go
// from "a hypothesis about the opposite side" to a short list of real
// candidate trades, without ever comparing a trader trade against every
// exchange trade. A Key is the rule's opaque signature tuple, always
// including the universal-field values so key equality implies
// universal-field equality by construction.
package matchkey

import (
	"fmt"

	"reconengine/config"
	"reconengine/trade"
)

// maxParts bounds how many components a signature tuple may carry. Rule 1's
// signature (product, quantity_mt, price, contract_month, buy_sell, plus up
// to three universal fields) is the longest currently defined and can fill
// all eight slots.
const maxParts = 8

// Key is a comparable, fixed-shape signature tuple. Unused trailing slots
// are the empty string, so keys of different declared lengths never
// collide as long as each rule is consistent about which slots it fills.
type Key [maxParts]string

// Build assembles a Key from an ordered list of string components. It
// panics on more than maxParts parts, which would be a programming error in
// a matcher, not a data problem.
func Build(parts ...string) Key {
	if len(parts) > maxParts {
		panic(fmt.Sprintf("matchkey: %d parts exceeds max %d", len(parts), maxParts))
	}
	var k Key
	copy(k[:], parts)
	return k
}

// UniversalParts renders a trade's configured universal fields as key
// components, in the Config's configured order, so every rule's signature
// embeds them identically.
func UniversalParts(cfg config.Config, t trade.Trade) []string {
	parts := make([]string, 0, 3)
	for _, f := range cfg.UniversalFields() {
		switch f {
		case config.FieldBrokerGroupID:
			parts = append(parts, intPtrString(t.BrokerGroupID))
		case config.FieldExchClearingAcctID:
			parts = append(parts, intPtrString(t.ExchClearingAcctID))
		case config.FieldExchangeGroupID:
			parts = append(parts, intPtrString(t.ExchangeGroupID))
		}
	}
	return parts
}

func intPtrString(p *int) string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%d", *p)
}

// Index is a signature-bucketed view over one side of the Pool for a
// single rule invocation: key -> candidate trades sharing that key, in
// insertion order. Built once per rule pass; Consume removes a trade from
// its bucket once it's been used in a committed match, so later
// hypotheses within the same pass never see it again.
type Index struct {
	buckets map[Key][]trade.Trade
}

// BuildIndex buckets trades by keyFn, preserving the input order within
// each bucket.
func BuildIndex(trades []trade.Trade, keyFn func(trade.Trade) Key) *Index {
	idx := &Index{buckets: make(map[Key][]trade.Trade)}
	for _, t := range trades {
		k := keyFn(t)
		idx.buckets[k] = append(idx.buckets[k], t)
	}
	return idx
}

// Candidates returns the current candidate list for k, in insertion order.
// The returned slice must not be mutated by the caller; use Consume to
// remove an entry.
func (idx *Index) Candidates(k Key) []trade.Trade {
	return idx.buckets[k]
}

// Consume removes the first candidate under k with the given trade id, so
// it is not offered again within this rule pass. Reports whether a
// candidate was found and removed.
func (idx *Index) Consume(k Key, id string) bool {
	bucket := idx.buckets[k]
	for i, t := range bucket {
		if t.ID == id {
			idx.buckets[k] = append(bucket[:i], bucket[i+1:]...)
			return true
		}
	}
	return false
}
