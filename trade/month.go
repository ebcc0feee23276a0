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

package trade

import "regexp"

// monthPattern matches an already-normalised MMM-YY contract month, e.g.
// "Mar-25". Normalisation itself is the ingestion layer's job (out of
// scope); this package only needs to order already-normalised values.
var monthPattern = regexp.MustCompile(`^([A-Za-z]{3})-(\d{2})$`)

var monthIndex = map[string]int{
	"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4, "May": 5, "Jun": 6,
	"Jul": 7, "Aug": 8, "Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
}

// MonthOrder converts a normalised contract month into a comparable
// (year, month) pair. "Balmo" sorts before every calendar month and
// "BalmoNd" sorts between Balmo and the first calendar month. ok is
// false if contractMonth isn't recognised.
func MonthOrder(contractMonth string) (year, month int, ok bool) {
	switch contractMonth {
	case "Balmo":
		return -1, 0, true
	case "BalmoNd":
		return 0, 0, true
	}

	m := monthPattern.FindStringSubmatch(contractMonth)
	if m == nil {
		return 0, 0, false
	}
	idx, known := monthIndex[m[1]]
	if !known {
		return 0, 0, false
	}
	yy := 0
	for _, c := range m[2] {
		yy = yy*10 + int(c-'0')
	}
	return 2000 + yy, idx, true
}

// MonthBefore reports whether a sorts strictly before b under MonthOrder.
// Unrecognised months sort after every recognised one, consistently with
// each other, so callers get a stable (if meaningless) order instead of a
// panic on malformed input.
func MonthBefore(a, b string) bool {
	ya, ma, oka := MonthOrder(a)
	yb, mb, okb := MonthOrder(b)
	if !oka && !okb {
		return a < b
	}
	if !oka {
		return false
	}
	if !okb {
		return true
	}
	if ya != yb {
		return ya < yb
	}
	return ma < mb
}
