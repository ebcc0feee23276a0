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

package exchangefeed

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"reconengine/trade"
)

var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// contractMonthFromMaturity converts a FIX MaturityMonthYear (YYYYMM) into
// the engine's normalised MMM-YY token.
func contractMonthFromMaturity(maturity string) (string, error) {
	if len(maturity) != 6 {
		return "", fmt.Errorf("exchangefeed: maturity %q not in YYYYMM form", maturity)
	}
	year, err := strconv.Atoi(maturity[:4])
	if err != nil {
		return "", fmt.Errorf("exchangefeed: maturity year %q: %v", maturity, err)
	}
	month, err := strconv.Atoi(maturity[4:])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("exchangefeed: maturity month %q out of range", maturity)
	}
	return fmt.Sprintf("%s-%02d", monthNames[month-1], year%100), nil
}

// ToTrade converts one capture report into an exchange-side trade record.
// The report's party ids become the universal matching fields; deal/trade
// ids and the transaction time carry through so Rule 2's deal-id and
// datetime tiers can group legs downstream.
func (r CaptureReport) ToTrade(ratio trade.RatioFunc) (trade.Trade, error) {
	quantity, err := decimal.NewFromString(r.LastQty)
	if err != nil {
		return trade.Trade{}, fmt.Errorf("exchangefeed: report %s quantity %q: %v", r.TradeReportID, r.LastQty, err)
	}
	price, err := decimal.NewFromString(r.LastPx)
	if err != nil {
		return trade.Trade{}, fmt.Errorf("exchangefeed: report %s price %q: %v", r.TradeReportID, r.LastPx, err)
	}

	var side trade.Side
	switch r.Side {
	case SideBuy:
		side = trade.Buy
	case SideSell:
		side = trade.Sell
	default:
		return trade.Trade{}, fmt.Errorf("exchangefeed: report %s side %q unrecognised", r.TradeReportID, r.Side)
	}

	unit := trade.UnitMT
	if strings.EqualFold(r.UnitOfMeasure, "bbl") {
		unit = trade.UnitBBL
	}

	month, err := contractMonthFromMaturity(r.MaturityMonth)
	if err != nil {
		return trade.Trade{}, err
	}

	var opts []trade.Option
	if r.TradeLinkID != "" {
		opts = append(opts, trade.WithDealID(r.TradeLinkID))
	}
	if r.TradeID != "" {
		opts = append(opts, trade.WithTradeNativeID(r.TradeID))
	}
	if r.TransactTime != "" {
		opts = append(opts, trade.WithTradeDatetime(r.TransactTime))
	}
	if v, ok := atoiField(r.BrokerGroupID); ok {
		opts = append(opts, trade.WithBrokerGroupID(v))
	}
	if v, ok := atoiField(r.ExchClearingAcctID); ok {
		opts = append(opts, trade.WithExchClearingAcctID(v))
	}
	if v, ok := atoiField(r.ExchangeGroupID); ok {
		opts = append(opts, trade.WithExchangeGroupID(v))
	}
	if r.StrikePrice != "" {
		strike, err := decimal.NewFromString(r.StrikePrice)
		if err != nil {
			return trade.Trade{}, fmt.Errorf("exchangefeed: report %s strike %q: %v", r.TradeReportID, r.StrikePrice, err)
		}
		putCall := "P"
		if r.PutOrCall == PutOrCallCall {
			putCall = "C"
		}
		opts = append(opts, trade.WithOption(strike, putCall))
	}

	return trade.New(r.TradeReportID, trade.SourceExchange,
		strings.ToLower(strings.TrimSpace(r.Symbol)), month,
		quantity, unit, price, side, ratio, opts...)
}

func atoiField(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ToTrades converts a drained batch of reports, logging and skipping any
// report that fails validation — a malformed drop-copy row degrades that
// row, never the whole batch.
func ToTrades(reports []CaptureReport, ratio trade.RatioFunc) []trade.Trade {
	out := make([]trade.Trade, 0, len(reports))
	for _, r := range reports {
		t, err := r.ToTrade(ratio)
		if err != nil {
			log.Printf("exchangefeed: skipping report %s: %v", r.TradeReportID, err)
			continue
		}
		out = append(out, t)
	}
	return out
}
