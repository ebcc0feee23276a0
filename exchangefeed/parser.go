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

// Raw-string FIX parsing for trade capture reports.
//
// We use raw string parsing instead of quickfix's structured field access
// because quickfix.Message.GetGroup() has significant overhead for
// repeating groups, and the set of tags we extract is small and fixed. The
// single-pass tag/value scan mirrors the market-data parser this package
// was adapted from.

package exchangefeed

import (
	"strings"
	"time"

	"github.com/quickfixgo/quickfix"
)

// ExtractCaptureReport parses one Trade Capture Report (AE) or fill
// Execution Report (8) message into a CaptureReport.
func ExtractCaptureReport(msg *quickfix.Message) CaptureReport {
	return ParseCaptureReport(msg.String(), time.Now())
}

// ParseCaptureReport extracts the capture-report fields from a raw FIX
// message in a single pass over its TAG=VALUE\x01 fields. Party
// identification comes as a repeating group of 448 (PartyID) / 452
// (PartyRole) pairs; the scan holds the most recent 448 value and assigns
// it when its role arrives, which works because the role tag follows the
// id tag within each group entry.
func ParseCaptureReport(rawMsg string, receivedAt time.Time) CaptureReport {
	report := CaptureReport{ReceivedAt: receivedAt}

	pos := 0
	msgLen := len(rawMsg)
	pendingPartyID := ""

	for pos < msgLen {
		eqPos := strings.IndexByte(rawMsg[pos:], '=')
		if eqPos == -1 {
			break
		}
		eqPos += pos
		tag := rawMsg[pos:eqPos]

		valueStart := eqPos + 1
		sohPos := strings.IndexByte(rawMsg[valueStart:], '\x01')
		var value string
		var nextPos int
		if sohPos == -1 {
			value = rawMsg[valueStart:]
			nextPos = msgLen
		} else {
			value = rawMsg[valueStart : valueStart+sohPos]
			nextPos = valueStart + sohPos + 1
		}

		switch tag {
		case "571":
			report.TradeReportID = value
		case "1003":
			report.TradeID = value
		case "1040":
			report.SecondaryTradeID = value
		case "820":
			report.TradeLinkID = value
		case "55":
			report.Symbol = value
		case "200":
			report.MaturityMonth = value
		case "996":
			report.UnitOfMeasure = value
		case "202":
			report.StrikePrice = value
		case "201":
			report.PutOrCall = value
		case "54":
			report.Side = value
		case "32":
			report.LastQty = value
		case "31":
			report.LastPx = value
		case "60":
			report.TransactTime = value
		case "75":
			report.TradeDate = value
		case "448":
			pendingPartyID = value
		case "452":
			switch value {
			case PartyRoleExecutingFirm:
				report.BrokerGroupID = pendingPartyID
			case PartyRoleClearingFirm:
				report.ExchClearingAcctID = pendingPartyID
			case PartyRoleExchange:
				report.ExchangeGroupID = pendingPartyID
			}
			pendingPartyID = ""
		}
		// Skip unknown tags silently

		pos = nextPos
	}

	return report
}

// ParseSessionLog parses a replayed drop-copy session: one raw FIX message
// per line. Blank lines and lines without a trade report id are skipped.
// Used by the CLI to rebuild the exchange side of a run without a live
// session.
func ParseSessionLog(data string, receivedAt time.Time) []CaptureReport {
	var reports []CaptureReport
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		report := ParseCaptureReport(line, receivedAt)
		if report.TradeReportID == "" {
			continue
		}
		reports = append(reports, report)
	}
	return reports
}
