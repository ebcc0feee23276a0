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
	"testing"
	"time"
)

// Tests for trade capture report parsing behavior. These verify that
// capture reports are correctly extracted from raw FIX messages, including
// the party repeating group and optional option fields.

func TestParseCaptureReport_AllFields(t *testing.T) {
	raw := "8=FIXT.1.1\x0135=AE\x01571=rpt-1\x011003=native-77\x01820=deal-9\x01" +
		"55=Gasoil\x01200=202603\x0132=1000\x0131=712.25\x0154=2\x01996=MT\x01" +
		"60=20260115-09:30:00\x0175=20260115\x01" +
		"448=120\x01447=D\x01452=1\x01448=4501\x01447=D\x01452=4\x01"

	report := ParseCaptureReport(raw, time.Now())

	if report.TradeReportID != "rpt-1" {
		t.Errorf("trade report id: got %q, want %q", report.TradeReportID, "rpt-1")
	}
	if report.TradeID != "native-77" {
		t.Errorf("trade id: got %q, want %q", report.TradeID, "native-77")
	}
	if report.TradeLinkID != "deal-9" {
		t.Errorf("trade link id: got %q, want %q", report.TradeLinkID, "deal-9")
	}
	if report.Symbol != "Gasoil" {
		t.Errorf("symbol: got %q, want %q", report.Symbol, "Gasoil")
	}
	if report.MaturityMonth != "202603" {
		t.Errorf("maturity: got %q, want %q", report.MaturityMonth, "202603")
	}
	if report.LastQty != "1000" || report.LastPx != "712.25" {
		t.Errorf("economics: got qty %q px %q", report.LastQty, report.LastPx)
	}
	if report.Side != "2" {
		t.Errorf("side: got %q, want %q", report.Side, "2")
	}
	if report.TransactTime != "20260115-09:30:00" {
		t.Errorf("transact time: got %q", report.TransactTime)
	}
	if report.BrokerGroupID != "120" {
		t.Errorf("broker group: got %q, want %q", report.BrokerGroupID, "120")
	}
	if report.ExchClearingAcctID != "4501" {
		t.Errorf("clearing acct: got %q, want %q", report.ExchClearingAcctID, "4501")
	}
}

func TestParseCaptureReport_OptionFields(t *testing.T) {
	raw := "35=AE\x01571=rpt-2\x0155=Brent\x01200=202512\x0132=500\x0131=3.40\x01" +
		"54=1\x01202=85.00\x01201=1\x01"

	report := ParseCaptureReport(raw, time.Now())

	if report.StrikePrice != "85.00" {
		t.Errorf("strike: got %q, want %q", report.StrikePrice, "85.00")
	}
	if report.PutOrCall != PutOrCallCall {
		t.Errorf("put/call: got %q, want %q", report.PutOrCall, PutOrCallCall)
	}
}

func TestParseCaptureReport_UnknownTagsSkipped(t *testing.T) {
	raw := "35=AE\x01571=rpt-3\x019999=junk\x0155=FE\x01200=202510\x0132=100\x0131=101.65\x0154=1\x01"

	report := ParseCaptureReport(raw, time.Now())

	if report.TradeReportID != "rpt-3" || report.Symbol != "FE" {
		t.Errorf("unexpected parse with unknown tags present: %+v", report)
	}
}

func TestParseSessionLog_SkipsBlankAndInvalidLines(t *testing.T) {
	data := "35=AE\x01571=rpt-1\x0155=FE\x01200=202510\x0132=100\x0131=101.65\x0154=1\x01\n" +
		"\n" +
		"35=0\x0134=17\x01\n" +
		"35=AE\x01571=rpt-2\x0155=FE\x01200=202511\x0132=200\x0131=99.00\x0154=2\x01\n"

	reports := ParseSessionLog(data, time.Now())

	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].TradeReportID != "rpt-1" || reports[1].TradeReportID != "rpt-2" {
		t.Errorf("reports out of order: %q, %q", reports[0].TradeReportID, reports[1].TradeReportID)
	}
}
