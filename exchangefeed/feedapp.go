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
	"log"
	"time"

	"github.com/quickfixgo/quickfix"
)

// Config holds the drop-copy session credentials.
type Config struct {
	Username     string
	Password     string
	SenderCompId string
	TargetCompId string
	Account      string
}

// FeedApp is the quickfix.Application for the exchange drop-copy session.
// It collects every trade capture report into its DealStore; nothing is
// reconciled until the session's batch is drained.
type FeedApp struct {
	Config *Config

	SessionId quickfix.SessionID
	Deals     *DealStore

	shouldExit    bool
	lastLogonTime time.Time
}

func NewConfig(username, password, senderCompId, targetCompId, account string) *Config {
	return &Config{
		Username:     username,
		Password:     password,
		SenderCompId: senderCompId,
		TargetCompId: targetCompId,
		Account:      account,
	}
}

func NewFeedApp(config *Config) *FeedApp {
	return &FeedApp{
		Config: config,
		Deals:  NewDealStore(),
	}
}

func (a *FeedApp) OnCreate(sid quickfix.SessionID) {
	a.SessionId = sid
}

func (a *FeedApp) OnLogout(sid quickfix.SessionID) {
	log.Println("Logout", sid)

	timeSinceLogon := time.Since(a.lastLogonTime)
	if timeSinceLogon < 5*time.Second || a.lastLogonTime.IsZero() {
		log.Printf("Authentication failed. Exiting to prevent reconnection loop.")
		a.shouldExit = true
	}
}

func (a *FeedApp) FromAdmin(_ *quickfix.Message, _ quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

func (a *FeedApp) ToApp(_ *quickfix.Message, _ quickfix.SessionID) error {
	return nil
}

func (a *FeedApp) OnLogon(sid quickfix.SessionID) {
	a.SessionId = sid
	a.lastLogonTime = time.Now()
	log.Println("FIX logon", sid)

	if err := a.RequestTrades(); err != nil {
		log.Printf("Failed to request trade capture reports: %v", err)
	}
}

func (a *FeedApp) ToAdmin(msg *quickfix.Message, _ quickfix.SessionID) {
	if t, _ := msg.Header.GetString(TagMsgType); t == MsgTypeLogon {
		BuildLogon(&msg.Body, a.Config.Username, a.Config.Password, a.Config.Account)
	}
}

// FromApp is the entry point for all application-level FIX messages.
// Trade capture reports and fills are parsed and stored; everything else
// is logged and dropped.
func (a *FeedApp) FromApp(msg *quickfix.Message, _ quickfix.SessionID) quickfix.MessageRejectError {
	t, _ := msg.Header.GetString(TagMsgType)
	switch t {
	case MsgTypeTradeCaptureReport, MsgTypeExecutionReport:
		a.handleTradeCaptureReport(msg)
	case MsgTypeTradeCaptureReportRequestAck:
		a.handleRequestAck(msg)
	case MsgTypeBusinessReject:
		reason, _ := msg.Body.GetString(TagBusinessRejectRs)
		text, _ := msg.Body.GetString(TagText)
		log.Printf("Business reject: reason=%s text=%s", reason, text)
	default:
		log.Printf("Received application message type %s", t)
	}
	return nil
}

func (a *FeedApp) handleTradeCaptureReport(msg *quickfix.Message) {
	report := ExtractCaptureReport(msg)
	if report.TradeReportID == "" {
		log.Printf("Dropping capture report without trade report id")
		return
	}
	a.Deals.Add(report)
}

func (a *FeedApp) handleRequestAck(msg *quickfix.Message) {
	result, _ := msg.Body.GetString(TagTradeRequestRslt)
	status, _ := msg.Body.GetString(TagTradeRequestStat)
	text, _ := msg.Body.GetString(TagText)
	if result != TradeRequestResultSuccessful {
		log.Printf("Trade capture request rejected: result=%s status=%s text=%s", result, status, text)
		return
	}
	log.Printf("Trade capture request accepted: status=%s", status)
}

// RequestTrades subscribes the session to all trade capture reports.
func (a *FeedApp) RequestTrades() error {
	requestID := "tcr-" + time.Now().UTC().Format("20060102150405")
	msg := BuildTradeCaptureRequest(requestID, a.Config.SenderCompId, a.Config.TargetCompId)
	return quickfix.SendToTarget(msg, a.SessionId)
}

func (a *FeedApp) ShouldExit() bool {
	return a.shouldExit
}
