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
	"time"

	"github.com/quickfixgo/quickfix"
)

// FieldSetter abstracts setting fields on FIX message components.
type FieldSetter interface {
	SetField(tag quickfix.Tag, field quickfix.FieldValueWriter) *quickfix.FieldMap
}

func setString(fs FieldSetter, tag quickfix.Tag, value string) {
	fs.SetField(tag, quickfix.FIXString(value))
}

// buildHeader sets common header fields for outgoing messages.
func buildHeader(header *quickfix.Header, msgType, senderCompId, targetCompId string) {
	setString(header, TagBeginString, FixBeginString)
	setString(header, TagMsgType, msgType)
	setString(header, TagSenderCompId, senderCompId)
	setString(header, TagTargetCompId, targetCompId)
	setString(header, TagSendingTime, time.Now().UTC().Format(FixTimeFormat))
}

// --- Logon Message ---

func BuildLogon(body *quickfix.Body, username, password, account string) {
	setString(body, TagEncryptMethod, EncryptMethodNone)
	setString(body, TagHeartBtInt, HeartBtInterval)
	setString(body, TagUsername, username)
	setString(body, TagPassword, password)
	if account != "" {
		setString(body, TagAccount, account)
	}
}

// --- Trade Capture Report Request (AD) ---

// BuildTradeCaptureRequest creates a Trade Capture Report Request
// subscribing to all trades for the session.
func BuildTradeCaptureRequest(tradeRequestID, senderCompId, targetCompId string) *quickfix.Message {
	m := quickfix.NewMessage()
	buildHeader(&m.Header, MsgTypeTradeCaptureReportRequest, senderCompId, targetCompId)

	setString(&m.Body, TagTradeRequestID, tradeRequestID)
	setString(&m.Body, TagTradeRequestType, TradeRequestTypeAllTrades)
	setString(&m.Body, TagSubscriptionType, SubscriptionRequestTypeSubscribe)

	return m
}
