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

import "github.com/quickfixgo/quickfix"

// --- Message Types ---
const (
	// Admin Messages
	MsgTypeLogon          = "A" // Logon
	MsgTypeReject         = "3" // Session-level Reject
	MsgTypeBusinessReject = "j" // Business Message Reject

	// Trade Capture Messages
	MsgTypeTradeCaptureReportRequest    = "AD" // Trade Capture Report Request
	MsgTypeTradeCaptureReport           = "AE" // Trade Capture Report
	MsgTypeTradeCaptureReportRequestAck = "AQ" // Trade Capture Report Request Ack
	MsgTypeExecutionReport              = "8"  // Execution Report
)

// --- Protocol Constants ---
const (
	FixTimeFormat     = "20060102-15:04:05.000"
	FixBeginString    = "FIXT.1.1"
	EncryptMethodNone = "0"
	HeartBtInterval   = "30"
)

// --- Subscription Request Types (Tag 263) ---
const (
	SubscriptionRequestTypeSnapshot    = "0" // Snapshot
	SubscriptionRequestTypeSubscribe   = "1" // Snapshot + Updates
	SubscriptionRequestTypeUnsubscribe = "2" // Unsubscribe
)

// --- Trade Request Types (Tag 569) ---
const (
	TradeRequestTypeAllTrades = "0" // All trades
)

// --- Side (Tag 54) ---
const (
	SideBuy  = "1" // Buy
	SideSell = "2" // Sell
)

// --- Put Or Call (Tag 201) ---
const (
	PutOrCallPut  = "0" // Put
	PutOrCallCall = "1" // Call
)

// --- Party Roles (Tag 452) ---
const (
	PartyRoleExecutingFirm = "1"  // Broker group
	PartyRoleClearingFirm  = "4"  // Exchange clearing account
	PartyRoleExchange      = "22" // Exchange group
)

// --- Trade Request Result (Tag 749) ---
const (
	TradeRequestResultSuccessful        = "0"
	TradeRequestResultInvalidCriteria   = "1"
	TradeRequestResultInvalidParties    = "3"
	TradeRequestResultNotAuthorized     = "8"
	TradeRequestResultRequestNotSupport = "9"
	TradeRequestResultOther             = "99"
)

// --- Standard FIX Tags ---
var (
	TagAccount          = quickfix.Tag(1)
	TagBeginString      = quickfix.Tag(8)
	TagLastPx           = quickfix.Tag(31)
	TagLastQty          = quickfix.Tag(32)
	TagMsgSeqNum        = quickfix.Tag(34)
	TagMsgType          = quickfix.Tag(35)
	TagSenderCompId     = quickfix.Tag(49)
	TagSendingTime      = quickfix.Tag(52)
	TagSide             = quickfix.Tag(54)
	TagSymbol           = quickfix.Tag(55)
	TagTargetCompId     = quickfix.Tag(56)
	TagText             = quickfix.Tag(58)
	TagTransactTime     = quickfix.Tag(60)
	TagTradeDate        = quickfix.Tag(75)
	TagEncryptMethod    = quickfix.Tag(98)
	TagHeartBtInt       = quickfix.Tag(108)
	TagMaturityMonth    = quickfix.Tag(200)
	TagPutOrCall        = quickfix.Tag(201)
	TagStrikePrice      = quickfix.Tag(202)
	TagSubscriptionType = quickfix.Tag(263)
	TagRefSeqNum        = quickfix.Tag(45)
	TagRefMsgType       = quickfix.Tag(372)
	TagBusinessRejectRs = quickfix.Tag(380)
	TagPartyID          = quickfix.Tag(448)
	TagPartyRole        = quickfix.Tag(452)
	TagNoSides          = quickfix.Tag(552)
	TagUsername         = quickfix.Tag(553)
	TagPassword         = quickfix.Tag(554)
	TagTradeRequestID   = quickfix.Tag(568)
	TagTradeRequestType = quickfix.Tag(569)
	TagTradeReportID    = quickfix.Tag(571)
	TagNoDates          = quickfix.Tag(580)
	TagTradeLinkID      = quickfix.Tag(820)
	TagTradeRequestRslt = quickfix.Tag(749)
	TagTradeRequestStat = quickfix.Tag(750)
	TagUnitOfMeasure    = quickfix.Tag(996)
	TagTradeID          = quickfix.Tag(1003)
	TagSecondaryTradeID = quickfix.Tag(1040)
	TagDefaultApplVerId = quickfix.Tag(1137)
)
