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

// Package audit persists the match history of a reconciliation run to
// SQLite so a run can be replayed forensically afterwards. The engine runs
// identically with no audit store configured; this is an optional sink,
// not a dependency of the matching core.
package audit

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"reconengine/match"
)

const createTablesQuery = `
CREATE TABLE IF NOT EXISTS runs (
    run_id       TEXT PRIMARY KEY,
    started_at   TEXT NOT NULL,
    trader_count INTEGER NOT NULL,
    exch_count   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS match_history (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       TEXT NOT NULL,
    match_id     TEXT NOT NULL,
    rule_number  INTEGER NOT NULL,
    match_type   TEXT NOT NULL,
    confidence   TEXT NOT NULL,
    status       TEXT NOT NULL,
    trader_ids   TEXT NOT NULL,
    exchange_ids TEXT NOT NULL,
    recorded_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_match_history_run ON match_history(run_id);
`

const insertMatchQuery = `
INSERT INTO match_history (run_id, match_id, rule_number, match_type, confidence, status, trader_ids, exchange_ids, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertRunQuery = `
INSERT INTO runs (run_id, started_at, trader_count, exch_count) VALUES (?, ?, ?, ?)
`

const selectHistoryQuery = `
SELECT match_id, rule_number, match_type, confidence, status, trader_ids, exchange_ids, recorded_at
FROM match_history WHERE run_id = ? ORDER BY id
`

// Store provides SQLite storage for match history with prepared statements.
// The insert statement is prepared once and reused for all batch
// operations, avoiding SQL parsing overhead on each insert.
type Store struct {
	db *sql.DB

	stmtMatch *sql.Stmt
}

// Entry is one replayed match_history row.
type Entry struct {
	MatchID     string
	RuleNumber  int
	MatchType   string
	Confidence  string
	Status      string
	TraderIDs   []string
	ExchangeIDs []string
	RecordedAt  string
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	s := &Store{db: db}
	if _, err := db.Exec(createTablesQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %v", err)
	}

	if s.stmtMatch, err = db.Prepare(insertMatchQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare match statement: %v", err)
	}

	log.Printf("Audit database initialized at %s", dbPath)
	return s, nil
}

func (s *Store) Close() error {
	if s.stmtMatch != nil {
		_ = s.stmtMatch.Close()
	}
	return s.db.Close()
}

// RecordRun inserts the run header row.
func (s *Store) RecordRun(runID string, startedAt time.Time, traderCount, exchangeCount int) error {
	_, err := s.db.Exec(insertRunQuery, runID, startedAt.UTC().Format(time.RFC3339), traderCount, exchangeCount)
	return err
}

// RecordMatches persists a run's full match list inside one transaction,
// using the prepared statement bound to the transaction context.
func (s *Store) RecordMatches(runID string, matches []match.Result, recordedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	ts := recordedAt.UTC().Format(time.RFC3339)
	for _, m := range matches {
		traderIDs := make([]string, 0, 1+len(m.TraderAdditional))
		for _, t := range m.AllTraderTrades() {
			traderIDs = append(traderIDs, t.ID)
		}
		exchangeIDs := make([]string, 0, 1+len(m.ExchangeAdditional))
		for _, t := range m.AllExchangeTrades() {
			exchangeIDs = append(exchangeIDs, t.ID)
		}

		_, err := tx.Stmt(s.stmtMatch).Exec(runID, m.MatchID, m.RuleNumber, string(m.MatchType),
			m.Confidence.String(), string(m.Status),
			strings.Join(traderIDs, ","), strings.Join(exchangeIDs, ","), ts)
		if err != nil {
			return fmt.Errorf("failed to store match %s: %v", m.MatchID, err)
		}
	}

	return tx.Commit()
}

// History replays a run's match history in commit order.
func (s *Store) History(runID string) ([]Entry, error) {
	rows, err := s.db.Query(selectHistoryQuery, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %v", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var traderIDs, exchangeIDs string
		if err := rows.Scan(&e.MatchID, &e.RuleNumber, &e.MatchType, &e.Confidence,
			&e.Status, &traderIDs, &exchangeIDs, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %v", err)
		}
		e.TraderIDs = strings.Split(traderIDs, ",")
		e.ExchangeIDs = strings.Split(exchangeIDs, ",")
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
