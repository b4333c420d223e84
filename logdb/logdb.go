// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb persists the events of committed ledger calls in sqlite, for indexers and the API.
package logdb

import (
	"context"
	"database/sql"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/log"
	"github.com/stakelock/stakelock/stakelock"
)

var logger = log.WithContext("pkg", "logdb")

const eventTableSchema = `
CREATE TABLE IF NOT EXISTS event (
	seq INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	time INTEGER NOT NULL,
	caller BLOB NOT NULL,
	address BLOB NOT NULL,
	topic0 BLOB,
	topic1 BLOB,
	topic2 BLOB,
	topic3 BLOB,
	data BLOB,
	PRIMARY KEY (seq, eventIndex)
);

CREATE INDEX IF NOT EXISTS event_i_address ON event(address);
CREATE INDEX IF NOT EXISTS event_i_topic0 ON event(topic0);
CREATE INDEX IF NOT EXISTS event_i_topic1 ON event(topic1);
CREATE INDEX IF NOT EXISTS event_i_topic2 ON event(topic2);
`

const insertEventQuery = `INSERT OR REPLACE INTO event(seq, eventIndex, time, caller, address, topic0, topic1, topic2, topic3, data)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	memory := path == ":memory:"
	dsn := path
	if !memory {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open logdb")
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()

	// every connection to :memory: opens a distinct database
	if memory {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create logdb schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	if err := db.stmtCache.Close(); err != nil {
		logger.Warn("failed to close statements", "err", err)
	}
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the version of the embedded sqlite.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// LastSeq returns the sequence of the latest stored call, or zero for an empty db.
func (db *LogDB) LastSeq(ctx context.Context) (uint64, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM event").Scan(&seq); err != nil {
		return 0, errors.Wrap(err, "query last seq")
	}
	if !seq.Valid {
		return 0, nil
	}
	return uint64(seq.Int64), nil
}

// Write stores the events of a call atomically.
func (db *LogDB) Write(events []*Event) error {
	if len(events) == 0 {
		return nil
	}
	stmt, err := db.stmtCache.Prepare(insertEventQuery)
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	tx, err := db.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin logdb tx")
	}
	txStmt := tx.Stmt(stmt)
	for _, ev := range events {
		if _, err := txStmt.Exec(
			ev.Seq,
			ev.Index,
			ev.Time,
			ev.Caller.Bytes(),
			ev.Address.Bytes(),
			topicValue(ev.Topics[0]),
			topicValue(ev.Topics[1]),
			topicValue(ev.Topics[2]),
			topicValue(ev.Topics[3]),
			ev.Data,
		); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "insert event")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit logdb tx")
	}
	metricWrittenEvents().Add(int64(len(events)))
	logger.Trace("events written", "seq", events[0].Seq, "count", len(events))
	return nil
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event ORDER BY seq ASC, eventIndex ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Address != nil {
			args = append(args, criteria.Address.Bytes())
			stmt += " AND address = ?"
		}
		for j, topic := range criteria.Topics {
			if topic != nil {
				args = append(args, topic.Bytes())
				stmt += fmt.Sprintf(" AND topic%v = ?", j)
			}
		}
		stmt += ")"
	}
	if len(filter.CriteriaSet) > 0 {
		stmt += ")"
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC, eventIndex DESC"
	} else {
		stmt += " ORDER BY seq ASC, eventIndex ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, errors.Wrap(err, "prepare query")
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq     uint64
			index   uint32
			time    uint64
			caller  []byte
			address []byte
			topics  [4][]byte
			data    []byte
		)
		if err := rows.Scan(
			&seq,
			&index,
			&time,
			&caller,
			&address,
			&topics[0],
			&topics[1],
			&topics[2],
			&topics[3],
			&data,
		); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		event := &Event{
			Seq:     seq,
			Index:   index,
			Time:    time,
			Caller:  stakelock.BytesToAddress(caller),
			Address: stakelock.BytesToAddress(address),
			Data:    data,
		}
		for i, topic := range topics {
			if len(topic) > 0 {
				h := stakelock.BytesToBytes32(topic)
				event.Topics[i] = &h
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate events")
	}
	return events, nil
}

func topicValue(topic *stakelock.Bytes32) []byte {
	if topic == nil {
		return nil
	}
	return topic.Bytes()
}
