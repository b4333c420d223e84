// Copyright (c) 2020 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"database/sql"
	"sync"

	"github.com/pkg/errors"
)

// stmtCache keeps the prepared insert and filter statements of a LogDB.
// Filters are built from a handful of templates, so the set stays small.
type stmtCache struct {
	db    *sql.DB
	lock  sync.RWMutex
	stmts map[string]*sql.Stmt
}

func newStmtCache(db *sql.DB) *stmtCache {
	return &stmtCache{db: db, stmts: make(map[string]*sql.Stmt)}
}

func (sc *stmtCache) Prepare(query string) (*sql.Stmt, error) {
	sc.lock.RLock()
	stmt, ok := sc.stmts[query]
	sc.lock.RUnlock()
	if ok {
		return stmt, nil
	}

	sc.lock.Lock()
	defer sc.lock.Unlock()
	if stmt, ok := sc.stmts[query]; ok {
		return stmt, nil
	}
	if sc.stmts == nil {
		return nil, errors.New("statement cache closed")
	}
	stmt, err := sc.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	sc.stmts[query] = stmt
	return stmt, nil
}

// Len returns the number of prepared statements.
func (sc *stmtCache) Len() int {
	sc.lock.RLock()
	defer sc.lock.RUnlock()
	return len(sc.stmts)
}

// Close releases every statement. Later Prepare calls fail.
func (sc *stmtCache) Close() error {
	sc.lock.Lock()
	defer sc.lock.Unlock()

	var first error
	for _, stmt := range sc.stmts {
		if err := stmt.Close(); err != nil && first == nil {
			first = err
		}
	}
	sc.stmts = nil
	return first
}
