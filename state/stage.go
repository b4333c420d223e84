// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/stakelock/stakelock/cache"
	"github.com/stakelock/stakelock/kv"
)

type change struct {
	bucket kv.Bucket
	key    []byte
	raw    []byte
}

// fullKey is the key under the root store, which equals the cache key.
func (c *change) fullKey() []byte {
	return append(append(make([]byte, 0, len(c.bucket)+len(c.key)), c.bucket...), c.key...)
}

// Stage abstracts changes to be committed into the store.
type Stage struct {
	db      kv.Store
	cache   *cache.LRU
	changes []change
}

// Len returns the number of changed keys.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Commit writes all changes into the store in one batch, and refreshes the cache.
func (s *Stage) Commit() error {
	if len(s.changes) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for i := range s.changes {
		c := &s.changes[i]
		var err error
		if len(c.raw) == 0 {
			err = batch.Delete(c.fullKey())
		} else {
			err = batch.Put(c.fullKey(), c.raw)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}

	if s.cache != nil {
		for i := range s.changes {
			c := &s.changes[i]
			s.cache.Add(string(c.fullKey()), []byte(c.raw))
		}
		reportCacheStats(s.cache)
	}
	return nil
}
