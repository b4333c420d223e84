// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stakelock/stakelock/cache"
	"github.com/stakelock/stakelock/kv"
	"github.com/stakelock/stakelock/stackedmap"
	"github.com/stakelock/stakelock/stakelock"
)

const (
	accountBucket kv.Bucket = "a"
	storageBucket kv.Bucket = "s"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr stakelock.Address
	key  stakelock.Bytes32
}

func (k storageKey) dbKey() []byte {
	return append(append(make([]byte, 0, 52), k.addr[:]...), k.key[:]...)
}

// State manages the world state.
type State struct {
	db       kv.Store
	accounts kv.Store
	storages kv.Store
	cache    *cache.LRU
	sm       *stackedmap.StackedMap[any, any]
}

// New create state object on top of the committed store.
// The cache holds committed raw values and may be shared between states of the same store.
func New(db kv.Store, c *cache.LRU) *State {
	s := &State{
		db:       db,
		accounts: accountBucket.NewStore(db),
		storages: storageBucket.NewStore(db),
		cache:    c,
	}
	s.sm = stackedmap.New(s.cacheGetter)
	return s
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (any, bool, error) {
	switch k := key.(type) {
	case stakelock.Address:
		raw, err := s.loadRaw(accountBucket, s.accounts, k.Bytes())
		if err != nil {
			return nil, false, err
		}
		acc, err := decodeAccount(raw)
		if err != nil {
			return nil, false, err
		}
		return acc, true, nil
	case storageKey:
		raw, err := s.loadRaw(storageBucket, s.storages, k.dbKey())
		if err != nil {
			return nil, false, err
		}
		return rlp.RawValue(raw), true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func (s *State) loadRaw(bucket kv.Bucket, store kv.Store, key []byte) ([]byte, error) {
	load := func(any) (any, error) {
		raw, err := store.Get(key)
		if err != nil {
			if store.IsNotFound(err) {
				return []byte(nil), nil
			}
			return nil, err
		}
		return raw, nil
	}
	if s.cache == nil {
		v, err := load(nil)
		if err != nil {
			return nil, err
		}
		return v.([]byte), nil
	}
	v, err := s.cache.GetOrLoad(string(bucket)+string(key), load)
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// getAccount gets account by address. the returned account should not be modified.
func (s *State) getAccount(addr stakelock.Address) (*Account, error) {
	v, _, err := s.sm.Get(addr)
	if err != nil {
		return nil, err
	}
	return v.(*Account), nil
}

func (s *State) updateAccount(addr stakelock.Address, acc *Account) {
	s.sm.Put(addr, acc)
}

// GetBalance returns balance for the given address.
func (s *State) GetBalance(addr stakelock.Address) (*big.Int, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return nil, &Error{err}
	}
	return new(big.Int).Set(acc.Balance), nil
}

// SetBalance set balance for the given address.
func (s *State) SetBalance(addr stakelock.Address, balance *big.Int) error {
	if balance.Sign() < 0 {
		return &Error{fmt.Errorf("negative balance for %v", addr)}
	}
	s.updateAccount(addr, &Account{Balance: new(big.Int).Set(balance)})
	return nil
}

// AddBalance adds amount to the balance of the given address.
func (s *State) AddBalance(addr stakelock.Address, amount *big.Int) error {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return err
	}
	return s.SetBalance(addr, bal.Add(bal, amount))
}

// SubBalance subtracts amount from the balance of the given address.
// It returns false and leaves the balance untouched if the balance is insufficient.
func (s *State) SubBalance(addr stakelock.Address, amount *big.Int) (bool, error) {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return false, err
	}
	if bal.Cmp(amount) < 0 {
		return false, nil
	}
	return true, s.SetBalance(addr, bal.Sub(bal, amount))
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr stakelock.Address, key stakelock.Bytes32) (stakelock.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return stakelock.Bytes32{}, err
	}
	if len(raw) == 0 {
		return stakelock.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return stakelock.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// customized storage value, return hash of raw data
		return stakelock.Blake2b(raw), nil
	}
	return stakelock.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr stakelock.Address, key, value stakelock.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr stakelock.Address, key stakelock.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr stakelock.Address, key stakelock.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr stakelock.Address, key stakelock.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr stakelock.Address, key stakelock.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage makes a stage object holding the final value of every changed key.
func (s *State) Stage() (*Stage, error) {
	accounts := make(map[stakelock.Address]*Account)
	storages := make(map[storageKey]rlp.RawValue)

	s.sm.Journal(func(k, v any) bool {
		switch key := k.(type) {
		case stakelock.Address:
			accounts[key] = v.(*Account)
		case storageKey:
			storages[key] = v.(rlp.RawValue)
		}
		return true
	})

	changes := make([]change, 0, len(accounts)+len(storages))
	for addr, acc := range accounts {
		raw, err := encodeAccount(acc)
		if err != nil {
			return nil, &Error{err}
		}
		changes = append(changes, change{accountBucket, addr.Bytes(), raw})
	}
	for key, raw := range storages {
		changes = append(changes, change{storageBucket, key.dbKey(), raw})
	}

	return &Stage{
		db:      s.db,
		cache:   s.cache,
		changes: changes,
	}, nil
}
