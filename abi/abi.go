// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package abi

import (
	"bytes"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/stakelock/stakelock/stakelock"
)

// ABI holds information about events and custom errors of a contract.
type ABI struct {
	nameToEvent map[string]*Event
	events      map[stakelock.Bytes32]*Event
	errors      map[[4]byte]string
}

// New create an ABI instance.
func New(data []byte) (*ABI, error) {
	parsed, err := ethabi.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	abi := &ABI{
		nameToEvent: make(map[string]*Event),
		events:      make(map[stakelock.Bytes32]*Event),
		errors:      make(map[[4]byte]string),
	}
	for name := range parsed.Events {
		ethEvent := parsed.Events[name]
		event := newEvent(&ethEvent)
		abi.events[event.ID()] = event
		abi.nameToEvent[name] = event
	}
	for name, ethErr := range parsed.Errors {
		var id [4]byte
		copy(id[:], ethErr.ID[:4])
		abi.errors[id] = name
	}
	return abi, nil
}

// EventByName find event for the given event name.
func (a *ABI) EventByName(name string) (*Event, bool) {
	e, found := a.nameToEvent[name]
	return e, found
}

// EventByID find event for the given event id.
func (a *ABI) EventByID(id stakelock.Bytes32) (*Event, bool) {
	e, found := a.events[id]
	return e, found
}

// ErrorBySelector finds the custom error name for the given 4-byte selector.
func (a *ABI) ErrorBySelector(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	var id [4]byte
	copy(id[:], data)
	name, found := a.errors[id]
	return name, found
}

// MustEventByName is like EventByName but panics if the event is not declared.
func (a *ABI) MustEventByName(name string) *Event {
	e, found := a.nameToEvent[name]
	if !found {
		panic("abi: event not found: " + name)
	}
	return e
}
