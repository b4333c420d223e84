// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package abi

import (
	"errors"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/stakelock/stakelock/stakelock"
)

// Event see abi.Event in go-ethereum.
type Event struct {
	id                 stakelock.Bytes32
	event              *ethabi.Event
	argsWithoutIndexed ethabi.Arguments
	indexed            ethabi.Arguments
}

func newEvent(event *ethabi.Event) *Event {
	var argsWithoutIndexed, indexed ethabi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		} else {
			argsWithoutIndexed = append(argsWithoutIndexed, arg)
		}
	}
	return &Event{
		stakelock.Bytes32(event.ID),
		event,
		argsWithoutIndexed,
		indexed,
	}
}

// ID returns event id.
func (e *Event) ID() stakelock.Bytes32 {
	return e.id
}

// Name returns event name.
func (e *Event) Name() string {
	return e.event.Name
}

// Signature returns the canonical signature, e.g. Transfer(address,address,uint256).
func (e *Event) Signature() string {
	return e.event.Sig
}

// Encode encodes args to data.
func (e *Event) Encode(args ...any) ([]byte, error) {
	return e.argsWithoutIndexed.Pack(args...)
}

// Decode decodes event data and indexed topics into a map keyed by argument name.
// topics excludes the event id.
func (e *Event) Decode(data []byte, topics []stakelock.Bytes32) (map[string]any, error) {
	if len(topics) != len(e.indexed) {
		return nil, errors.New("abi: topics mismatch")
	}
	out := make(map[string]any)
	if err := e.argsWithoutIndexed.UnpackIntoMap(out, data); err != nil {
		return nil, err
	}
	hashes := make([]common.Hash, 0, len(topics))
	for _, t := range topics {
		hashes = append(hashes, common.Hash(t))
	}
	if err := ethabi.ParseTopicsIntoMap(out, e.indexed, hashes); err != nil {
		return nil, err
	}
	return out, nil
}
