// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/stakelock/stakelock/stakelock"
)

// Event is an emitted ledger event that can be stored in db.
type Event struct {
	Seq     uint64 // sequence of the committed call
	Index   uint32 // position in the call
	Time    uint64
	Caller  stakelock.Address
	Address stakelock.Address // always a built-in contract address
	Topics  [4]*stakelock.Bytes32
	Data    []byte
}

// NewEvent builds an Event from raw topics, at most four of them are kept.
func NewEvent(seq uint64, index uint32, time uint64, caller, address stakelock.Address, topics []stakelock.Bytes32, data []byte) *Event {
	ev := &Event{
		Seq:     seq,
		Index:   index,
		Time:    time,
		Caller:  caller,
		Address: address,
		Data:    data,
	}
	for i := 0; i < len(topics) && i < len(ev.Topics); i++ {
		topic := topics[i]
		ev.Topics[i] = &topic
	}
	return ev
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events by address and topics. Nil fields match anything.
type EventCriteria struct {
	Address *stakelock.Address
	Topics  [4]*stakelock.Bytes32
}

// EventFilter matches events fulfilling any of the criteria.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Order       Order
	Options     *Options
}
