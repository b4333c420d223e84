// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/abi"
	"github.com/stakelock/stakelock/api/utils"
	"github.com/stakelock/stakelock/builtin"
	"github.com/stakelock/stakelock/logdb"
	"github.com/stakelock/stakelock/stakelock"
)

const defaultLimit = 100

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

// New creates the events API. limit caps the page size of a query.
func New(db *logdb.LogDB, limit uint64) *Events {
	if limit == 0 {
		limit = 1000
	}
	return &Events{db: db, limit: limit}
}

// Event is a stored event with its arguments decoded.
type Event struct {
	Seq     uint64            `json:"seq"`
	Index   uint32            `json:"index"`
	Time    uint64            `json:"time"`
	Caller  stakelock.Address `json:"caller"`
	Address stakelock.Address `json:"address"`
	Name    string            `json:"name"`
	Args    map[string]string `json:"args"`
	Topics  []string          `json:"topics"`
	Data    string            `json:"data"`
}

var contractABIs = map[stakelock.Address]*abi.ABI{
	builtin.Staker.Address: builtin.Staker.ABI,
	builtin.Token.Address:  builtin.Token.ABI,
}

// lookupEvent finds the event by name, in the ledger first then in the token.
func lookupEvent(name string) (*abi.Event, stakelock.Address, bool) {
	for _, c := range []struct {
		addr stakelock.Address
		abi  *abi.ABI
	}{
		{builtin.Staker.Address, builtin.Staker.ABI},
		{builtin.Token.Address, builtin.Token.ABI},
	} {
		if ev, ok := c.abi.EventByName(name); ok {
			return ev, c.addr, true
		}
	}
	return nil, stakelock.Address{}, false
}

func (e *Events) buildFilter(req *http.Request) (*logdb.EventFilter, error) {
	query := req.URL.Query()

	offset, err := utils.ParseUint(query.Get("offset"), 0)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "offset"))
	}
	limit, err := utils.ParseUint(query.Get("limit"), min(defaultLimit, e.limit))
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "limit"))
	}
	if limit > e.limit {
		return nil, utils.Forbidden(fmt.Errorf("limit exceeds the maximum allowed value of %d", e.limit))
	}
	order := logdb.ASC
	if query.Get("order") == string(logdb.DESC) {
		order = logdb.DESC
	}
	filter := &logdb.EventFilter{
		Order:   order,
		Options: &logdb.Options{Offset: offset, Limit: limit},
	}

	var owner *stakelock.Bytes32
	if s := query.Get("owner"); s != "" {
		addr, err := stakelock.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "owner"))
		}
		topic := stakelock.BytesToBytes32(addr.Bytes())
		owner = &topic
	}

	name := query.Get("event")
	if name == "" {
		if owner != nil {
			// the owner is the first indexed argument, or the recipient of a transfer
			filter.CriteriaSet = []*logdb.EventCriteria{
				{Topics: [4]*stakelock.Bytes32{nil, owner}},
				{Topics: [4]*stakelock.Bytes32{nil, nil, owner}},
			}
		}
		return filter, nil
	}

	ev, addr, ok := lookupEvent(name)
	if !ok {
		return nil, utils.BadRequest(errors.Errorf("event: unknown event %q", name))
	}
	id := ev.ID()
	criteria := &logdb.EventCriteria{Address: &addr}
	criteria.Topics[0] = &id
	criteria.Topics[1] = owner
	filter.CriteriaSet = []*logdb.EventCriteria{criteria}
	return filter, nil
}

func convertEvent(ev *logdb.Event) *Event {
	out := &Event{
		Seq:     ev.Seq,
		Index:   ev.Index,
		Time:    ev.Time,
		Caller:  ev.Caller,
		Address: ev.Address,
		Data:    "0x" + common.Bytes2Hex(ev.Data),
	}
	var topics []stakelock.Bytes32
	for _, t := range ev.Topics {
		if t != nil {
			topics = append(topics, *t)
			out.Topics = append(out.Topics, t.String())
		}
	}
	contract, ok := contractABIs[ev.Address]
	if !ok || len(topics) == 0 {
		return out
	}
	decl, ok := contract.EventByID(topics[0])
	if !ok {
		return out
	}
	out.Name = decl.Name()
	args, err := decl.Decode(ev.Data, topics[1:])
	if err != nil {
		return out
	}
	out.Args = make(map[string]string, len(args))
	for k, v := range args {
		switch v := v.(type) {
		case *big.Int:
			out.Args[k] = v.String()
		case common.Address:
			out.Args[k] = stakelock.Address(v).String()
		default:
			out.Args[k] = fmt.Sprint(v)
		}
	}
	return out
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := e.buildFilter(req)
	if err != nil {
		return err
	}
	events, err := e.db.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	out := make([]*Event, 0, len(events))
	for _, ev := range events {
		out = append(out, convertEvent(ev))
	}
	return utils.WriteJSON(w, out)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
