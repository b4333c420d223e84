// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/api/utils"
	"github.com/stakelock/stakelock/builtin/staker/position"
	"github.com/stakelock/stakelock/runtime"
	"github.com/stakelock/stakelock/stakelock"
)

type Staker struct {
	rt  *runtime.Runtime
	dev bool
}

// New creates the ledger API. Write endpoints are only mounted in dev mode.
func New(rt *runtime.Runtime, dev bool) *Staker {
	return &Staker{rt: rt, dev: dev}
}

func parseOwner(req *http.Request) (stakelock.Address, error) {
	owner, err := stakelock.ParseAddress(mux.Vars(req)["owner"])
	if err != nil {
		return stakelock.Address{}, utils.BadRequest(errors.WithMessage(err, "owner"))
	}
	return owner, nil
}

func (s *Staker) handleGetParams(w http.ResponseWriter, _ *http.Request) error {
	deps := s.rt.Deps()
	return utils.WriteJSON(w, &Params{
		MinimumStakingPeriod: deps.Params.MinimumStakingPeriod,
		PriceFreshness:       deps.Oracle.Threshold(),
		Scaling:              deps.Params.Scaling.String(),
		DataFeed:             deps.Oracle.Address(),
	})
}

func (s *Staker) handleGetTotalStaked(w http.ResponseWriter, _ *http.Request) error {
	var total *big.Int
	if err := s.rt.View(func(c *runtime.Contracts) (err error) {
		total, err = c.Staker.TotalStaked()
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Amount{Amount: (*math.HexOrDecimal256)(total)})
}

func (s *Staker) handleGetPrice(w http.ResponseWriter, req *http.Request) error {
	snapshot, err := s.rt.Deps().Oracle.LatestRound(req.Context())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Price{
		Price:     (*math.HexOrDecimal256)(snapshot.Price),
		Decimals:  snapshot.Decimals,
		UpdatedAt: snapshot.UpdatedAt,
	})
}

func (s *Staker) handleGetIDs(w http.ResponseWriter, req *http.Request) error {
	owner, err := parseOwner(req)
	if err != nil {
		return err
	}
	var ids uint64
	if err := s.rt.View(func(c *runtime.Contracts) (err error) {
		ids, err = c.Staker.IDs(owner)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &IDs{Owner: owner, IDs: ids})
}

func (s *Staker) handleGetPosition(w http.ResponseWriter, req *http.Request) error {
	owner, err := parseOwner(req)
	if err != nil {
		return err
	}
	index, err := strconv.ParseUint(mux.Vars(req)["index"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "index"))
	}
	var p *position.Position
	if err := s.rt.View(func(c *runtime.Contracts) (err error) {
		p, err = c.Staker.GetStakePosition(owner, index)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, convertPosition(index, p))
}

func (s *Staker) handleGetPositions(w http.ResponseWriter, req *http.Request) error {
	owner, err := parseOwner(req)
	if err != nil {
		return err
	}
	openOnly := req.URL.Query().Get("open") == "true"

	var positions []*position.Position
	if err := s.rt.View(func(c *runtime.Contracts) (err error) {
		positions, err = c.Staker.GetStakePositions(owner)
		return
	}); err != nil {
		return err
	}
	out := make([]*Position, 0, len(positions))
	for i, p := range positions {
		if openOnly && !p.IsOpen() {
			continue
		}
		out = append(out, convertPosition(uint64(i), p))
	}
	return utils.WriteJSON(w, out)
}

func (s *Staker) handleStake(w http.ResponseWriter, req *http.Request) error {
	var body StakeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Caller == nil {
		return utils.BadRequest(errors.New("caller: required"))
	}
	index, receipt, err := s.rt.Stake(req.Context(), &runtime.Call{
		Caller: *body.Caller,
		Value:  (*big.Int)(body.Value),
		Time:   body.Time,
	}, body.LockDuration)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &CallResult{Seq: receipt.Seq, Time: receipt.Time, Index: &index})
}

func (s *Staker) handleUnstake(w http.ResponseWriter, req *http.Request) error {
	var body UnstakeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Caller == nil {
		return utils.BadRequest(errors.New("caller: required"))
	}
	receipt, err := s.rt.Unstake(req.Context(), &runtime.Call{
		Caller: *body.Caller,
		Time:   body.Time,
	}, body.Index)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &CallResult{Seq: receipt.Seq, Time: receipt.Time, Index: &body.Index})
}

func (s *Staker) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/params").
		Methods(http.MethodGet).
		Name("GET /staker/params").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetParams))
	sub.Path("/total-staked").
		Methods(http.MethodGet).
		Name("GET /staker/total-staked").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetTotalStaked))
	sub.Path("/price").
		Methods(http.MethodGet).
		Name("GET /staker/price").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPrice))
	sub.Path("/{owner}/ids").
		Methods(http.MethodGet).
		Name("GET /staker/{owner}/ids").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetIDs))
	sub.Path("/{owner}/positions").
		Methods(http.MethodGet).
		Name("GET /staker/{owner}/positions").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPositions))
	sub.Path("/{owner}/positions/{index}").
		Methods(http.MethodGet).
		Name("GET /staker/{owner}/positions/{index}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPosition))

	if s.dev {
		sub.Path("/stake").
			Methods(http.MethodPost).
			Name("POST /staker/stake").
			HandlerFunc(utils.WrapHandlerFunc(s.handleStake))
		sub.Path("/unstake").
			Methods(http.MethodPost).
			Name("POST /staker/unstake").
			HandlerFunc(utils.WrapHandlerFunc(s.handleUnstake))
	}
}
