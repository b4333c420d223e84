// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/api/utils"
	"github.com/stakelock/stakelock/builtin"
	"github.com/stakelock/stakelock/runtime"
	"github.com/stakelock/stakelock/stakelock"
)

type Token struct {
	rt  *runtime.Runtime
	dev bool
}

func New(rt *runtime.Runtime, dev bool) *Token {
	return &Token{rt: rt, dev: dev}
}

type Balance struct {
	Address   stakelock.Address     `json:"address"`
	Balance   *math.HexOrDecimal256 `json:"balance"`
	Allowance *math.HexOrDecimal256 `json:"allowance"`
	Native    *math.HexOrDecimal256 `json:"native"`
}

type Supply struct {
	Address     stakelock.Address     `json:"address"`
	Owner       stakelock.Address     `json:"owner"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
}

// ApproveRequest lets the ledger burn up to Amount of Caller's tokens.
type ApproveRequest struct {
	Caller *stakelock.Address    `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func (t *Token) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := stakelock.ParseAddress(mux.Vars(req)["addr"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "addr"))
	}
	var bal, allowance, native *big.Int
	if err := t.rt.View(func(c *runtime.Contracts) (err error) {
		if bal, err = c.Token.BalanceOf(addr); err != nil {
			return
		}
		if allowance, err = c.Token.Allowance(addr, builtin.Staker.Address); err != nil {
			return
		}
		native, err = c.Env.State().GetBalance(addr)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{
		Address:   addr,
		Balance:   (*math.HexOrDecimal256)(bal),
		Allowance: (*math.HexOrDecimal256)(allowance),
		Native:    (*math.HexOrDecimal256)(native),
	})
}

func (t *Token) handleGetSupply(w http.ResponseWriter, _ *http.Request) error {
	var (
		supply *big.Int
		owner  stakelock.Address
	)
	if err := t.rt.View(func(c *runtime.Contracts) (err error) {
		if supply, err = c.Token.TotalSupply(); err != nil {
			return
		}
		owner, err = c.Token.Owner()
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Supply{
		Address:     builtin.Token.Address,
		Owner:       owner,
		TotalSupply: (*math.HexOrDecimal256)(supply),
	})
}

func (t *Token) handleApprove(w http.ResponseWriter, req *http.Request) error {
	var body ApproveRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Caller == nil || body.Amount == nil {
		return utils.BadRequest(errors.New("caller and amount: required"))
	}
	receipt, err := t.rt.Approve(req.Context(), &runtime.Call{Caller: *body.Caller}, (*big.Int)(body.Amount))
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"seq": receipt.Seq})
}

func (t *Token) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/supply").
		Methods(http.MethodGet).
		Name("GET /token/supply").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetSupply))
	sub.Path("/{addr}/balance").
		Methods(http.MethodGet).
		Name("GET /token/{addr}/balance").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetBalance))

	if t.dev {
		sub.Path("/approve").
			Methods(http.MethodPost).
			Name("POST /token/approve").
			HandlerFunc(utils.WrapHandlerFunc(t.handleApprove))
	}
}
