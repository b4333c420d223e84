// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/api/utils"
	"github.com/stakelock/stakelock/oracle"
)

// Oracle lets a dev node move the price of its mock feed.
type Oracle struct {
	mock  *oracle.MockAggregator
	clock func() uint64
}

func New(mock *oracle.MockAggregator, clock func() uint64) *Oracle {
	return &Oracle{mock: mock, clock: clock}
}

// AnswerRequest publishes Answer as a new round. UpdatedAt defaults to now.
type AnswerRequest struct {
	Answer    *math.HexOrDecimal256 `json:"answer"`
	UpdatedAt uint64                `json:"updatedAt,omitempty"`
}

type Round struct {
	RoundID   uint64                `json:"roundId"`
	Answer    *math.HexOrDecimal256 `json:"answer"`
	UpdatedAt uint64                `json:"updatedAt"`
}

func (o *Oracle) handleAnswer(w http.ResponseWriter, req *http.Request) error {
	var body AnswerRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Answer == nil {
		return utils.BadRequest(errors.New("answer: required"))
	}
	updatedAt := body.UpdatedAt
	if updatedAt == 0 {
		updatedAt = o.clock()
	}
	answer := new(big.Int).Set((*big.Int)(body.Answer))
	round := o.mock.UpdateAnswer(answer, updatedAt)

	return utils.WriteJSON(w, &Round{
		RoundID:   round,
		Answer:    (*math.HexOrDecimal256)(answer),
		UpdatedAt: updatedAt,
	})
}

func (o *Oracle) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/answer").
		Methods(http.MethodPost).
		Name("POST /oracle/answer").
		HandlerFunc(utils.WrapHandlerFunc(o.handleAnswer))
}
