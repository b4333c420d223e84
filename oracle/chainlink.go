// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// AggregatorV3ABI is the subset of AggregatorV3Interface read by ChainlinkFeed.
const AggregatorV3ABI = `[
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"description","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"latestRoundData","outputs":[
		{"internalType":"uint80","name":"roundId","type":"uint80"},
		{"internalType":"int256","name":"answer","type":"int256"},
		{"internalType":"uint256","name":"startedAt","type":"uint256"},
		{"internalType":"uint256","name":"updatedAt","type":"uint256"},
		{"internalType":"uint80","name":"answeredInRound","type":"uint80"}
	],"stateMutability":"view","type":"function"}
]`

// ContractCaller is the read-only part of an Ethereum client.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ChainlinkFeed reads an AggregatorV3Interface contract over JSON-RPC.
type ChainlinkFeed struct {
	caller  ContractCaller
	address common.Address
	abi     abi.ABI
	closer  func()
}

var _ Feed = (*ChainlinkFeed)(nil)

// NewChainlinkFeed creates a feed reading the aggregator at address through caller.
func NewChainlinkFeed(caller ContractCaller, address common.Address) (*ChainlinkFeed, error) {
	parsed, err := abi.JSON(strings.NewReader(AggregatorV3ABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse aggregator abi")
	}
	return &ChainlinkFeed{
		caller:  caller,
		address: address,
		abi:     parsed,
		closer:  func() {},
	}, nil
}

// DialChainlinkFeed connects to the RPC endpoint and creates a feed on it.
func DialChainlinkFeed(ctx context.Context, rawurl string, address common.Address) (*ChainlinkFeed, error) {
	client, err := ethclient.DialContext(ctx, rawurl)
	if err != nil {
		return nil, errors.Wrap(err, "dial oracle rpc")
	}
	feed, err := NewChainlinkFeed(client, address)
	if err != nil {
		client.Close()
		return nil, err
	}
	feed.closer = client.Close
	logger.Info("connected to price feed", "rpc", rawurl, "address", address)
	return feed, nil
}

// Address returns the aggregator address.
func (f *ChainlinkFeed) Address() common.Address {
	return f.address
}

// Close releases the underlying client, if owned.
func (f *ChainlinkFeed) Close() {
	f.closer()
}

func (f *ChainlinkFeed) call(ctx context.Context, method string) ([]any, error) {
	input, err := f.abi.Pack(method)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}
	output, err := f.caller.CallContract(ctx, ethereum.CallMsg{To: &f.address, Data: input}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", method)
	}
	values, err := f.abi.Unpack(method, output)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	return values, nil
}

func (f *ChainlinkFeed) Decimals(ctx context.Context) (uint8, error) {
	values, err := f.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(values[0], new(uint8)).(*uint8), nil
}

// Description returns the human readable pair name of the feed.
func (f *ChainlinkFeed) Description(ctx context.Context) (string, error) {
	values, err := f.call(ctx, "description")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(values[0], new(string)).(*string), nil
}

func (f *ChainlinkFeed) LatestRoundData(ctx context.Context) (*RoundData, error) {
	values, err := f.call(ctx, "latestRoundData")
	if err != nil {
		return nil, err
	}
	if len(values) != 5 {
		return nil, errors.Errorf("latestRoundData: unexpected output length %d", len(values))
	}
	num := func(i int) *big.Int {
		return abi.ConvertType(values[i], new(big.Int)).(*big.Int)
	}
	startedAt, updatedAt := num(2), num(3)
	if !startedAt.IsUint64() || !updatedAt.IsUint64() {
		return nil, errors.New("latestRoundData: timestamp out of range")
	}
	return &RoundData{
		RoundID:         num(0),
		Answer:          num(1),
		StartedAt:       startedAt.Uint64(),
		UpdatedAt:       updatedAt.Uint64(),
		AnsweredInRound: num(4),
	}, nil
}
