// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stakelock/stakelock/builtin/staker"
	"github.com/stakelock/stakelock/runtime"
	"github.com/stakelock/stakelock/stakelock"
)

// Config is the YAML configuration of a ledger node. Amounts are decimal or 0x-prefixed hex strings.
type Config struct {
	Staker struct {
		MinimumStakingPeriod uint64 `yaml:"minimumStakingPeriod"`
		Scaling              string `yaml:"scaling"`
	} `yaml:"staker"`
	Oracle struct {
		RPC            string `yaml:"rpc"`
		Address        string `yaml:"address"`
		PriceFreshness uint64 `yaml:"priceFreshness"`
		Mock           struct {
			Decimals uint8  `yaml:"decimals"`
			Answer   string `yaml:"answer"`
		} `yaml:"mock"`
	} `yaml:"oracle"`
	Genesis struct {
		Balances  map[string]string `yaml:"balances"`
		Rejecting []string          `yaml:"rejecting"`
	} `yaml:"genesis"`
}

func defaultConfig() *Config {
	var c Config
	c.Staker.MinimumStakingPeriod = stakelock.MinimumStakingPeriod
	c.Staker.Scaling = staker.ScaleRaw.String()
	c.Oracle.PriceFreshness = stakelock.PriceFreshness
	c.Oracle.Mock.Decimals = 8
	c.Oracle.Mock.Answer = "165000000000"
	return &c
}

// loadConfig reads the configuration at path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (*Config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "parse config %v", path)
	}
	return c, nil
}

func (c *Config) stakerParams() (staker.Params, error) {
	scaling, err := staker.ParseScaling(c.Staker.Scaling)
	if err != nil {
		return staker.Params{}, err
	}
	if c.Staker.MinimumStakingPeriod == 0 {
		return staker.Params{}, errors.New("minimumStakingPeriod: must be positive")
	}
	return staker.Params{
		MinimumStakingPeriod: c.Staker.MinimumStakingPeriod,
		Scaling:              scaling,
	}, nil
}

func (c *Config) mockAnswer() (*big.Int, error) {
	answer, ok := math.ParseBig256(c.Oracle.Mock.Answer)
	if !ok {
		return nil, errors.Errorf("oracle.mock.answer: invalid amount %q", c.Oracle.Mock.Answer)
	}
	return answer, nil
}

func (c *Config) genesis() (*runtime.Genesis, error) {
	gen := &runtime.Genesis{Balances: make(map[stakelock.Address]*big.Int, len(c.Genesis.Balances))}
	for k, v := range c.Genesis.Balances {
		addr, err := stakelock.ParseAddress(k)
		if err != nil {
			return nil, errors.WithMessagef(err, "genesis balance %v", k)
		}
		bal, ok := math.ParseBig256(v)
		if !ok {
			return nil, errors.Errorf("genesis balance %v: invalid amount %q", k, v)
		}
		gen.Balances[addr] = bal
	}
	for _, k := range c.Genesis.Rejecting {
		addr, err := stakelock.ParseAddress(k)
		if err != nil {
			return nil, errors.WithMessagef(err, "rejecting account %v", k)
		}
		gen.Rejecting = append(gen.Rejecting, addr)
	}
	return gen, nil
}

// devAccounts are the funded accounts of a dev ledger, derived from fixed keys.
func devAccounts() []stakelock.Address {
	accounts := make([]stakelock.Address, 0, 5)
	for i := range 5 {
		key, err := crypto.ToECDSA(crypto.Keccak256([]byte(fmt.Sprintf("stakelock dev account %d", i))))
		if err != nil {
			panic(err)
		}
		accounts = append(accounts, stakelock.Address(crypto.PubkeyToAddress(key.PublicKey)))
	}
	return accounts
}

// devGenesis funds every dev account with 10000 ether on top of gen.
func devGenesis(gen *runtime.Genesis) *runtime.Genesis {
	for _, addr := range devAccounts() {
		if _, ok := gen.Balances[addr]; !ok {
			gen.Balances[addr] = new(big.Int).Mul(big.NewInt(10000), stakelock.Ether)
		}
	}
	return gen
}
