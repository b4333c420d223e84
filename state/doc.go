// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the ledger world state: native balances and storage slots of accounts.
//
// Changes are kept in a journaled stack on top of the committed kv store. A checkpoint can be
// taken at any time and reverted to, which discards all changes made since. Stage collects the
// surviving changes and Commit writes them to the store in a single batch.
package state
