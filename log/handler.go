// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"
	"strconv"
	"sync"

	"github.com/holiman/uint256"

	"github.com/stakelock/stakelock/safecast"
	"github.com/stakelock/stakelock/stakelock"
)

type discardHandler struct{}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (h *discardHandler) WithGroup(_ string) slog.Handler {
	panic("not implemented")
}

func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return &discardHandler{}
}

// stakeRecord is a staked position as seen by the logger. Positions are rendered
// from their packed storage word.
type stakeRecord interface {
	IsOpen() bool
	Packed() stakelock.Bytes32
}

// unpackRecord splits the packed word of p into its ETH amount, token amount and end time.
func unpackRecord(p stakeRecord) (eth, token *uint256.Int, end uint64) {
	word := p.Packed()
	v := new(uint256.Int).SetBytes32(word[:])
	mask := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), stakelock.AmountBits), uint256.NewInt(1))

	eth = new(uint256.Int).And(v, mask)
	token = new(uint256.Int).Rsh(v, stakelock.AmountBits)
	token.And(token, mask)
	end = new(uint256.Int).Rsh(v, 2*stakelock.AmountBits).Uint64()
	return
}

// appendRecord writes p as "eth/token@end", with "closed" in place of the end time
// once closed. Amounts get thousand separators when pretty is set.
func appendRecord(dst []byte, p stakeRecord, pretty bool) []byte {
	eth, token, end := unpackRecord(p)
	amount := func(dst []byte, n *uint256.Int) []byte {
		if pretty {
			return appendU256(dst, n)
		}
		return append(dst, n.Dec()...)
	}
	dst = amount(dst, eth)
	dst = append(dst, '/')
	dst = amount(dst, token)
	if !p.IsOpen() {
		return append(dst, "@closed"...)
	}
	return strconv.AppendUint(append(dst, '@'), end, 10)
}

// formatLedgerValue renders the ledger's own types. It reports false for any other value.
func formatLedgerValue(dst []byte, value any, pretty bool) ([]byte, bool) {
	switch v := value.(type) {
	case stakelock.Address:
		return append(dst, v.String()...), true
	case *stakelock.Address:
		if v == nil {
			return append(dst, "<nil>"...), true
		}
		return append(dst, v.String()...), true
	case safecast.Uint104:
		if pretty {
			return appendBigInt(dst, v.Big()), true
		}
		return append(dst, v.String()...), true
	case safecast.Uint48:
		return strconv.AppendUint(dst, uint64(v), 10), true
	case stakeRecord:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return append(dst, "<nil>"...), true
		}
		return appendRecord(dst, v, pretty), true
	}
	return dst, false
}

type TerminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      *slog.LevelVar
	useColor bool
	attrs    []slog.Attr
	// maximum value length seen per key, used to align columns
	fieldPadding map[string]int

	buf []byte
}

// NewTerminalHandlerWithLevel returns a handler formatting records for a human reader,
// with optional colored levels. Records below lvl are dropped.
//
//	DEBUG[10-19|12:00:00.000] unstaked   owner=0x7e5f… position=500,000/82,500@closed
func NewTerminalHandlerWithLevel(wr io.Writer, lvl *slog.LevelVar, useColor bool) *TerminalHandler {
	return &TerminalHandler{
		wr:           wr,
		lvl:          lvl,
		useColor:     useColor,
		fieldPadding: make(map[string]int),
	}
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf := h.format(h.buf, r, h.useColor)
	h.wr.Write(buf)
	h.buf = buf[:0]
	return nil
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level.Level() >= h.lvl.Level()
}

func (h *TerminalHandler) WithGroup(_ string) slog.Handler {
	panic("not implemented")
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TerminalHandler{
		wr:           h.wr,
		lvl:          h.lvl,
		useColor:     h.useColor,
		attrs:        append(h.attrs, attrs...),
		fieldPadding: make(map[string]int),
	}
}

type leveler struct{ minLevel *slog.LevelVar }

func (l *leveler) Level() slog.Level {
	return l.minLevel.Level()
}

// JSONHandlerWithLevel returns a handler printing records at or above level as JSON.
// Amounts are decimal strings.
func JSONHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: builtinReplace,
		Level:       &leveler{level},
	})
}

func builtinReplace(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			return slog.Attr{Key: "t", Value: attr.Value}
		}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.Any("lvl", LevelString(l))
		}
	}

	if attr.Value.Kind() != slog.KindAny {
		return attr
	}
	value := attr.Value.Any()
	if out, ok := formatLedgerValue(nil, value, false); ok {
		attr.Value = slog.StringValue(string(out))
		return attr
	}

	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	case *uint256.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.Dec())
		}
	case fmt.Stringer:
		if v == nil || (reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil()) {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	}
	return attr
}
