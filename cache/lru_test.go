// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUGetOrLoad(t *testing.T) {
	c, err := NewLRU(2)
	require.NoError(t, err)

	loads := 0
	loader := func(key any) (any, error) {
		loads++
		return key.(string) + "-v", nil
	}

	v, err := c.GetOrLoad("a", loader)
	assert.NoError(t, err)
	assert.Equal(t, "a-v", v)

	v, err = c.GetOrLoad("a", loader)
	assert.NoError(t, err)
	assert.Equal(t, "a-v", v)
	assert.Equal(t, 1, loads)

	stats, changed := c.Stats()
	assert.Equal(t, Snapshot{Hit: 1, Miss: 1}, stats)
	assert.True(t, changed)

	_, err = c.GetOrLoad("b", func(any) (any, error) { return nil, errors.New("boom") })
	assert.EqualError(t, err, "boom")
	assert.False(t, c.Contains("b"))
}

func TestNewLRUInvalidSize(t *testing.T) {
	_, err := NewLRU(0)
	assert.Error(t, err)
}
