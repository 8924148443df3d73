// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package validator

import (
	"fmt"

	"github.com/blinklabs-io/btckit/internal/bitcoin"
)

// TestNetMinDifficulty implements the test network rule that allows a
// minimum-difficulty block once no block has been found for twice the
// target spacing. Other blocks between retarget boundaries must carry
// the difficulty of the last block that was not mined at the minimum.
type TestNetMinDifficulty struct {
	network *bitcoin.Network
}

func NewTestNetMinDifficulty(network *bitcoin.Network) *TestNetMinDifficulty {
	return &TestNetMinDifficulty{network: network}
}

func (t *TestNetMinDifficulty) Validate(c *Candidate) error {
	if t.network.IsRetargetHeight(c.Height) {
		return nil
	}
	pow := &t.network.POW
	prev, err := c.previous()
	if err != nil {
		return err
	}
	elapsed := int64(c.Header.Timestamp) - int64(prev.Timestamp)
	if elapsed > int64(pow.MinDifficultyReductionTime) && c.Header.Bits == pow.Bits {
		return nil
	}
	expected, err := t.lastNonMinimumBits(c, prev)
	if err != nil {
		return err
	}
	if c.Header.Bits != expected {
		return fmt.Errorf(
			"%w: got 0x%08x, want 0x%08x at height %d",
			bitcoin.ErrUnexpectedDifficultyBits,
			c.Header.Bits,
			expected,
			c.Height,
		)
	}
	return nil
}

// lastNonMinimumBits walks back from prev until it finds a header that is
// at a retarget boundary or was not mined at the minimum difficulty
func (t *TestNetMinDifficulty) lastNonMinimumBits(
	c *Candidate,
	prev *bitcoin.BlockHeader,
) (uint32, error) {
	cursor := prev
	cursorHeight := c.Height - 1
	for !t.network.IsRetargetHeight(cursorHeight) &&
		cursor.Bits == t.network.POW.Bits {
		next, err := c.Helper.PreviousHeader(cursor)
		if err != nil {
			return 0, err
		}
		cursor = next
		cursorHeight--
	}
	return cursor.Bits, nil
}
