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

// Bits requires the difficulty to carry forward unchanged between
// retarget boundaries
type Bits struct {
	network *bitcoin.Network
}

func NewBits(network *bitcoin.Network) *Bits {
	return &Bits{network: network}
}

func (b *Bits) Validate(c *Candidate) error {
	// Retarget boundaries are checked by DifficultyAdjustment
	if b.network.IsRetargetHeight(c.Height) {
		return nil
	}
	prev, err := c.previous()
	if err != nil {
		return err
	}
	if c.Header.Bits != prev.Bits {
		return fmt.Errorf(
			"%w: got 0x%08x, want 0x%08x at height %d",
			bitcoin.ErrUnexpectedDifficultyBits,
			c.Header.Bits,
			prev.Bits,
			c.Height,
		)
	}
	return nil
}
