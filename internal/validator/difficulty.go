// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package validator

import (
	"fmt"
	"math/big"

	"github.com/blinklabs-io/btckit/internal/bitcoin"
)

// DifficultyAdjustment recomputes the expected difficulty at every
// retarget boundary from the time taken to mine the previous epoch
type DifficultyAdjustment struct {
	network    *bitcoin.Network
	checkLimit bool
}

type DifficultyAdjustmentOptionFunc func(*DifficultyAdjustment)

// WithTargetLimitCheck also rejects targets above the network limit at
// heights between retarget boundaries
func WithTargetLimitCheck() DifficultyAdjustmentOptionFunc {
	return func(d *DifficultyAdjustment) {
		d.checkLimit = true
	}
}

func NewDifficultyAdjustment(
	network *bitcoin.Network,
	opts ...DifficultyAdjustmentOptionFunc,
) *DifficultyAdjustment {
	d := &DifficultyAdjustment{network: network}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DifficultyAdjustment) Validate(c *Candidate) error {
	if !d.network.IsRetargetHeight(c.Height) {
		if d.checkLimit {
			return d.validateLimit(c)
		}
		return nil
	}
	expected, err := d.ExpectedBits(c)
	if err != nil {
		return err
	}
	if c.Header.Bits != expected {
		return fmt.Errorf(
			"%w: got 0x%08x, want 0x%08x at retarget height %d",
			bitcoin.ErrUnexpectedDifficultyBits,
			c.Header.Bits,
			expected,
			c.Height,
		)
	}
	return nil
}

// ExpectedBits returns the bits required for a candidate at a retarget
// boundary
func (d *DifficultyAdjustment) ExpectedBits(c *Candidate) (uint32, error) {
	pow := &d.network.POW
	prev, err := c.previous()
	if err != nil {
		return 0, err
	}
	if c.Height < pow.HeightInterval {
		return 0, fmt.Errorf(
			"%w: %d is before the first retarget",
			bitcoin.ErrNoAncestorAtHeight,
			c.Height,
		)
	}
	epochStart, err := c.Helper.HeaderAtHeight(c.Height - pow.HeightInterval)
	if err != nil {
		return 0, err
	}
	oldTarget, err := bitcoin.CompactToTarget(prev.Bits)
	if err != nil {
		return 0, err
	}
	actualTimespan := int64(prev.Timestamp) - int64(epochStart.Timestamp)
	newTarget := RetargetTarget(pow, oldTarget, actualTimespan)
	return bitcoin.TargetToCompact(newTarget), nil
}

func (d *DifficultyAdjustment) validateLimit(c *Candidate) error {
	target, err := bitcoin.CompactToTarget(c.Header.Bits)
	if err != nil {
		return err
	}
	if target.Cmp(d.network.POW.Limit) > 0 {
		return fmt.Errorf(
			"%w: target %064x above network limit %064x",
			bitcoin.ErrUnexpectedDifficultyBits,
			target,
			d.network.POW.Limit,
		)
	}
	return nil
}

// RetargetTarget computes the target for a new epoch. The measured
// timespan is clamped to [MinActual, MaxActual], and the result is
// capped at the network limit. The multiplication happens before the
// division so that integer truncation matches the reference client.
func RetargetTarget(
	pow *bitcoin.POWParams,
	oldTarget *big.Int,
	actualTimespan int64,
) *big.Int {
	actualTimespan = max(actualTimespan, int64(pow.MinActual))
	actualTimespan = min(actualTimespan, int64(pow.MaxActual))
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(int64(pow.TargetTimespan)))
	if newTarget.Cmp(pow.Limit) > 0 {
		newTarget.Set(pow.Limit)
	}
	return newTarget
}
