// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package validator

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/btckit/internal/bitcoin"
)

// Candidate is a header being considered for extending the chain
type Candidate struct {
	Header *bitcoin.BlockHeader
	// Previous is the header the candidate builds on. It is looked up
	// through Helper when not provided.
	Previous *bitcoin.BlockHeader
	Height   uint32
	// Helper must be bound to a consistent view of the chain for the
	// duration of the validation call
	Helper *Helper
}

func (c *Candidate) previous() (*bitcoin.BlockHeader, error) {
	if c.Previous != nil {
		return c.Previous, nil
	}
	prev, err := c.Helper.PreviousHeader(c.Header)
	if err != nil {
		return nil, err
	}
	c.Previous = prev
	return prev, nil
}

// Validator checks a single consensus rule
type Validator interface {
	Validate(c *Candidate) error
}

// Chain runs its validators in order, stopping at the first failure
type Chain struct {
	validators []Validator
}

func NewChain(validators ...Validator) *Chain {
	return &Chain{validators: validators}
}

func (c *Chain) Validate(cand *Candidate) error {
	for _, v := range c.validators {
		if err := v.Validate(cand); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) Len() int {
	return len(c.validators)
}

// Set requires all of its members to pass. Members are run in the order
// given, so cheap checks such as proof-of-work should come first.
type Set struct {
	validators []Validator
}

func NewSet(validators ...Validator) *Set {
	return &Set{validators: validators}
}

func (s *Set) Validate(cand *Candidate) error {
	if cand == nil || cand.Header == nil {
		return bitcoin.ErrNoHeader
	}
	for _, v := range s.validators {
		if err := v.Validate(cand); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set) Len() int {
	return len(s.validators)
}

// ForNetwork returns the validator assembly for a network
func ForNetwork(network *bitcoin.Network) (*Set, error) {
	if network == nil {
		return nil, errors.New("no network specified")
	}
	switch network.Type {
	case bitcoin.Mainnet:
		return NewSet(
			NewProofOfWork(),
			NewChain(
				NewBits(network),
				NewDifficultyAdjustment(network),
			),
		), nil
	case bitcoin.Testnet:
		return NewSet(
			NewProofOfWork(),
			NewChain(
				NewDifficultyAdjustment(network, WithTargetLimitCheck()),
				NewTestNetMinDifficulty(network),
			),
		), nil
	case bitcoin.Regtest:
		// Difficulty is fully controlled by the local harness
		return NewSet(
			NewProofOfWork(),
			NewChain(),
		), nil
	default:
		return nil, fmt.Errorf("unknown network type: %s", network.Type)
	}
}
