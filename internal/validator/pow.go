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

// ProofOfWork checks that the header hash satisfies the target declared
// by its own bits. It needs no chain history.
type ProofOfWork struct{}

func NewProofOfWork() *ProofOfWork {
	return &ProofOfWork{}
}

func (p *ProofOfWork) Validate(c *Candidate) error {
	return CheckProofOfWork(c.Header)
}

// CheckProofOfWork checks that the block hash, read as a big-endian
// integer, is <= the target derived from the header bits
func CheckProofOfWork(header *bitcoin.BlockHeader) error {
	target, err := bitcoin.CompactToTarget(header.Bits)
	if err != nil {
		return err
	}
	hash := header.Hash()
	if bitcoin.HashToTarget(hash).Cmp(target) > 0 {
		return fmt.Errorf(
			"%w: block hash %s exceeds target %064x",
			bitcoin.ErrInsufficientWork,
			hash,
			target,
		)
	}
	return nil
}
