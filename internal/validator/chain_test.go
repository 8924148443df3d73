// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package validator_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/btckit/internal/bitcoin"
	"github.com/blinklabs-io/btckit/internal/validator"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// testChain is an in-memory HeaderReader
type testChain struct {
	headers []*bitcoin.BlockHeader
	byHash  map[chainhash.Hash]*bitcoin.BlockHeader
}

func newTestChain() *testChain {
	return &testChain{
		byHash: make(map[chainhash.Hash]*bitcoin.BlockHeader),
	}
}

func (c *testChain) HeaderAtHeight(height uint32) (*bitcoin.BlockHeader, error) {
	if int(height) >= len(c.headers) {
		return nil, nil
	}
	return c.headers[height], nil
}

func (c *testChain) PreviousHeader(
	header *bitcoin.BlockHeader,
) (*bitcoin.BlockHeader, error) {
	return c.byHash[header.PrevBlock], nil
}

func (c *testChain) add(header *bitcoin.BlockHeader) {
	c.headers = append(c.headers, header)
	c.byHash[header.Hash()] = header
}

func (c *testChain) tip() *bitcoin.BlockHeader {
	if len(c.headers) == 0 {
		return nil
	}
	return c.headers[len(c.headers)-1]
}

func (c *testChain) height() uint32 {
	return uint32(len(c.headers))
}

// next builds a header extending the tip
func (c *testChain) next(timestamp uint32, bits uint32) *bitcoin.BlockHeader {
	header := &bitcoin.BlockHeader{
		Version:   1,
		Timestamp: timestamp,
		Bits:      bits,
		Nonce:     c.height(),
	}
	if tip := c.tip(); tip != nil {
		header.PrevBlock = tip.Hash()
	}
	return header
}

// extend appends count headers with constant spacing
func (c *testChain) extend(count int, spacing uint32, bits uint32) {
	var timestamp uint32 = 1231006505
	if tip := c.tip(); tip != nil {
		timestamp = tip.Timestamp + spacing
	}
	for range count {
		c.add(c.next(timestamp, bits))
		timestamp += spacing
	}
}

// candidate wraps a header as the candidate for the next height
func (c *testChain) candidate(header *bitcoin.BlockHeader) *validator.Candidate {
	return &validator.Candidate{
		Header:   header,
		Previous: c.tip(),
		Height:   c.height(),
		Helper:   validator.NewHelper(c),
	}
}

// mine searches for a nonce satisfying the header's own bits
func mine(t *testing.T, header *bitcoin.BlockHeader) {
	t.Helper()
	for nonce := uint32(0); nonce < 1<<24; nonce++ {
		header.Nonce = nonce
		if validator.CheckProofOfWork(header) == nil {
			return
		}
	}
	t.Fatalf("could not mine header with bits 0x%08x", header.Bits)
}

func TestHelperMissingHistory(t *testing.T) {
	chain := newTestChain()
	chain.extend(3, 600, 0x1d00ffff)
	helper := validator.NewHelper(chain)
	if _, err := helper.HeaderAtHeight(2); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := helper.HeaderAtHeight(5); !errors.Is(err, bitcoin.ErrNoAncestorAtHeight) {
		t.Fatalf("got error %v, want %v", err, bitcoin.ErrNoAncestorAtHeight)
	}
	if _, err := helper.PreviousHeader(chain.headers[0]); !errors.Is(err, bitcoin.ErrNoPreviousBlock) {
		t.Fatalf("got error %v, want %v", err, bitcoin.ErrNoPreviousBlock)
	}
	prev, err := helper.PreviousHeader(chain.headers[2])
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if prev != chain.headers[1] {
		t.Fatalf("unexpected previous header: %s", prev)
	}
	var nilHelper *validator.Helper
	if _, err := nilHelper.HeaderAtHeight(0); !errors.Is(err, bitcoin.ErrNoAncestorAtHeight) {
		t.Fatalf("got error %v, want %v", err, bitcoin.ErrNoAncestorAtHeight)
	}
}
