// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package validator_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/blinklabs-io/btckit/internal/bitcoin"
	"github.com/blinklabs-io/btckit/internal/validator"
)

var mainnetHeaderHex = []string{
	// Block 1
	"010000006fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000982051fd1e4ba744bbbe680e1fee14677ba1a3c3540bf7b1cdb606e857233e0e61bc6649ffff001d01e36299",
	// Block 2
	"010000004860eb18bf1b1620e37e9490fc8a427514416fd75159ab86688e9a8300000000d5fdcc541e25de1c7a5addedf24858b8bb665c9f36ef744ee42c316022c90f9bb0bc6649ffff001d08d2bd61",
}

func mainnetHeaders(t *testing.T) []*bitcoin.BlockHeader {
	t.Helper()
	ret := make([]*bitcoin.BlockHeader, 0, len(mainnetHeaderHex))
	for _, headerHex := range mainnetHeaderHex {
		header, err := bitcoin.NewBlockHeaderFromHex(headerHex)
		if err != nil {
			t.Fatalf("unexpected error decoding header: %s", err)
		}
		ret = append(ret, header)
	}
	return ret
}

func TestValidatePoW(t *testing.T) {
	for _, header := range mainnetHeaders(t) {
		if err := validator.CheckProofOfWork(header); err != nil {
			t.Fatalf("CheckProofOfWork failed for block %s: %s", header.Hash(), err)
		}
	}
}

func TestValidatePoWGenesis(t *testing.T) {
	for _, networkType := range []bitcoin.NetworkType{bitcoin.Mainnet, bitcoin.Testnet, bitcoin.Regtest} {
		genesis := bitcoin.SelectNetwork(networkType).Genesis
		pow := validator.NewProofOfWork()
		if err := pow.Validate(&validator.Candidate{Header: &genesis}); err != nil {
			t.Fatalf("%s: genesis failed proof-of-work: %s", networkType, err)
		}
	}
}

func TestValidatePoWBadBlock(t *testing.T) {
	header := mainnetHeaders(t)[0]
	// Corrupt the nonce
	header.Nonce = 0
	err := validator.CheckProofOfWork(header)
	if !errors.Is(err, bitcoin.ErrInsufficientWork) {
		t.Fatalf("got error %v, want %v", err, bitcoin.ErrInsufficientWork)
	}
}

func TestValidatePoWHarderBits(t *testing.T) {
	// The same hash must not pass against a much harder target
	header := mainnetHeaders(t)[0]
	header.Bits = 0x1b0404cb
	if err := validator.CheckProofOfWork(header); !errors.Is(err, bitcoin.ErrInsufficientWork) {
		t.Fatalf("got error %v, want %v", err, bitcoin.ErrInsufficientWork)
	}
}

func TestValidatePoWInvalidEncoding(t *testing.T) {
	header := mainnetHeaders(t)[0]
	header.Bits = 0x1d80ffff
	if err := validator.CheckProofOfWork(header); !errors.Is(err, bitcoin.ErrInvalidEncoding) {
		t.Fatalf("got error %v, want %v", err, bitcoin.ErrInvalidEncoding)
	}
}

func TestValidatePoWMatchesTarget(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	passed := 0
	for range 512 {
		header := &bitcoin.BlockHeader{
			Version:   1,
			Timestamp: rng.Uint32(),
			Bits:      0x207fffff,
			Nonce:     rng.Uint32(),
		}
		target, err := bitcoin.CompactToTarget(header.Bits)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		expected := bitcoin.HashToTarget(header.Hash()).Cmp(target) <= 0
		err = validator.CheckProofOfWork(header)
		if expected != (err == nil) {
			t.Fatalf(
				"header %s: proof-of-work result %v, want valid=%v",
				header.Hash(),
				err,
				expected,
			)
		}
		if expected {
			passed++
		}
	}
	// Roughly half of all hashes satisfy the regtest limit
	if passed == 0 || passed == 512 {
		t.Fatalf("unexpected pass count: %d", passed)
	}
}
