// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package bitcoin

import (
	"math/big"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
	Regtest NetworkType = "regtest"
)

type POWParams struct {
	// Limit is the easiest allowed target
	Limit *big.Int
	// Bits is the compact form of the easiest allowed target
	Bits uint32
	// HeightInterval is the number of blocks per retarget epoch
	HeightInterval uint32
	// TargetSpacing is the expected number of seconds per block
	TargetSpacing  uint32
	TargetTimespan uint32
	MinActual      uint32
	MaxActual      uint32
	// ReduceMinDifficulty allows min-difficulty blocks after
	// MinDifficultyReductionTime seconds without a block
	ReduceMinDifficulty        bool
	MinDifficultyReductionTime uint32
	NoRetargeting              bool
}

type Network struct {
	Type        NetworkType
	Name        string
	POW         POWParams
	Genesis     BlockHeader
	GenesisHash chainhash.Hash
}

// IsRetargetHeight returns whether a block at the given height starts a
// new difficulty epoch
func (n *Network) IsRetargetHeight(height uint32) bool {
	return height%n.POW.HeightInterval == 0
}

func newNetwork(t NetworkType, params *chaincfg.Params) *Network {
	targetSpacing := uint32(params.TargetTimePerBlock / time.Second)
	targetTimespan := uint32(params.TargetTimespan / time.Second)
	adjustmentFactor := uint32(params.RetargetAdjustmentFactor) // nolint:gosec
	n := &Network{
		Type: t,
		Name: params.Name,
		POW: POWParams{
			Limit:                      new(big.Int).Set(params.PowLimit),
			Bits:                       params.PowLimitBits,
			HeightInterval:             targetTimespan / targetSpacing,
			TargetSpacing:              targetSpacing,
			TargetTimespan:             targetTimespan,
			MinActual:                  targetTimespan / adjustmentFactor,
			MaxActual:                  targetTimespan * adjustmentFactor,
			ReduceMinDifficulty:        params.ReduceMinDifficulty,
			MinDifficultyReductionTime: uint32(params.MinDiffReductionTime / time.Second),
			NoRetargeting:              params.PoWNoRetargeting,
		},
		Genesis:     *NewBlockHeaderFromWire(&params.GenesisBlock.Header),
		GenesisHash: *params.GenesisHash,
	}
	return n
}

var Networks = map[NetworkType]*Network{
	Mainnet: newNetwork(Mainnet, &chaincfg.MainNetParams),
	Testnet: newNetwork(Testnet, &chaincfg.TestNet3Params),
	Regtest: newNetwork(Regtest, &chaincfg.RegressionNetParams),
}

// SelectNetwork returns the parameters for the given network type, or nil
// if the type is unknown
func SelectNetwork(t NetworkType) *Network {
	return Networks[t]
}
