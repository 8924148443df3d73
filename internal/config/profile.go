// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/blinklabs-io/btckit/internal/bitcoin"
)

type Profile struct {
	Network string // Bitcoin network name
	Height  uint32 // Height of the trusted starting header
	Header  string // Hex-encoded trusted starting header
}

// CheckpointHeader decodes the trusted starting header
func (p Profile) CheckpointHeader() (*bitcoin.BlockHeader, error) {
	return bitcoin.NewBlockHeaderFromHex(p.Header)
}

func (p Profile) validate(network *bitcoin.Network) error {
	// Retargeting needs the full epoch from a boundary onward
	if !network.IsRetargetHeight(p.Height) {
		return fmt.Errorf(
			"checkpoint height %d is not a retarget boundary",
			p.Height,
		)
	}
	if _, err := p.CheckpointHeader(); err != nil {
		return fmt.Errorf("checkpoint header: %w", err)
	}
	return nil
}

func GetAvailableProfiles() []string {
	ret := make([]string, 0, len(Profiles))
	for k := range Profiles {
		ret = append(ret, k)
	}
	slices.Sort(ret)
	return ret
}

func genesisProfile(t bitcoin.NetworkType) Profile {
	genesis := bitcoin.SelectNetwork(t).Genesis
	return Profile{
		Network: string(t),
		Height:  0,
		Header:  hex.EncodeToString(genesis.Bytes()),
	}
}

var Profiles = map[string]Profile{
	"mainnet-genesis": genesisProfile(bitcoin.Mainnet),
	"testnet-genesis": genesisProfile(bitcoin.Testnet),
	"regtest-genesis": genesisProfile(bitcoin.Regtest),
}
