// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package bitcoin

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	compactSignBit      = 0x00800000
	compactMantissaMask = 0x007fffff
	maxCompactBits      = 0xff7fffff
)

var (
	bigOne           = big.NewInt(1)
	oneLsh256        = new(big.Int).Lsh(bigOne, 256)
	maxCompactTarget = new(big.Int).Lsh(big.NewInt(compactMantissaMask), 8*(0xff-3))
)

// CompactToTarget converts a compact (nBits) value to the full target.
// The first byte is the exponent, the next 3 bytes are the mantissa.
// Target = mantissa * 2^(8*(exp-3)). The compact format has a sign bit,
// and negative targets are rejected.
func CompactToTarget(bits uint32) (*big.Int, error) {
	if bits&compactSignBit != 0 {
		return nil, fmt.Errorf(
			"%w: sign bit set in 0x%08x",
			ErrInvalidEncoding,
			bits,
		)
	}
	exp := bits >> 24
	mantissa := bits & compactMantissaMask
	target := new(big.Int).SetUint64(uint64(mantissa))
	if exp <= 3 {
		target.Rsh(target, uint(8*(3-exp)))
	} else {
		target.Lsh(target, uint(8*(exp-3)))
	}
	return target, nil
}

// TargetToCompact converts a target to its compact representation. Only
// the 3 most significant bytes are kept, so the conversion loses
// precision for targets with more significant bytes. If the top bit of
// the mantissa would be set, the mantissa is shifted down a byte and the
// exponent bumped to keep the encoding positive. The exponent is a single
// byte, so targets too wide for it encode as the largest positive compact
// value.
func TargetToCompact(target *big.Int) uint32 {
	if target.Sign() <= 0 {
		return 0
	}
	if target.Cmp(maxCompactTarget) > 0 {
		return maxCompactBits
	}
	exp := uint32(len(target.Bytes())) // nolint:gosec
	var mantissa uint32
	if exp <= 3 {
		mantissa = uint32(target.Uint64()) // nolint:gosec
		mantissa <<= 8 * (3 - exp)
	} else {
		tmp := new(big.Int).Rsh(target, uint(8*(exp-3)))
		mantissa = uint32(tmp.Uint64()) // nolint:gosec
	}
	if mantissa&compactSignBit != 0 {
		mantissa >>= 8
		exp++
	}
	return exp<<24 | mantissa
}

// HashToTarget interprets a block hash as an integer. Hashes are stored
// little-endian, so the bytes are reversed to get the conventional
// big-endian value.
func HashToTarget(hash chainhash.Hash) *big.Int {
	var tmp [chainhash.HashSize]byte
	for i := range hash {
		tmp[chainhash.HashSize-1-i] = hash[i]
	}
	return new(big.Int).SetBytes(tmp[:])
}

// CalcWork returns the expected number of hashes needed to find a block
// at the given difficulty, 2^256 / (target+1)
func CalcWork(bits uint32) *big.Int {
	target, err := CompactToTarget(bits)
	if err != nil || target.Sign() <= 0 {
		return big.NewInt(0)
	}
	denominator := new(big.Int).Add(target, bigOne)
	return new(big.Int).Div(oneLsh256, denominator)
}
