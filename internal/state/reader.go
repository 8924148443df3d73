// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package state

import (
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/blinklabs-io/btckit/internal/bitcoin"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/dgraph-io/badger/v4"
)

// Reader gives read access to the stored chain inside a single transaction.
// Lookups of entries that do not exist return nil values and a nil error.
type Reader struct {
	txn *badger.Txn
}

func (r *Reader) get(key []byte) ([]byte, error) {
	item, err := r.txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (r *Reader) HeaderAtHeight(height uint32) (*bitcoin.BlockHeader, error) {
	val, err := r.get(headerKey(height))
	if err != nil || val == nil {
		return nil, err
	}
	header, err := bitcoin.NewBlockHeaderFromBytes(val)
	if err != nil {
		return nil, fmt.Errorf("stored header at height %d: %w", height, err)
	}
	return header, nil
}

// HeaderByHash returns the header with the given hash and its height
func (r *Reader) HeaderByHash(
	hash chainhash.Hash,
) (*bitcoin.BlockHeader, uint32, error) {
	val, err := r.get(heightKey(hash))
	if err != nil || val == nil {
		return nil, 0, err
	}
	height, err := decodeHeight(val)
	if err != nil {
		return nil, 0, err
	}
	header, err := r.HeaderAtHeight(height)
	if err != nil {
		return nil, 0, err
	}
	return header, height, nil
}

func (r *Reader) PreviousHeader(
	header *bitcoin.BlockHeader,
) (*bitcoin.BlockHeader, error) {
	prev, _, err := r.HeaderByHash(header.PrevBlock)
	return prev, err
}

// Tip returns the height and header of the chain tip, or ErrEmptyChain
func (r *Reader) Tip() (uint32, *bitcoin.BlockHeader, error) {
	val, err := r.get([]byte(tipKey))
	if err != nil {
		return 0, nil, err
	}
	if val == nil {
		return 0, nil, ErrEmptyChain
	}
	height, err := decodeHeight(val)
	if err != nil {
		return 0, nil, err
	}
	header, err := r.HeaderAtHeight(height)
	if err != nil {
		return 0, nil, err
	}
	if header == nil {
		return 0, nil, fmt.Errorf("missing tip header at height %d", height)
	}
	return height, header, nil
}

// ChainWork returns the cumulative work from the first stored header up
// to and including the given height
func (r *Reader) ChainWork(height uint32) (*big.Int, error) {
	val, err := r.get(workKey(height))
	if err != nil || val == nil {
		return nil, err
	}
	return decodeWork(val), nil
}

// MedianTimeOfLastBlocks returns the median timestamp of up to count
// headers ending at the tip
func (r *Reader) MedianTimeOfLastBlocks(count int) (uint32, error) {
	if count <= 0 {
		return 0, fmt.Errorf("invalid block count: %d", count)
	}
	tipHeight, tip, err := r.Tip()
	if err != nil {
		return 0, err
	}
	timestamps := make([]uint32, 0, min(count, int(tipHeight)+1))
	header := tip
	height := tipHeight
	for {
		timestamps = append(timestamps, header.Timestamp)
		if len(timestamps) == count || height == 0 {
			break
		}
		height--
		header, err = r.HeaderAtHeight(height)
		if err != nil {
			return 0, err
		}
		// History before a checkpoint is not stored
		if header == nil {
			break
		}
	}
	slices.Sort(timestamps)
	return timestamps[len(timestamps)/2], nil
}
