// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/btckit/internal/bitcoin"
	"github.com/blinklabs-io/btckit/internal/config"
	"github.com/blinklabs-io/btckit/internal/logging"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/dgraph-io/badger/v4"
)

const (
	headerKeyPrefix = "header_"
	heightKeyPrefix = "height_"
	workKeyPrefix   = "work_"
	tipKey          = "tip"
)

var ErrEmptyChain = errors.New("no headers stored")

type State struct {
	db *badger.DB
}

var globalState = &State{}

// Load opens the header store in the configured state directory
func (s *State) Load() error {
	cfg := config.GetConfig()
	return s.Open(cfg.State.Directory)
}

// Open opens the header store in the given directory. An empty directory
// gives an in-memory store.
func (s *State) Open(dir string) error {
	badgerOpts := badger.DefaultOptions(dir).
		WithLogger(NewBadgerLogger()).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	if dir == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *State) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// PutHeader stores a header at the given height and makes it the tip. A
// header already stored at that height is replaced, and any headers above it
// are removed.
func (s *State) PutHeader(height uint32, header *bitcoin.BlockHeader) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		r := &Reader{txn: txn}
		tipHeight, _, err := r.Tip()
		if err != nil && !errors.Is(err, ErrEmptyChain) {
			return err
		}
		if err == nil && tipHeight > height {
			if err := deleteHeadersAbove(txn, tipHeight, height); err != nil {
				return err
			}
		}
		existing, err := r.HeaderAtHeight(height)
		if err != nil {
			return err
		}
		if existing != nil {
			existingHash := existing.Hash()
			if err := txn.Delete(heightKey(existingHash)); err != nil {
				return err
			}
		}
		work := bitcoin.CalcWork(header.Bits)
		if height > 0 {
			prevWork, err := r.ChainWork(height - 1)
			if err != nil {
				return err
			}
			if prevWork != nil {
				work.Add(work, prevWork)
			}
		}
		hash := header.Hash()
		if err := txn.Set(headerKey(height), header.Bytes()); err != nil {
			return err
		}
		if err := txn.Set(heightKey(hash), encodeHeight(height)); err != nil {
			return err
		}
		if err := txn.Set(workKey(height), work.Bytes()); err != nil {
			return err
		}
		if err := txn.Set([]byte(tipKey), encodeHeight(height)); err != nil {
			return err
		}
		return nil
	})
	return err
}

// RemoveHeadersAbove deletes every header above the given height and
// moves the tip back to it
func (s *State) RemoveHeadersAbove(height uint32) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		r := &Reader{txn: txn}
		tipHeight, _, err := r.Tip()
		if err != nil {
			if errors.Is(err, ErrEmptyChain) {
				return nil
			}
			return err
		}
		if tipHeight <= height {
			return nil
		}
		if err := deleteHeadersAbove(txn, tipHeight, height); err != nil {
			return err
		}
		return txn.Set([]byte(tipKey), encodeHeight(height))
	})
	return err
}

// deleteHeadersAbove removes the entries for every height in (height, tipHeight]
func deleteHeadersAbove(txn *badger.Txn, tipHeight uint32, height uint32) error {
	r := &Reader{txn: txn}
	for h := tipHeight; h > height; h-- {
		header, err := r.HeaderAtHeight(h)
		if err != nil {
			return err
		}
		if header != nil {
			if err := txn.Delete(heightKey(header.Hash())); err != nil {
				return err
			}
		}
		if err := txn.Delete(headerKey(h)); err != nil {
			return err
		}
		if err := txn.Delete(workKey(h)); err != nil {
			return err
		}
	}
	return nil
}

// View runs fn against a consistent snapshot of the stored chain
func (s *State) View(fn func(*Reader) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&Reader{txn: txn})
	})
}

// Tip returns the height and header of the chain tip
func (s *State) Tip() (uint32, *bitcoin.BlockHeader, error) {
	var height uint32
	var header *bitcoin.BlockHeader
	err := s.View(func(r *Reader) error {
		var err error
		height, header, err = r.Tip()
		return err
	})
	return height, header, err
}

// HeaderByHash returns a stored header and its height, or a nil header if
// the hash is unknown
func (s *State) HeaderByHash(
	hash chainhash.Hash,
) (*bitcoin.BlockHeader, uint32, error) {
	var height uint32
	var header *bitcoin.BlockHeader
	err := s.View(func(r *Reader) error {
		var err error
		header, height, err = r.HeaderByHash(hash)
		return err
	})
	return header, height, err
}

func (s *State) MedianTimeOfLastBlocks(count int) (uint32, error) {
	var ret uint32
	err := s.View(func(r *Reader) error {
		var err error
		ret, err = r.MedianTimeOfLastBlocks(count)
		return err
	})
	return ret, err
}

func GetState() *State {
	return globalState
}

func headerKey(height uint32) []byte {
	return binary.BigEndian.AppendUint32([]byte(headerKeyPrefix), height)
}

func heightKey(hash chainhash.Hash) []byte {
	return append([]byte(heightKeyPrefix), hash[:]...)
}

func workKey(height uint32) []byte {
	return binary.BigEndian.AppendUint32([]byte(workKeyPrefix), height)
}

func encodeHeight(height uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, height)
}

func decodeHeight(val []byte) (uint32, error) {
	if len(val) != 4 {
		return 0, fmt.Errorf("invalid stored height length: %d", len(val))
	}
	return binary.BigEndian.Uint32(val), nil
}

func decodeWork(val []byte) *big.Int {
	return new(big.Int).SetBytes(val)
}

// BadgerLogger is a wrapper type to give our logger the expected interface
type BadgerLogger struct {
	*logging.Logger
}

func NewBadgerLogger() *BadgerLogger {
	return &BadgerLogger{
		Logger: logging.GetLogger(),
	}
}

func (b *BadgerLogger) Warningf(msg string, args ...any) {
	b.Logger.Warnf(msg, args...)
}
