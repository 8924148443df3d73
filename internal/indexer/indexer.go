// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package indexer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/blinklabs-io/btckit/internal/bitcoin"
	"github.com/blinklabs-io/btckit/internal/config"
	"github.com/blinklabs-io/btckit/internal/logging"
	"github.com/blinklabs-io/btckit/internal/metrics"
	"github.com/blinklabs-io/btckit/internal/state"
	"github.com/blinklabs-io/btckit/internal/validator"

	"golang.org/x/sync/errgroup"
)

const (
	progressInterval = 10000
	verifyBatchSize  = 2016
)

var (
	ErrCheckpointMismatch = errors.New("stored chain does not match checkpoint")
	ErrNotTipExtension    = errors.New("header does not extend the chain tip")
)

type Indexer struct {
	mutex            sync.Mutex
	state            *state.State
	network          *bitcoin.Network
	rules            *validator.Set
	metrics          *metrics.Metrics
	checkpointHeight uint32
}

func New(
	st *state.State,
	network *bitcoin.Network,
	m *metrics.Metrics,
) (*Indexer, error) {
	rules, err := validator.ForNetwork(network)
	if err != nil {
		return nil, err
	}
	return &Indexer{
		state:   st,
		network: network,
		rules:   rules,
		metrics: m,
	}, nil
}

// Bootstrap stores the checkpoint header in an empty store, or checks that
// a populated store contains it
func (i *Indexer) Bootstrap(profile config.Profile) error {
	logger := logging.GetLogger()
	i.mutex.Lock()
	defer i.mutex.Unlock()
	checkpoint, err := profile.CheckpointHeader()
	if err != nil {
		return err
	}
	if profile.Height == 0 && checkpoint.Hash() != i.network.GenesisHash {
		return fmt.Errorf(
			"%w: genesis hash %s, want %s",
			ErrCheckpointMismatch,
			checkpoint.Hash(),
			i.network.GenesisHash,
		)
	}
	i.checkpointHeight = profile.Height
	stored, storedHeight, err := i.state.HeaderByHash(checkpoint.Hash())
	if err != nil {
		return err
	}
	if stored != nil {
		if storedHeight != profile.Height {
			return fmt.Errorf(
				"%w: checkpoint %s stored at height %d, want %d",
				ErrCheckpointMismatch,
				checkpoint.Hash(),
				storedHeight,
				profile.Height,
			)
		}
		return i.updateTipMetrics()
	}
	if _, _, err := i.state.Tip(); err == nil {
		return fmt.Errorf(
			"%w: checkpoint %s not found",
			ErrCheckpointMismatch,
			checkpoint.Hash(),
		)
	} else if !errors.Is(err, state.ErrEmptyChain) {
		return err
	}
	if err := i.state.PutHeader(profile.Height, checkpoint); err != nil {
		return err
	}
	logger.Infof(
		"stored checkpoint %s at height %d",
		checkpoint.Hash(),
		profile.Height,
	)
	return i.updateTipMetrics()
}

// AddHeader validates a header against the stored chain and appends it at
// the tip, returning its height
func (i *Indexer) AddHeader(header *bitcoin.BlockHeader) (uint32, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	var height uint32
	err := i.state.View(func(r *state.Reader) error {
		tipHeight, tip, err := r.Tip()
		if err != nil {
			return err
		}
		prev, prevHeight, err := r.HeaderByHash(header.PrevBlock)
		if err != nil {
			return err
		}
		if prev == nil {
			return fmt.Errorf("%w: %s", bitcoin.ErrNoPreviousBlock, header.PrevBlock)
		}
		if prevHeight != tipHeight {
			return fmt.Errorf(
				"%w: builds on height %d, tip is %s at height %d",
				ErrNotTipExtension,
				prevHeight,
				tip.Hash(),
				tipHeight,
			)
		}
		height = tipHeight + 1
		return i.validate(&validator.Candidate{
			Header:   header,
			Previous: prev,
			Height:   height,
			Helper:   validator.NewHelper(r),
		})
	})
	if err != nil {
		return 0, err
	}
	if err := i.state.PutHeader(height, header); err != nil {
		return 0, err
	}
	if err := i.updateTipMetrics(); err != nil {
		return 0, err
	}
	return height, nil
}

// Import reads hex-encoded headers, one per line, and adds them in order.
// It stops at the first rejected header and returns the number accepted.
func (i *Indexer) Import(ctx context.Context, r io.Reader) (int, error) {
	logger := logging.GetLogger()
	scanner := bufio.NewScanner(r)
	var count, lineNum int
	for scanner.Scan() {
		lineNum++
		if err := ctx.Err(); err != nil {
			return count, err
		}
		line := strings.TrimSpace(scanner.Text())
		// Skip blank lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		header, err := bitcoin.NewBlockHeaderFromHex(line)
		if err != nil {
			return count, fmt.Errorf("line %d: %w", lineNum, err)
		}
		height, err := i.AddHeader(header)
		if err != nil {
			logger.Warnf(
				"rejected header %s on line %d: %s",
				header.Hash(),
				lineNum,
				err,
			)
			return count, fmt.Errorf("line %d: %w", lineNum, err)
		}
		count++
		if count%progressInterval == 0 {
			logger.Infof("imported %d headers, tip at height %d", count, height)
		}
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}
	return count, nil
}

func (i *Indexer) ImportFile(ctx context.Context, path string) (int, error) {
	logger := logging.GetLogger()
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	count, err := i.Import(ctx, f)
	logger.Infof("imported %d headers from %s", count, path)
	return count, err
}

// Verify re-validates every stored header above the checkpoint. Batches of
// heights are checked concurrently, each inside its own snapshot.
func (i *Indexer) Verify(ctx context.Context, workers int) error {
	logger := logging.GetLogger()
	tipHeight, _, err := i.state.Tip()
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for start := i.checkpointHeight + 1; start <= tipHeight; start += verifyBatchSize {
		end := min(start+verifyBatchSize-1, tipHeight)
		g.Go(func() error {
			return i.verifyRange(ctx, start, end)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Infof(
		"verified headers from height %d to %d",
		i.checkpointHeight+1,
		tipHeight,
	)
	return nil
}

func (i *Indexer) verifyRange(ctx context.Context, start, end uint32) error {
	return i.state.View(func(r *state.Reader) error {
		helper := validator.NewHelper(r)
		for height := start; height <= end; height++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			header, err := helper.HeaderAtHeight(height)
			if err != nil {
				return err
			}
			prev, err := helper.HeaderAtHeight(height - 1)
			if err != nil {
				return err
			}
			if header.PrevBlock != prev.Hash() {
				return fmt.Errorf(
					"%w: header at height %d does not link to height %d",
					bitcoin.ErrNoPreviousBlock,
					height,
					height-1,
				)
			}
			err = i.validate(&validator.Candidate{
				Header:   header,
				Previous: prev,
				Height:   height,
				Helper:   helper,
			})
			if err != nil {
				return fmt.Errorf("height %d: %w", height, err)
			}
		}
		return nil
	})
}

func (i *Indexer) validate(cand *validator.Candidate) error {
	err := i.rules.Validate(cand)
	if i.metrics != nil {
		i.metrics.RecordValidation(i.network.Type, err)
	}
	return err
}

func (i *Indexer) updateTipMetrics() error {
	if i.metrics == nil {
		return nil
	}
	return i.state.View(func(r *state.Reader) error {
		height, _, err := r.Tip()
		if err != nil {
			return err
		}
		work, err := r.ChainWork(height)
		if err != nil {
			return err
		}
		i.metrics.SetTip(i.network.Type, height, work)
		return nil
	})
}
