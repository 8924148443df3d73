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

// HeaderReader provides read-only access to stored headers. Lookups of
// entries that do not exist return a nil header and a nil error.
type HeaderReader interface {
	HeaderAtHeight(height uint32) (*bitcoin.BlockHeader, error)
	PreviousHeader(header *bitcoin.BlockHeader) (*bitcoin.BlockHeader, error)
}

// Helper gives validators access to ancestor headers. It turns missing
// history into validation errors, since a header claiming a height
// without the required ancestors is itself invalid.
type Helper struct {
	reader HeaderReader
}

func NewHelper(reader HeaderReader) *Helper {
	return &Helper{reader: reader}
}

// HeaderAtHeight returns the main chain header at the given height
func (h *Helper) HeaderAtHeight(height uint32) (*bitcoin.BlockHeader, error) {
	if h == nil || h.reader == nil {
		return nil, fmt.Errorf("%w: %d", bitcoin.ErrNoAncestorAtHeight, height)
	}
	header, err := h.reader.HeaderAtHeight(height)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, fmt.Errorf("%w: %d", bitcoin.ErrNoAncestorAtHeight, height)
	}
	return header, nil
}

// PreviousHeader returns the header referenced by the given header's
// PrevBlock
func (h *Helper) PreviousHeader(
	header *bitcoin.BlockHeader,
) (*bitcoin.BlockHeader, error) {
	if h == nil || h.reader == nil {
		return nil, fmt.Errorf("%w: %s", bitcoin.ErrNoPreviousBlock, header.PrevBlock)
	}
	prev, err := h.reader.PreviousHeader(header)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, fmt.Errorf("%w: %s", bitcoin.ErrNoPreviousBlock, header.PrevBlock)
	}
	return prev, nil
}
