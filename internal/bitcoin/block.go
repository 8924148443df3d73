// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package bitcoin

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// BlockHeaderSize is the size of a serialized block header
const BlockHeaderSize = 80

type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

func NewBlockHeaderFromReader(r io.Reader) (*BlockHeader, error) {
	var h BlockHeader
	if err := h.Decode(r); err != nil {
		return nil, err
	}
	return &h, nil
}

// NewBlockHeaderFromHex decodes a hex-encoded 80-byte header
func NewBlockHeaderFromHex(hexData string) (*BlockHeader, error) {
	data, err := hex.DecodeString(hexData)
	if err != nil {
		return nil, err
	}
	return NewBlockHeaderFromBytes(data)
}

// NewBlockHeaderFromBytes decodes a serialized 80-byte header
func NewBlockHeaderFromBytes(data []byte) (*BlockHeader, error) {
	if len(data) != BlockHeaderSize {
		return nil, fmt.Errorf(
			"invalid block header length: got %d, want %d",
			len(data),
			BlockHeaderSize,
		)
	}
	return NewBlockHeaderFromReader(bytes.NewReader(data))
}

// NewBlockHeaderFromWire converts a btcd wire header
func NewBlockHeaderFromWire(w *wire.BlockHeader) *BlockHeader {
	return &BlockHeader{
		Version:    w.Version,
		PrevBlock:  w.PrevBlock,
		MerkleRoot: w.MerkleRoot,
		Timestamp:  uint32(w.Timestamp.Unix()), // nolint:gosec
		Bits:       w.Bits,
		Nonce:      w.Nonce,
	}
}

func (h *BlockHeader) Decode(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, h); err != nil {
		return err
	}
	return nil
}

func (h *BlockHeader) Encode(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, h)
}

func (h *BlockHeader) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, BlockHeaderSize))
	// Writes to a bytes.Buffer cannot fail
	_ = h.Encode(buf)
	return buf.Bytes()
}

// Hash returns the double-SHA256 digest of the serialized header, which
// is the block's identity
func (h *BlockHeader) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(h.Bytes())
}

// Wire returns the equivalent btcd wire header
func (h *BlockHeader) Wire() *wire.BlockHeader {
	return &wire.BlockHeader{
		Version:    h.Version,
		PrevBlock:  h.PrevBlock,
		MerkleRoot: h.MerkleRoot,
		Timestamp:  time.Unix(int64(h.Timestamp), 0),
		Bits:       h.Bits,
		Nonce:      h.Nonce,
	}
}

func (h *BlockHeader) String() string {
	hash := h.Hash()
	return fmt.Sprintf(
		"BlockHeader { Hash: %s, PrevBlock: %s, Timestamp: %d, Bits: 0x%08x, Nonce: %d }",
		hash.String(),
		h.PrevBlock.String(),
		h.Timestamp,
		h.Bits,
		h.Nonce,
	)
}
