// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package bitcoin

import "errors"

// Validation errors. Every rejection wraps exactly one of these
var (
	// ErrInvalidEncoding indicates compact bits with the sign bit set
	ErrInvalidEncoding = errors.New("invalid compact difficulty encoding")
	// ErrInsufficientWork indicates the header hash is above its target
	ErrInsufficientWork = errors.New("insufficient proof of work")
	// ErrUnexpectedDifficultyBits indicates declared bits that do not
	// match what the applicable difficulty rule requires
	ErrUnexpectedDifficultyBits = errors.New("unexpected difficulty bits")
	// ErrNoPreviousBlock indicates the previous header could not be found
	ErrNoPreviousBlock = errors.New("no previous block")
	// ErrNoAncestorAtHeight indicates an ancestor needed for retargeting
	// could not be found
	ErrNoAncestorAtHeight = errors.New("no ancestor at height")
	// ErrNoHeader indicates a validation request without a header
	ErrNoHeader = errors.New("no header to validate")
)
