// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package version

import (
	"fmt"
	"runtime/debug"
)

// These are populated at build time
var Version string
var CommitHash string

func GetVersionString() string {
	commitHash := CommitHash
	if commitHash == "" {
		commitHash = vcsRevision()
	}
	if Version != "" {
		return fmt.Sprintf("%s (commit %s)", Version, commitHash)
	}
	return fmt.Sprintf("devel (commit %s)", commitHash)
}

// vcsRevision falls back to the revision recorded by the Go toolchain
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}
