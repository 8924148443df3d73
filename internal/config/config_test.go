// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blinklabs-io/btckit/internal/bitcoin"
	"github.com/blinklabs-io/btckit/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
network:
  name: testnet
state:
  dir: /tmp/btckit-state
import:
  verifyWorkers: 8
checkpoint:
  profile: ""
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Network.Name != "testnet" {
		t.Fatalf("got network %q, want testnet", cfg.Network.Name)
	}
	if cfg.State.Directory != "/tmp/btckit-state" {
		t.Fatalf("got state dir %q", cfg.State.Directory)
	}
	if cfg.Import.VerifyWorkers != 8 {
		t.Fatalf("got %d verify workers, want 8", cfg.Import.VerifyWorkers)
	}
	if cfg.Checkpoint.Profile != "testnet-genesis" {
		t.Fatalf("got checkpoint profile %q, want testnet-genesis", cfg.Checkpoint.Profile)
	}
	if network := cfg.SelectedNetwork(); network == nil || network.Type != bitcoin.Testnet {
		t.Fatalf("unexpected selected network: %v", network)
	}
	profile, ok := cfg.SelectedProfile()
	if !ok || profile.Network != "testnet" {
		t.Fatalf("unexpected selected profile: %v", profile)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	path := writeConfig(t, `
network:
  name: mainnet
checkpoint:
  profile: ""
`)
	t.Setenv("NETWORK", "regtest")
	t.Setenv("LOGGING_LEVEL", "debug")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Network.Name != "regtest" {
		t.Fatalf("got network %q, want regtest", cfg.Network.Name)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("got logging level %q, want debug", cfg.Logging.Level)
	}
	if cfg.Checkpoint.Profile != "regtest-genesis" {
		t.Fatalf("got checkpoint profile %q, want regtest-genesis", cfg.Checkpoint.Profile)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	config.Profiles["mainnet-test-unaligned"] = config.Profile{
		Network: "mainnet",
		Height:  2015,
		Header:  config.Profiles["mainnet-genesis"].Header,
	}
	t.Cleanup(func() {
		delete(config.Profiles, "mainnet-test-unaligned")
	})
	testDefs := []struct {
		content     string
		expectedErr string
	}{
		{
			content:     "network:\n  name: signet\n",
			expectedErr: "unknown network",
		},
		{
			content:     "network:\n  name: mainnet\ncheckpoint:\n  profile: bogus\n",
			expectedErr: "unknown checkpoint profile",
		},
		{
			content:     "network:\n  name: mainnet\ncheckpoint:\n  profile: testnet-genesis\n",
			expectedErr: "conflicting networks",
		},
		{
			content:     "network:\n  name: mainnet\ncheckpoint:\n  profile: mainnet-test-unaligned\n",
			expectedErr: "not a retarget boundary",
		},
		{
			content:     "network:\n  name: mainnet\ncheckpoint:\n  profile: \"\"\nimport:\n  verifyWorkers: 0\n",
			expectedErr: "invalid verify worker count",
		},
		{
			content:     "network: [\n",
			expectedErr: "error parsing config file",
		},
	}
	for _, td := range testDefs {
		_, err := config.Load(writeConfig(t, td.content))
		if err == nil || !strings.Contains(err.Error(), td.expectedErr) {
			t.Fatalf("config %q: got error %v, want %q", td.content, err, td.expectedErr)
		}
	}
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("did not get expected error for missing config file")
	}
	// Restore a valid configuration for other tests
	restore := "network:\n  name: mainnet\ncheckpoint:\n  profile: \"\"\nimport:\n  verifyWorkers: 4\n"
	if _, err := config.Load(writeConfig(t, restore)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
}

func TestGenesisProfiles(t *testing.T) {
	for _, networkType := range []bitcoin.NetworkType{bitcoin.Mainnet, bitcoin.Testnet, bitcoin.Regtest} {
		name := string(networkType) + "-genesis"
		profile, ok := config.Profiles[name]
		if !ok {
			t.Fatalf("missing profile %s", name)
		}
		header, err := profile.CheckpointHeader()
		if err != nil {
			t.Fatalf("%s: unexpected error: %s", name, err)
		}
		if header.Hash() != bitcoin.SelectNetwork(networkType).GenesisHash {
			t.Fatalf("%s: got hash %s", name, header.Hash())
		}
	}
	available := config.GetAvailableProfiles()
	if len(available) < 3 || available[0] != "mainnet-genesis" {
		t.Fatalf("unexpected available profiles: %v", available)
	}
}
