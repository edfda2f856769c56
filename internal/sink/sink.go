// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink persists the final package sequence: a timestamped JSON or
// YAML artifact per run, plus an optional SQLite catalog.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/npmscout/pkg/types"
)

// timeNow stamps artifact names. Tests override it for deterministic names.
var timeNow = time.Now

const timestampLayout = "2006-01-02-15-04-05"

// Sink persists an ordered package sequence and returns the artifact path.
type Sink interface {
	Persist(pkgs []types.Package) (string, error)
}

// FileSink writes one self-contained artifact per run, named
// <out>-<timestamp>.<ext>. The sequence order is preserved in the file.
type FileSink struct {
	cfg types.SinkConfig
}

// NewFileSink builds a FileSink. An empty format means JSON.
func NewFileSink(cfg types.SinkConfig) (*FileSink, error) {
	switch cfg.Format {
	case "", "json", "yaml":
	default:
		return nil, fmt.Errorf("unsupported artifact format %q", cfg.Format)
	}
	return &FileSink{cfg: cfg}, nil
}

// Persist writes pkgs and returns the generated path.
func (s *FileSink) Persist(pkgs []types.Package) (string, error) {
	format := s.cfg.Format
	if format == "" {
		format = "json"
	}
	path := fmt.Sprintf("%s-%s.%s", s.cfg.OutName, timeNow().Format(timestampLayout), format)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating artifact directory: %w", err)
		}
	}

	var data []byte
	var err error
	switch format {
	case "json":
		data, err = json.MarshalIndent(pkgs, "", "  ")
	case "yaml":
		data, err = yaml.Marshal(pkgs)
	}
	if err != nil {
		return "", fmt.Errorf("marshaling %d packages: %w", len(pkgs), err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	return path, nil
}

// Load reads an artifact back into a package sequence, detecting the
// encoding from the file extension.
func Load(path string) ([]types.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pkgs []types.Package
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		err = yaml.Unmarshal(data, &pkgs)
	default:
		err = json.Unmarshal(data, &pkgs)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing artifact %s: %w", path, err)
	}
	return pkgs, nil
}
