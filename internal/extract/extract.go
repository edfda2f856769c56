// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns raw page payloads into partial package records.
//
// Two strategies implement the Extractor interface: StateExtractor parses
// the page's embedded state blob (the primary path), and ScanExtractor
// falls back to field-level pattern scanning when the blob layout cannot
// be trusted. Orchestration code depends only on the interface.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pdiddy/npmscout/pkg/types"
)

// Extractor converts raw payloads into partial records. An absent data
// block is a legitimate page state and yields an empty result with no
// error; a present but malformed block is a reportable parse error.
type Extractor interface {
	Name() string

	// SearchResults extracts zero or more search-result partials from a
	// search page payload.
	SearchResults(payload []byte) ([]types.PartialRecord, error)

	// Detail extracts the size and file-count partial from a package page
	// payload. Either, both, or neither marker may be present.
	Detail(payload []byte) types.PartialRecord
}

// statePattern locates the self-describing state blob npm embeds in a
// script tag. (?s) lets the blob span lines.
var statePattern = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.+?\});`)

// Detail marker patterns, scanned independently anywhere in the payload.
var (
	sizePattern  = regexp.MustCompile(`"unpackedSize":(\d+)`)
	filesPattern = regexp.MustCompile(`"fileCount":(\d+)`)
)

// StateExtractor is the primary strategy: locate the embedded state blob
// and walk its search.packages list.
type StateExtractor struct{}

func (StateExtractor) Name() string { return "state" }

// SearchResults returns the partials in the payload's state blob. A
// missing blob yields (nil, nil); a blob that fails to parse as JSON
// yields an error so the caller can skip the page.
func (StateExtractor) SearchResults(payload []byte) ([]types.PartialRecord, error) {
	m := statePattern.FindSubmatch(payload)
	if m == nil {
		return nil, nil
	}

	var blob stateBlob
	if err := json.Unmarshal(m[1], &blob); err != nil {
		return nil, fmt.Errorf("parsing state block: %w", err)
	}

	var records []types.PartialRecord
	for _, p := range blob.Search.Packages {
		records = append(records, p.record())
	}
	return records, nil
}

// Detail scans for the size and file-count markers.
func (StateExtractor) Detail(payload []byte) types.PartialRecord {
	return scanDetail(payload)
}

// ScanExtractor is the fallback strategy: no structured parse, just
// independent field-level patterns over the raw payload. It recovers name
// and version pairs when the state blob layout has drifted; all other
// fields degrade to their zero values.
type ScanExtractor struct{}

func (ScanExtractor) Name() string { return "scan" }

var nameVersionPattern = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"\s*,\s*"version"\s*:\s*"([^"]+)"`)

func (ScanExtractor) SearchResults(payload []byte) ([]types.PartialRecord, error) {
	var records []types.PartialRecord
	seen := make(map[string]bool)
	for _, m := range nameVersionPattern.FindAllSubmatch(payload, -1) {
		name := string(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		records = append(records, types.PartialRecord{
			"name":    name,
			"version": string(m[2]),
		})
	}
	return records, nil
}

func (ScanExtractor) Detail(payload []byte) types.PartialRecord {
	return scanDetail(payload)
}

// scanDetail reads the two numeric detail markers. Each is independent:
// a record with zero, one, or both keys may be returned.
func scanDetail(payload []byte) types.PartialRecord {
	rec := types.PartialRecord{}
	if m := sizePattern.FindSubmatch(payload); m != nil {
		if n, err := strconv.ParseInt(string(m[1]), 10, 64); err == nil {
			rec["size"] = n
		}
	}
	if m := filesPattern.FindSubmatch(payload); m != nil {
		if n, err := strconv.ParseInt(string(m[1]), 10, 64); err == nil {
			rec["files"] = n
		}
	}
	return rec
}

// stateBlob mirrors the slice of the npm state blob the scraper reads.
// Every field is optional; absent fields keep zero values.
type stateBlob struct {
	Search struct {
		Packages []statePackage `json:"packages"`
	} `json:"search"`
}

type statePackage struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Author      struct {
		Name string `json:"name"`
	} `json:"author"`
	License   string `json:"license"`
	Downloads struct {
		Weekly  int64 `json:"weekly"`
		Monthly int64 `json:"monthly"`
	} `json:"downloads"`
	Dependents int    `json:"dependents"`
	Date       string `json:"date"`
	Links      struct {
		Homepage   string `json:"homepage"`
		Repository string `json:"repository"`
	} `json:"links"`
	Keywords []string `json:"keywords"`
	Score    struct {
		Detail struct {
			Quality     float64 `json:"quality"`
			Popularity  float64 `json:"popularity"`
			Maintenance float64 `json:"maintenance"`
		} `json:"detail"`
	} `json:"score"`
}

// record flattens a state package into a partial keyed by the Package
// field names.
func (p statePackage) record() types.PartialRecord {
	return types.PartialRecord{
		"name":              p.Name,
		"version":           p.Version,
		"description":       p.Description,
		"author":            p.Author.Name,
		"license":           p.License,
		"downloads_weekly":  p.Downloads.Weekly,
		"downloads_monthly": p.Downloads.Monthly,
		"dependents":        int64(p.Dependents),
		"last_publish":      p.Date,
		"homepage":          p.Links.Homepage,
		"repository":        p.Links.Repository,
		"keywords":          p.Keywords,
		"quality_score":     p.Score.Detail.Quality,
		"popularity_score":  p.Score.Detail.Popularity,
		"maintenance_score": p.Score.Detail.Maintenance,
	}
}
