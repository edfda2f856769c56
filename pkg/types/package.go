// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the entities and configuration shared across scrape stages.
package types

// Package holds the merged metadata for one npm package: the search-page
// fields plus the size and file-count detail scraped from the package page.
// Fields missing upstream keep their zero value.
type Package struct {
	// Name is the package identifier on the registry (e.g. "react").
	Name string `json:"name" yaml:"name"`

	// Version is the latest published version string.
	Version string `json:"version" yaml:"version"`

	// Description is the package description from the search listing.
	Description string `json:"description" yaml:"description"`

	// Author is the display name of the package author.
	Author string `json:"author" yaml:"author"`

	// License is the declared license identifier (e.g. "MIT").
	License string `json:"license" yaml:"license"`

	// Size is the unpacked size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// Files is the number of files in the published tarball.
	Files int `json:"files" yaml:"files"`

	// DownloadsWeekly and DownloadsMonthly are registry download counts.
	DownloadsWeekly  int64 `json:"downloads_weekly" yaml:"downloads_weekly"`
	DownloadsMonthly int64 `json:"downloads_monthly" yaml:"downloads_monthly"`

	// Dependents is the number of packages depending on this one.
	Dependents int `json:"dependents" yaml:"dependents"`

	// LastPublish is the publish timestamp as reported by the source.
	// Kept as a string; the source format is not parsed.
	LastPublish string `json:"last_publish" yaml:"last_publish"`

	// Homepage and Repository are the listing's project links.
	Homepage   string `json:"homepage" yaml:"homepage"`
	Repository string `json:"repository" yaml:"repository"`

	// Keywords lists the package keywords. Order carries no meaning.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// QualityScore, PopularityScore, and MaintenanceScore are the registry's
	// score detail values on the source-defined scale.
	QualityScore     float64 `json:"quality_score" yaml:"quality_score"`
	PopularityScore  float64 `json:"popularity_score" yaml:"popularity_score"`
	MaintenanceScore float64 `json:"maintenance_score" yaml:"maintenance_score"`
}

// PartialRecord is an incomplete package fragment produced by one extraction
// step. A search-page partial lacks size and files; a detail partial carries
// only those. Keys are the Package JSON field names.
type PartialRecord map[string]any

// Merge overlays src onto r, with src winning on key collisions.
func (r PartialRecord) Merge(src PartialRecord) {
	for k, v := range src {
		r[k] = v
	}
}

// Str returns the string value for key, or "" when absent or mistyped.
func (r PartialRecord) Str(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the integer value for key, or 0 when absent or mistyped.
// JSON numbers decode as float64, so both representations are accepted.
func (r PartialRecord) Int(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Float returns the float value for key, or 0 when absent or mistyped.
func (r PartialRecord) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// Strings returns the string-slice value for key, or nil when absent.
// A []any holding strings (the shape encoding/json produces) is accepted.
func (r PartialRecord) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// BuildPackage converts a merged PartialRecord into a Package. Every field
// is read independently and defaults to its zero value when absent.
func BuildPackage(r PartialRecord) Package {
	return Package{
		Name:             r.Str("name"),
		Version:          r.Str("version"),
		Description:      r.Str("description"),
		Author:           r.Str("author"),
		License:          r.Str("license"),
		Size:             r.Int("size"),
		Files:            int(r.Int("files")),
		DownloadsWeekly:  r.Int("downloads_weekly"),
		DownloadsMonthly: r.Int("downloads_monthly"),
		Dependents:       int(r.Int("dependents")),
		LastPublish:      r.Str("last_publish"),
		Homepage:         r.Str("homepage"),
		Repository:       r.Str("repository"),
		Keywords:         r.Strings("keywords"),
		QualityScore:     r.Float("quality_score"),
		PopularityScore:  r.Float("popularity_score"),
		MaintenanceScore: r.Float("maintenance_score"),
	}
}
