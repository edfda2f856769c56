// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPageHTML = `<!DOCTYPE html>
<html><head><title>search</title></head>
<body>
<script>
window.__INITIAL_STATE__ = {"search":{"packages":[
  {"name":"left-pad","version":"1.3.0","description":"String left pad",
   "author":{"name":"azer"},"license":"WTFPL",
   "downloads":{"weekly":2500000,"monthly":11000000},
   "dependents":540,"date":"2018-04-26T19:50:06.535Z",
   "links":{"homepage":"https://github.com/stevemao/left-pad",
            "repository":"https://github.com/stevemao/left-pad"},
   "keywords":["leftpad","left","pad"],
   "score":{"detail":{"quality":0.8,"popularity":0.9,"maintenance":0.3}}},
  {"name":"is-odd","version":"3.0.1","description":"Is it odd",
   "author":{},"license":"MIT",
   "downloads":{"weekly":400000},"dependents":80,
   "date":"2018-01-10T00:00:00.000Z","links":{},
   "score":{"detail":{"quality":0.7}}}
]}};
</script>
</body></html>`

func TestStateExtractorSearchResults(t *testing.T) {
	records, err := StateExtractor{}.SearchResults([]byte(searchPageHTML))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "left-pad", first.Str("name"))
	assert.Equal(t, "1.3.0", first.Str("version"))
	assert.Equal(t, "azer", first.Str("author"))
	assert.Equal(t, "WTFPL", first.Str("license"))
	assert.Equal(t, int64(2500000), first.Int("downloads_weekly"))
	assert.Equal(t, int64(11000000), first.Int("downloads_monthly"))
	assert.Equal(t, int64(540), first.Int("dependents"))
	assert.Equal(t, "2018-04-26T19:50:06.535Z", first.Str("last_publish"))
	assert.Equal(t, []string{"leftpad", "left", "pad"}, first.Strings("keywords"))
	assert.InDelta(t, 0.9, first.Float("popularity_score"), 1e-9)

	// Fields absent upstream stay at zero values.
	second := records[1]
	assert.Equal(t, "is-odd", second.Str("name"))
	assert.Equal(t, "", second.Str("author"))
	assert.Equal(t, int64(0), second.Int("downloads_monthly"))
	assert.Equal(t, "", second.Str("homepage"))
	assert.Nil(t, second.Strings("keywords"))
	assert.InDelta(t, 0.0, second.Float("popularity_score"), 1e-9)
}

func TestStateExtractorNoStateBlock(t *testing.T) {
	records, err := StateExtractor{}.SearchResults([]byte("<html><body>nothing here</body></html>"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStateExtractorMalformedStateBlock(t *testing.T) {
	page := `<script>window.__INITIAL_STATE__ = {"search":{"packages":[}};</script>`
	records, err := StateExtractor{}.SearchResults([]byte(page))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing state block")
	assert.Empty(t, records)
}

func TestScanExtractorFallback(t *testing.T) {
	page := `garbage {"name":"lodash","version":"4.17.21"} more garbage
	{"name":"lodash","version":"4.17.21"} {"name":"react","version":"18.2.0"}`

	records, err := ScanExtractor{}.SearchResults([]byte(page))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "lodash", records[0].Str("name"))
	assert.Equal(t, "4.17.21", records[0].Str("version"))
	assert.Equal(t, "react", records[1].Str("name"))
}

func TestDetailMarkers(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantSize  int64
		wantFiles int64
		wantKeys  int
	}{
		{"both", `..."unpackedSize":123456,"fileCount":17...`, 123456, 17, 2},
		{"size only", `"unpackedSize":999`, 999, 0, 1},
		{"files only", `"fileCount":3`, 0, 3, 1},
		{"neither", `no markers at all`, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := StateExtractor{}.Detail([]byte(tt.payload))
			assert.Len(t, rec, tt.wantKeys)
			assert.Equal(t, tt.wantSize, rec.Int("size"))
			assert.Equal(t, tt.wantFiles, rec.Int("files"))
		})
	}
}
