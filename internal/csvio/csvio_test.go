package csvio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkrx/krxsnap/internal/dates"
)

func TestEncode(t *testing.T) {
	headers := []string{"ticker", "name", "close", "change", "trade_date"}
	rows := []map[string]any{
		{"ticker": "069500", "name": "KODEX 200", "close": 33000.0, "change": -150.0, "trade_date": dates.Date("2025-02-07")},
		{"ticker": "069501", "name": "한 \"따옴표\"", "close": math.NaN(), "change": 0.45},
	}

	text, err := Encode(headers, rows)
	require.NoError(t, err)
	assert.Equal(t,
		"ticker,name,close,change,trade_date\n"+
			"069500,KODEX 200,33000,-150,2025-02-07\n"+
			"069501,\"한 \"\"따옴표\"\"\",,0.45,\n",
		text)
}

func TestEncode_FloatFormatting(t *testing.T) {
	text, err := Encode([]string{"v"}, []map[string]any{
		{"v": 0.45},
		{"v": 1234567.0},
		{"v": 0.0001},
	})
	require.NoError(t, err)
	assert.Equal(t, "v\n0.45\n1234567\n0.0001\n", text)
}

func TestWriteReadArtifact_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")

	text, err := Encode([]string{"ticker", "name"}, []map[string]any{
		{"ticker": "069500", "name": "KODEX 200"},
		{"ticker": "102110", "name": "TIGER 200"},
	})
	require.NoError(t, err)
	require.NoError(t, WriteArtifact(path, text))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, raw[:3], "artifact must start with a UTF-8 BOM")

	rows, err := ReadArtifact(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "069500", rows[0]["ticker"])
	assert.Equal(t, "TIGER 200", rows[1]["name"])
}

func TestReadArtifact_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	rows, err := ReadArtifact(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
