package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadSeriesFile(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantName string
		wantLen  int
		wantErr  bool
	}{
		{
			name:     "series object",
			body:     `{"code":"110011","name":"중소형","points":[{"date":"2024-01-02","value":1.1},{"date":"2024-01-03","value":1.2}]}`,
			wantCode: "110011",
			wantName: "중소형",
			wantLen:  2,
		},
		{
			name:     "bare array uses argument code",
			body:     "\n  [{\"date\":\"2024-01-02\",\"value\":1.1}]",
			wantCode: "161725",
			wantLen:  1,
		},
		{
			name:     "object without code",
			body:     `{"points":[]}`,
			wantCode: "161725",
		},
		{
			name:    "invalid json",
			body:    `{"points":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := readSeriesFile(writeFile(t, tt.body), "161725")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, series.Code)
			assert.Equal(t, tt.wantName, series.Name)
			assert.Len(t, series.Points, tt.wantLen)
		})
	}

	_, err := readSeriesFile(filepath.Join(t.TempDir(), "missing.json"), "161725")
	assert.Error(t, err)
}

func TestValidateCodes(t *testing.T) {
	assert.NoError(t, validateCodes([]string{"161725", "005827"}))
	assert.Error(t, validateCodes([]string{"161725", "abc"}))
}
