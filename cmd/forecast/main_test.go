package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/domain"
)

func TestRun_Stdin(t *testing.T) {
	in := strings.NewReader(`[
		{"date": "2024-03-01", "total": 100},
		{"date": "2024-03-02", "total": -50},
		{"date": "2024-03-03", "total": 200}
	]`)
	var out bytes.Buffer

	require.NoError(t, run("", in, &out, false))

	var m domain.CashFlowMetrics
	require.NoError(t, json.Unmarshal(out.Bytes(), &m))
	assert.Equal(t, 1, m.DaysBelowZero)
	assert.Equal(t, -50.0, m.WorstDayBalance)
	assert.Equal(t, "2024-03-02", m.WorstDayDate)
}

func TestRun_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"date":"2024-03-01","total":10}]`), 0644))

	var out bytes.Buffer
	require.NoError(t, run(path, strings.NewReader(""), &out, true))
	assert.Contains(t, out.String(), "\n  ")
}

func TestRun_EmptySeries(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run("-", strings.NewReader(`[]`), &out, false))

	var m domain.CashFlowMetrics
	require.NoError(t, json.Unmarshal(out.Bytes(), &m))
	assert.Equal(t, domain.RiskLow, m.RiskScore)
}

func TestRun_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `nope`},
		{"unknown field", `[{"date":"2024-03-01","total":1,"extra":true}]`},
		{"bad date", `[{"date":"03/01/2024","total":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, run("", strings.NewReader(tt.input), &out, false))
		})
	}
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	err := run(filepath.Join(t.TempDir(), "missing.json"), nil, &out, false)
	assert.Error(t, err)
}
