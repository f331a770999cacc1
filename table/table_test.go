package table_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/featurelab/awskit/table"
)

func TestCSVRoundTrip(t *testing.T) {
	in := &table.Table{
		Columns: []string{"name", "score", "note"},
		Rows: [][]string{
			{"alpha", "0.9", "first, with comma"},
			{"beta", "0.4", `quoted "text"`},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, in.WriteCSV(&buf))

	out, err := table.ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, in.Columns, out.Columns)
	assert.Equal(t, in.Rows, out.Rows)
}

func TestReadCSVEmpty(t *testing.T) {
	out, err := table.ReadCSV(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Zero(t, out.NumRows())
}

func TestFromJSONRecords(t *testing.T) {
	got, err := table.FromJSON([]any{
		map[string]any{"name": "alpha", "score": 0.9},
		map[string]any{"name": "beta", "score": 2.0, "extra": true},
	})
	require.NoError(t, err)

	// Columns are the sorted union of record keys; missing cells are empty.
	assert.Equal(t, []string{"extra", "name", "score"}, got.Columns)
	require.Equal(t, 2, got.NumRows())
	assert.Equal(t, []string{"", "alpha", "0.9"}, got.Rows[0])
	assert.Equal(t, []string{"true", "beta", "2"}, got.Rows[1])
}

func TestFromJSONColumns(t *testing.T) {
	got, err := table.FromJSON(map[string]any{
		"name":  []any{"alpha", "beta"},
		"score": []any{0.9, 0.4},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "score"}, got.Columns)
	assert.Equal(t, [][]string{{"alpha", "0.9"}, {"beta", "0.4"}}, got.Rows)

	names, ok := got.Column("name")
	require.True(t, ok)
	assert.Equal(t, []string{"alpha", "beta"}, names)

	_, ok = got.Column("missing")
	assert.False(t, ok)
}

func TestFromJSONFailures(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{name: "scalar", in: 42.0},
		{name: "record is not an object", in: []any{"just a string"}},
		{name: "ragged columns", in: map[string]any{"a": []any{1.0}, "b": []any{1.0, 2.0}}},
		{name: "column is not a sequence", in: map[string]any{"a": "scalar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.FromJSON(tt.in)
			assert.Error(t, err)
		})
	}
}
