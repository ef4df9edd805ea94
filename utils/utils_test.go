package utils

import (
	// Go Internal Packages
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
)

func TestParsePartitions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Partition
	}{
		{
			name:     "single partition",
			input:    "raw/state=SP/card-stream-2026-10-15-12-00-00-abc.gz",
			expected: []Partition{{Name: "state", Value: "SP"}},
		},
		{
			name:     "URL-encoded path",
			input:    "stage/state%3DRJ/city=Rio%20de%20Janeiro/part-0.snappy.parquet",
			expected: []Partition{{Name: "state", Value: "RJ"}, {Name: "city", Value: "Rio de Janeiro"}},
		},
		{
			name:     "no partition",
			input:    "raw/some_file.gz",
			expected: nil,
		},
		{
			name:     "equals sign in file name is ignored",
			input:    "raw/state=MG/a=b.gz",
			expected: []Partition{{Name: "state", Value: "MG"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePartitions(tt.input))
		})
	}
}

func TestPartitionPathRoundTrip(t *testing.T) {
	key := "raw/" + PartitionPath("state", "Rio Grande do Sul") + "obj.gz"
	assert.Equal(t, "raw/state=Rio%20Grande%20do%20Sul/obj.gz", key)
	assert.Equal(t, "Rio Grande do Sul", PartitionValue(key, "state"))
	assert.Equal(t, "", PartitionValue(key, "city"))
}

func TestJoinPrefix(t *testing.T) {
	assert.Equal(t, "raw/state=SP/x.gz", JoinPrefix("raw", "state=SP/", "x.gz"))
	assert.Equal(t, "error/processing-failed/x.gz", JoinPrefix("error/", "", "processing-failed", "x.gz"))
}
