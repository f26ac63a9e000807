package bytes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFmtMem_FormatsCorrectly verifies memory formatting for different sizes.
func TestFmtMem_FormatsCorrectly(t *testing.T) {
	tests := []struct {
		name     string
		bytes    uint64
		expected string
	}{
		{"bytes", 512, "512B"},
		{"kilobytes", 5 * 1024, "5KB 0B"},
		{"megabytes", 10 * 1024 * 1024, "10MB 0KB"},
		{"gigabytes", 2 * 1024 * 1024 * 1024, "2GB 0MB"},
		{"terabytes", 1 * 1024 * 1024 * 1024 * 1024, "1TB 0GB"},
		{"mixed KB", 1536, "1KB 512B"},
		{"mixed MB", 10*1024*1024 + 512*1024, "10MB 512KB"},
		{"mixed GB", 2*1024*1024*1024 + 100*1024*1024, "2GB 100MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, FmtMem(tt.bytes))
		})
	}
}
