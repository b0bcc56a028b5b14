package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileGate(t *testing.T) {
	dir := t.TempDir()
	feed := filepath.Join(dir, "feed.jsonl")
	require.NoError(t, os.WriteFile(feed, nil, 0600))

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "existing file granted", path: feed, want: true},
		{name: "stdin marker granted", path: "-", want: true},
		{name: "unset path granted", path: "", want: true},
		{name: "missing path denied", path: filepath.Join(dir, "nope"), want: false},
		{name: "directory denied", path: dir, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := FileGate{Path: tt.path}
			assert.Equal(t, tt.want, gate.Granted(context.Background()))
		})
	}
}

func TestGrantedGate(t *testing.T) {
	assert.True(t, GrantedGate{}.Granted(context.Background()))
}
