package engine

import (
	"context"
	"os"
)

// GrantedGate always permits capture. Used where the operating system
// enforces access to the feed itself.
type GrantedGate struct{}

// Granted always returns true.
func (GrantedGate) Granted(context.Context) bool { return true }

// FileGate permits capture when the feed path exists and is a readable
// file or pipe. Stat rather than open: opening a FIFO for reading blocks
// until a writer appears.
type FileGate struct {
	Path string
}

// Granted reports whether the feed path is accessible.
func (g FileGate) Granted(context.Context) bool {
	if g.Path == "" || g.Path == "-" {
		return true
	}
	info, err := os.Stat(g.Path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
