package writer

import (
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

// BarWriter persists downloaded bars to a destination.
type BarWriter interface {
	// Initialize sets up the writer, creating tables or files.
	Initialize() error
	// Write persists a single bar.
	Write(bar types.Bar) error
	// Finalize commits pending writes and exports the output file.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// OutputPath returns the configured output file path.
	OutputPath() string
	// Count returns the number of bars written so far.
	Count() int
}
