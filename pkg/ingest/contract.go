// Package ingest implements spec §4.4: format detection and the six
// parsers (three text, three binary) that turn a byte stream into a
// pkg/logmodel.Log behind one shared contract.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ultralog/ultralog/pkg/logmodel"
	"github.com/ultralog/ultralog/pkg/normalize"
)

// Options carries everything a parser needs beyond the byte stream itself:
// the name-normalizer inputs (spec §4.4's "host-provided user overrides at
// the time of load"), column sizing and logging. Cancellation is not part
// of Options: it arrives as Parse's ctx, checked at row boundaries.
type Options struct {
	Overrides normalize.Overrides
	Registry  normalize.Registry
	// InitialColumnCapacity seeds the geometric growth of each column
	// buffer; zero selects a sane default.
	InitialColumnCapacity int
	// Logger receives per-row warnings at Debug. Nil selects a discard
	// logger, so tests exercising Parse directly never need to set this.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// recordWarning appends w to *warnings and logs it at Debug, the one path
// every parser's row-skip sites funnel through so a row-level problem is
// always both counted and observable without re-parsing.
func recordWarning(opts Options, warnings *[]logmodel.ParseWarning, w logmodel.ParseWarning) {
	*warnings = append(*warnings, w)
	opts.logger().Debug("skipped malformed row", "row", w.Row, "channel", w.Channel, "reason", w.Reason)
}

// Parser is the one contract every format-specific parser satisfies.
type Parser interface {
	// Name identifies the format for logging and for Log.SourceFormat.
	Name() string
	// Sniff reports whether head (the first bytes of the stream, at least
	// a few KB when available) carries this format's signature.
	Sniff(head []byte) bool
	// Parse consumes r fully (or until ctx is cancelled) and produces a
	// Log. A row-level problem increments a warning counter and is skipped;
	// a structural problem aborts the parse with a typed error.
	Parse(ctx context.Context, r ByteReaderAt, opts Options) (*logmodel.Log, error)
}

// ByteReaderAt is the minimal stream interface parsers consume: text
// parsers want buffered sequential reads, binary parsers want random
// access into a fixed-width record table. Both are satisfied by
// *bytes.Reader and *os.File.
type ByteReaderAt interface {
	Read(p []byte) (int, error)
	ReadAt(p []byte, off int64) (int, error)
	Size() int64
}

// UnsupportedFormatError is returned when no parser's signature matches.
type UnsupportedFormatError struct {
	Detail string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("ingest: unsupported format: %s", e.Detail)
}

// CorruptFormatError is returned when a binary parser hits a structural
// inconsistency: a length mismatch, a magic violation, or a truncated
// record. Binary parsers never panic on bad input; they return this.
type CorruptFormatError struct {
	Offset int64
	Detail string
}

func (e *CorruptFormatError) Error() string {
	return fmt.Sprintf("ingest: corrupt format at offset %d: %s", e.Offset, e.Detail)
}

// CancelledError is returned when ctx is done before a parse completes.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "ingest: cancelled" }

const defaultInitialColumnCapacity = 4096

// cancelCheckInterval is how often (in rows/records) parsers check ctx, per
// spec §4.4's "at least every 4096 rows".
const cancelCheckInterval = 4096

func checkCancelled(ctx context.Context, row int) error {
	if row%cancelCheckInterval != 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return &CancelledError{}
	default:
		return nil
	}
}
