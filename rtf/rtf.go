// Package rtf locates and extracts embedded OLE objects from RTF byte
// streams of unknown provenance. It is not an RTF document parser: the
// lexer walks group nesting and control words only far enough to find
// \object groups, hex-decodes their \objdata payloads and materialises
// each object to a temp file for a downstream dispatcher to scan.
// Under the default lenient recovery strategy malformed input is skipped
// past, never fatal; a strict strategy turns parser anomalies into errors.
package rtf

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wudi/rtfkit/observability"
	"github.com/wudi/rtfkit/recovery"
)

// chunkSize is the window pulled from the input per read.
const chunkSize = 8192

// Dispatcher receives every extracted object. The file is positioned at
// offset zero. A non-nil return is treated as a scan verdict and aborts
// the document after cleanup.
type Dispatcher interface {
	// ScanOLE10Native scans an object in the legacy OLE10Native layout:
	// a 4-byte little-endian payload size followed by the payload.
	ScanOLE10Native(ctx context.Context, f *os.File) error

	// ScanFile scans any other extracted object; path names the temp
	// file as a hint for format detection.
	ScanFile(ctx context.Context, f *os.File, path string) error
}

type Options struct {
	// TempDir is the root under which a per-scan temporary directory is
	// created. Empty means os.TempDir().
	TempDir string

	// KeepTemp leaves the per-scan directory and extracted files behind.
	KeepTemp bool

	Logger  observability.Logger
	Metrics observability.Metrics

	// Recovery decides how malformed input is handled. Nil installs a
	// fresh lenient strategy per scan.
	Recovery recovery.Strategy

	Limits Limits
}

// Extractor drives scans. Each Scan call owns all of its state, so a
// single Extractor may be used from multiple goroutines as long as the
// configured Recovery strategy and Logger allow it.
type Extractor struct {
	dispatcher Dispatcher
	opts       Options
}

func New(d Dispatcher, opts Options) *Extractor {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NopMetrics{}
	}
	return &Extractor{dispatcher: d, opts: opts}
}

// scan is the per-document state: working frame, group stack, action
// table and extraction counters.
type scan struct {
	e        *Extractor
	ctx      context.Context
	logger   observability.Logger
	strategy recovery.Strategy
	actions  actionTable
	stack    *groupStack
	state    frame
	tmpdir   string

	pos          int64
	objects      int
	decodedBytes int64
}

// Scan walks one document. It accepts any byte stream; non-RTF input finds
// no actionable groups and returns nil. Input is pulled in chunkSize
// windows; short reads are fine.
func (e *Extractor) Scan(ctx context.Context, r io.ReaderAt) (err error) {
	root := e.opts.TempDir
	if root == "" {
		root = os.TempDir()
	}
	tmpdir, terr := os.MkdirTemp(root, "rtf-scan-")
	if terr != nil {
		return fmt.Errorf("%w: %v", ErrTempDir, terr)
	}

	strategy := e.opts.Recovery
	if strategy == nil {
		strategy = recovery.NewLenientStrategy()
	}

	s := &scan{
		e:        e,
		ctx:      ctx,
		logger:   e.opts.Logger,
		strategy: strategy,
		actions:  newActionTable(),
		stack:    newGroupStack(),
		tmpdir:   tmpdir,
	}

	start := time.Now()
	defer func() {
		if cerr := s.cleanup(); cerr != nil && err == nil {
			err = cerr
		}
		m := e.opts.Metrics
		m.Add(observability.MetricObjectCount, int64(s.objects))
		m.Add(observability.MetricDecodedBytes, s.decodedBytes)
		m.Add(observability.MetricGroupDepth, s.stack.maxDepth)
		m.Add(observability.MetricScanTime, time.Since(start).Milliseconds())
	}()

	buf := make([]byte, chunkSize)
	var off int64
	for {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		n, rerr := r.ReadAt(buf, off)
		if n > 0 {
			if cerr := s.consume(buf[:n], off); cerr != nil {
				return cerr
			}
			off += int64(n)
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("rtf: read input: %w", rerr)
		}
		if n == 0 {
			return nil
		}
	}
}

// cleanup releases everything a scan may hold on any exit path: the active
// handler, handlers buried in the unwound stack, and the per-scan temp
// directory. The first handler error (a verdict from a still-open dump)
// is preserved.
func (s *scan) cleanup() error {
	var first error
	end := func(h groupHandler) {
		if err := h.End(); err != nil && first == nil {
			first = err
		}
	}
	if h := s.state.handler; h != nil {
		s.state.handler = nil
		end(h)
	}
	for len(s.stack.frames) > 0 {
		s.stack.pop(&s.state)
		if h := s.state.handler; h != nil {
			s.state.handler = nil
			end(h)
		}
	}
	if !s.e.opts.KeepTemp {
		if err := os.RemoveAll(s.tmpdir); err != nil {
			s.logger.Warn("cannot remove temporary directory",
				observability.String("dir", s.tmpdir),
				observability.Error("err", err))
		}
	}
	return first
}
