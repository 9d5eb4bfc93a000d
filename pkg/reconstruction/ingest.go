package reconstruction

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"volumeview/internal/models"
	"volumeview/pkg/metrics"
)

// Decoder turns one source into a slice record
type Decoder interface {
	Decode(ctx context.Context, source string) (*models.SliceRecord, error)
}

// DecoderFunc adapts a function to the Decoder interface
type DecoderFunc func(ctx context.Context, source string) (*models.SliceRecord, error)

// Decode calls f(ctx, source)
func (f DecoderFunc) Decode(ctx context.Context, source string) (*models.SliceRecord, error) {
	return f(ctx, source)
}

// Progress receives ingestion progress. Both methods may be called from
// worker goroutines; calls are serialized and fractions never decrease.
type Progress interface {
	Progress(fraction float64)
	Cancelled()
}

// ProgressFuncs adapts a pair of optional functions to Progress
type ProgressFuncs struct {
	OnProgress func(fraction float64)
	OnCancel   func()
}

// Progress calls OnProgress if set
func (p ProgressFuncs) Progress(fraction float64) {
	if p.OnProgress != nil {
		p.OnProgress(fraction)
	}
}

// Cancelled calls OnCancel if set
func (p ProgressFuncs) Cancelled() {
	if p.OnCancel != nil {
		p.OnCancel()
	}
}

// Report summarizes one ingestion attempt
type Report struct {
	Attempted  int
	Decoded    int
	Skipped    int
	Planes     int
	Replicated bool
	MixedKeys  bool
	Skips      []*DecodeError
	Elapsed    time.Duration
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d files decoded, %d skipped", r.Decoded, r.Attempted, r.Skipped)
	if r.Planes > 0 {
		fmt.Fprintf(&b, ", %d slices", r.Planes)
	}
	if r.Replicated {
		b.WriteString(" (single slice replicated)")
	}
	if r.MixedKeys {
		b.WriteString(" (mixed spatial keys)")
	}
	return b.String()
}

// Ingester decodes a batch of sources concurrently and assembles them
type Ingester struct {
	Decoder   Decoder
	Assembler *Assembler

	// Workers bounds the number of concurrent decodes
	Workers int

	// Progress is optional
	Progress Progress

	// Metrics is optional
	Metrics *metrics.Ingestion

	Logger zerolog.Logger
}

// Ingest decodes every source, skipping those that fail, and assembles
// the rest into a Volume. Sources are decoded in parallel; the source
// order only serves as the last-resort spatial key.
//
// No partial volume is ever returned. When ctx is cancelled the progress
// receiver is told once and the context error is returned.
func (in *Ingester) Ingest(ctx context.Context, sources []string) (*models.Volume, Report, error) {
	start := time.Now()
	report := Report{Attempted: len(sources)}
	progress := in.Progress
	if progress == nil {
		progress = ProgressFuncs{}
	}

	finish := func(result string, depth int) {
		report.Elapsed = time.Since(start)
		in.Metrics.Finished(result, depth, report.Elapsed)
	}

	if len(sources) == 0 {
		finish(metrics.ResultFailed, 0)
		return nil, report, fmt.Errorf("%w: no source files", ErrEmptyInput)
	}

	workers := in.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	records := make([]*models.SliceRecord, len(sources))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rec, err := in.Decoder.Decode(gctx, src)
			if err == nil && rec == nil {
				err = errNoRecord
			}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				derr := &DecodeError{Source: src, Err: err}
				in.Logger.Warn().Str("source", src).Err(err).Msg("skipping slice that failed to decode")
				in.Metrics.File(metrics.FileSkipped)
				mu.Lock()
				report.Skipped++
				report.Skips = append(report.Skips, derr)
				mu.Unlock()
			} else {
				rec.Index = i
				if rec.Source == "" {
					rec.Source = src
				}
				records[i] = rec
				in.Metrics.File(metrics.FileDecoded)
			}

			mu.Lock()
			done++
			progress.Progress(float64(done) / float64(len(sources)))
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			progress.Cancelled()
			in.Logger.Info().Int("decoded", done).Int("attempted", len(sources)).Msg("ingestion cancelled")
			finish(metrics.ResultCancelled, 0)
			return nil, report, fmt.Errorf("ingestion cancelled: %w", err)
		}
		finish(metrics.ResultFailed, 0)
		return nil, report, err
	}

	decoded := records[:0]
	for _, rec := range records {
		if rec != nil {
			decoded = append(decoded, rec)
		}
	}
	report.Decoded = len(decoded)
	report.MixedKeys = MixedKeySources(decoded)
	report.Replicated = PlaneCount(decoded) == 1

	if len(decoded) == 0 {
		finish(metrics.ResultFailed, 0)
		return nil, report, fmt.Errorf("%w: %s", ErrEmptyInput, report)
	}

	vol, err := in.Assembler.Assemble(decoded)
	if err != nil {
		finish(metrics.ResultFailed, 0)
		return nil, report, fmt.Errorf("failed to assemble volume (%s): %w", report, err)
	}

	report.Planes = vol.Depth
	finish(metrics.ResultSuccess, vol.Depth)
	in.Logger.Info().Str("summary", report.String()).Msg("ingestion finished")
	return vol, report, nil
}
