// Package session ties one volume and its view together into a document.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"volumeview/internal/models"
	"volumeview/pkg/config"
	"volumeview/pkg/dicomio"
	"volumeview/pkg/metrics"
	"volumeview/pkg/reconstruction"
	"volumeview/pkg/viewstate"
	"volumeview/pkg/visualization"
)

// ErrNoVolume is returned when rendering before anything was loaded
var ErrNoVolume = errors.New("no volume loaded")

// Summary describes a freshly loaded volume for display
type Summary struct {
	Metadata    models.Metadata
	Width       int
	Height      int
	Depth       int
	WindowWidth int
	WindowLevel int
	SizeBytes   uint64
	Report      reconstruction.Report
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Volume: %d x %d x %d (%s)\n", s.Width, s.Height, s.Depth, humanize.IBytes(s.SizeBytes))
	fmt.Fprintf(&b, "Window: width %d, level %d\n", s.WindowWidth, s.WindowLevel)
	fmt.Fprintf(&b, "Ingestion: %s\n", s.Report)
	for _, key := range []string{
		models.MetaPatientName, models.MetaPatientID, models.MetaModality,
		models.MetaBodyPart, models.MetaStudyDate, models.MetaManufacturer,
	} {
		if v, ok := s.Metadata[key]; ok {
			fmt.Fprintf(&b, "%s: %s\n", key, v)
		}
	}
	return b.String()
}

// Document owns one volume and its view. The volume is replaced only
// when an ingestion succeeds. Methods may be called from different
// goroutines; rendering and view changes are serialized.
type Document struct {
	cfg     *config.Config
	decoder reconstruction.Decoder
	metrics *metrics.Ingestion
	logger  zerolog.Logger

	mu       sync.Mutex
	reslicer *visualization.Reslicer
	state    viewstate.ViewState
}

// Option customizes a Document
type Option func(*Document)

// WithDecoder replaces the DICOM decoder
func WithDecoder(d reconstruction.Decoder) Option {
	return func(doc *Document) { doc.decoder = d }
}

// WithMetrics records ingestion metrics
func WithMetrics(m *metrics.Ingestion) Option {
	return func(doc *Document) { doc.metrics = m }
}

// WithLogger sets the document logger
func WithLogger(l zerolog.Logger) Option {
	return func(doc *Document) { doc.logger = l }
}

// NewDocument creates an empty document configured by cfg
func NewDocument(cfg *config.Config, opts ...Option) (*Document, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	axis, err := models.ParseAxis(cfg.View.SecondaryAxis)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		cfg:     cfg,
		decoder: dicomio.NewDecoder(cfg.Ingestion.ApplyRescale),
		logger:  zerolog.Nop(),
		state:   viewstate.New(axis, cfg.View.WindowWidth, cfg.View.WindowLevel),
	}
	for _, opt := range opts {
		opt(doc)
	}
	return doc, nil
}

// OpenFile loads a single file
func (d *Document) OpenFile(ctx context.Context, path string, progress reconstruction.Progress) (Summary, error) {
	return d.Ingest(ctx, []string{path}, progress)
}

// OpenFiles loads a set of files as one series
func (d *Document) OpenFiles(ctx context.Context, paths []string, progress reconstruction.Progress) (Summary, error) {
	return d.Ingest(ctx, paths, progress)
}

// OpenFolder loads every matching file below dir as one series
func (d *Document) OpenFolder(ctx context.Context, dir string, progress reconstruction.Progress) (Summary, error) {
	sources, err := dicomio.EnumerateSources(dir, d.cfg.Ingestion.Extensions)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(sources) == 0 {
		return Summary{}, fmt.Errorf("%w: no files matching %v in %s",
			reconstruction.ErrEmptyInput, d.cfg.Ingestion.Extensions, dir)
	}
	return d.Ingest(ctx, sources, progress)
}

// Ingest decodes and assembles sources and, on success, makes the result
// the document's volume. On failure the current volume and view are
// left as they were.
func (d *Document) Ingest(ctx context.Context, sources []string, progress reconstruction.Progress) (Summary, error) {
	in := &reconstruction.Ingester{
		Decoder:   d.decoder,
		Assembler: reconstruction.NewAssembler(d.cfg.Ingestion.ReplicateDepth, &d.logger),
		Workers:   d.cfg.Ingestion.Workers,
		Progress:  progress,
		Metrics:   d.metrics,
		Logger:    d.logger,
	}

	vol, report, err := in.Ingest(ctx, sources)
	if err != nil {
		d.logger.Error().Err(err).Str("summary", report.String()).Msg("ingestion failed")
		return Summary{Report: report}, err
	}

	reslicer, err := visualization.NewReslicer(vol, d.cfg.View.SectionCacheSize)
	if err != nil {
		return Summary{Report: report}, err
	}

	d.mu.Lock()
	d.reslicer = reslicer
	d.state.Load(vol)
	d.mu.Unlock()

	return Summary{
		Metadata:    vol.Metadata.Clone(),
		Width:       vol.Width,
		Height:      vol.Height,
		Depth:       vol.Depth,
		WindowWidth: vol.WindowWidth,
		WindowLevel: vol.WindowLevel,
		SizeBytes:   vol.SizeBytes(),
		Report:      report,
	}, nil
}

// Result is delivered by IngestAsync
type Result struct {
	Summary Summary
	Err     error
}

// IngestAsync runs Ingest on its own goroutine. The returned channel
// receives exactly one result and is then closed.
func (d *Document) IngestAsync(ctx context.Context, sources []string, progress reconstruction.Progress) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		summary, err := d.Ingest(ctx, sources, progress)
		out <- Result{Summary: summary, Err: err}
	}()
	return out
}

// Volume returns the current volume, or nil
func (d *Document) Volume() *models.Volume {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reslicer == nil {
		return nil
	}
	return d.reslicer.Volume()
}

// State returns a copy of the current view
func (d *Document) State() viewstate.ViewState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Render produces the display frame for the current view
func (d *Document) Render() (visualization.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.render()
}

func (d *Document) render() (visualization.Frame, error) {
	if d.reslicer == nil {
		return visualization.Frame{}, ErrNoVolume
	}
	return d.reslicer.Render(&d.state)
}

// update applies fn to the view and re-renders
func (d *Document) update(fn func(vol *models.Volume, s *viewstate.ViewState) error) (visualization.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var vol *models.Volume
	if d.reslicer != nil {
		vol = d.reslicer.Volume()
	}
	if err := fn(vol, &d.state); err != nil {
		return visualization.Frame{}, err
	}
	return d.render()
}

// SetAxialIndex moves the axial section and re-renders
func (d *Document) SetAxialIndex(i int) (visualization.Frame, error) {
	return d.update(func(vol *models.Volume, s *viewstate.ViewState) error {
		s.SetAxialIndex(vol, i)
		return nil
	})
}

// SetSecondaryIndex moves the secondary section and re-renders
func (d *Document) SetSecondaryIndex(i int) (visualization.Frame, error) {
	return d.update(func(vol *models.Volume, s *viewstate.ViewState) error {
		s.SetSecondaryIndex(vol, i)
		return nil
	})
}

// SetSecondaryAxis switches the secondary section and re-renders
func (d *Document) SetSecondaryAxis(axis models.Axis) (visualization.Frame, error) {
	return d.update(func(vol *models.Volume, s *viewstate.ViewState) error {
		return s.SetSecondaryAxis(vol, axis)
	})
}

// SetWindow changes the window width and level and re-renders
func (d *Document) SetWindow(width, level int) (visualization.Frame, error) {
	return d.update(func(_ *models.Volume, s *viewstate.ViewState) error {
		s.SetWindowWidth(width)
		s.SetWindowLevel(level)
		return nil
	})
}
