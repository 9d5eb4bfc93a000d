package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"volumeview/pkg/config"
	"volumeview/pkg/logging"
	"volumeview/pkg/metrics"
	"volumeview/pkg/reconstruction"
	"volumeview/pkg/session"
	"volumeview/pkg/visualization"
)

// errUsage is returned when neither an input nor extra files are given
var errUsage = errors.New("no input given")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run executes one CLI invocation. Every failure is returned so the
// deferred log and signal cleanup always runs.
func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("volumeview", flag.ContinueOnError)
	configPath := fs.String("config", "volumeview.yaml", "Path to the YAML configuration file")
	initConfig := fs.Bool("init-config", false, "Write a default configuration file to -config and exit")
	input := fs.String("input", "", "DICOM file or folder to open (extra arguments are opened as a series)")
	axial := fs.Int("axial", -1, "Axial slice index (default: middle of the stack)")
	axis := fs.String("axis", "", "Secondary view: sagittal or coronal (default from config)")
	index := fs.Int("index", 0, "Secondary slice index")
	windowWidth := fs.Int("ww", 0, "Window width (default: from the volume)")
	windowLevel := fs.Int("wl", 0, "Window level (default: from the volume)")
	outDir := fs.String("out", ".", "Directory to write axial.png and the sagittal or coronal PNG to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(stdout, "Default configuration written to %s\n", *configPath)
		return nil
	}

	sources := fs.Args()
	if *input == "" && len(sources) == 0 {
		fs.Usage()
		return errUsage
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *axis != "" {
		cfg.View.SecondaryAxis = *axis
	}

	logger, closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()

	// fail logs err to the configured output before handing it back
	fail := func(err error, msg string) error {
		logger.Error().Err(err).Msg(msg)
		return fmt.Errorf("%s: %w", msg, err)
	}

	reg := prometheus.NewRegistry()
	doc, err := session.NewDocument(cfg,
		session.WithLogger(logger),
		session.WithMetrics(metrics.NewIngestion(reg)),
	)
	if err != nil {
		return fail(err, "invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	progress := reconstruction.ProgressFuncs{
		OnProgress: func(f float64) {
			fmt.Fprintf(os.Stderr, "\rLoading: %.1f%% complete", f*100)
		},
		OnCancel: func() {
			fmt.Fprintln(os.Stderr, "\nLoading cancelled")
		},
	}

	summary, err := open(ctx, doc, *input, sources, progress)
	fmt.Fprintln(os.Stderr)
	writeMetrics(logger, cfg.Metrics.Textfile, reg)
	if err != nil {
		return fail(err, "failed to load volume")
	}
	fmt.Fprint(stdout, summary)

	flags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { flags[f.Name] = true })

	if *axial >= 0 {
		if _, err := doc.SetAxialIndex(*axial); err != nil {
			return fail(err, "failed to set axial index")
		}
	}
	if flags["index"] {
		if _, err := doc.SetSecondaryIndex(*index); err != nil {
			return fail(err, "failed to set secondary index")
		}
	}
	if flags["ww"] || flags["wl"] {
		state := doc.State()
		width, level := state.WindowWidth, state.WindowLevel
		if flags["ww"] {
			width = *windowWidth
		}
		if flags["wl"] {
			level = *windowLevel
		}
		if _, err := doc.SetWindow(width, level); err != nil {
			return fail(err, "failed to set window")
		}
	}

	frame, err := doc.Render()
	if err != nil {
		return fail(err, "failed to render")
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fail(err, "failed to create output directory")
	}
	axialPath := filepath.Join(*outDir, "axial.png")
	secondaryPath := filepath.Join(*outDir, strings.ToLower(frame.State.SecondaryAxis.String())+".png")

	if err := visualization.SaveSlice(frame.Crosshair.Draw(frame.Primary), axialPath); err != nil {
		return fail(err, "failed to save axial view")
	}
	if err := visualization.SaveSlice(frame.Secondary, secondaryPath); err != nil {
		return fail(err, "failed to save secondary view")
	}

	fmt.Fprintf(stdout, "\nAxial (Slice %s) saved to: %s\n", frame.Labels.Axial, axialPath)
	fmt.Fprintf(stdout, "%s (Slice %s) saved to: %s\n", frame.State.SecondaryAxis, frame.Labels.Secondary, secondaryPath)
	fmt.Fprintf(stdout, "Window Width: %s  Window Level: %s\n", frame.Labels.WindowWidth, frame.Labels.WindowLevel)
	return nil
}

// open picks the single-file, folder or series entry point
func open(ctx context.Context, doc *session.Document, input string, extra []string, progress reconstruction.Progress) (session.Summary, error) {
	if input != "" && len(extra) == 0 {
		info, err := os.Stat(input)
		if err != nil {
			return session.Summary{}, err
		}
		if info.IsDir() {
			return doc.OpenFolder(ctx, input, progress)
		}
		return doc.OpenFile(ctx, input, progress)
	}

	paths := extra
	if input != "" {
		paths = append([]string{input}, extra...)
	}
	return doc.OpenFiles(ctx, paths, progress)
}

func writeMetrics(logger zerolog.Logger, path string, reg *prometheus.Registry) {
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to write metrics")
	}
}
