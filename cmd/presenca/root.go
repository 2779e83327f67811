package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ayusman/presenca/internal/app"
	"github.com/ayusman/presenca/internal/capture"
	"github.com/ayusman/presenca/internal/config"
	"github.com/ayusman/presenca/internal/detector"
	"github.com/ayusman/presenca/internal/panel"
	"github.com/ayusman/presenca/internal/presence"
	"github.com/ayusman/presenca/internal/render"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

// Options holds the command line overrides for the config file.
type Options struct {
	ConfigPath string
	Cascade    string
	LogPath    string
	VideoPath  string
	WindowName string
	Width      int
	Height     int
	Debounce   float64
	Headless   bool
	ParamsFile string
	Verbose    bool
}

// newRootCmd builds the root command with its flags bound to o.
func newRootCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "presenca",
		Short:        "Webcam face presence logger",
		Long:         "Detects frontal faces on the webcam feed, records an annotated video and appends a debounced presence log.",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, *o)
		},
	}

	// --version prints the bare version string
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	def := config.Default()

	f := cmd.Flags()
	f.StringVarP(&o.ConfigPath, "config", "c", "", "YAML config file")
	f.StringVar(&o.Cascade, "cascade", def.Cascade, "Haar cascade XML")
	f.StringVar(&o.LogPath, "log", def.LogPath, "presence log file")
	f.StringVar(&o.VideoPath, "video", def.VideoPath, "annotated video output")
	f.StringVar(&o.WindowName, "window", def.WindowName, "preview window title")
	f.IntVar(&o.Width, "width", def.Camera.Width, "requested capture width")
	f.IntVar(&o.Height, "height", def.Camera.Height, "requested capture height")
	f.Float64Var(&o.Debounce, "debounce", def.Presence.DebounceS, "seconds between presence log entries")
	f.BoolVar(&o.Headless, "headless", false, "run without the preview window")
	f.StringVar(&o.ParamsFile, "params-file", "", "YAML detection params, reloaded on change (headless)")
	f.BoolVarP(&o.Verbose, "verbose", "v", false, "debug logging")

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts Options
	if err := newRootCmd(&opts).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func setupLogging(verbose bool) *log.Entry {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	return log.WithField("session", uuid.New().String())
}

// resolveConfig loads the config file and applies the flags the user set.
func resolveConfig(cmd *cobra.Command, o Options) (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("cascade") {
		cfg.Cascade = o.Cascade
	}
	if changed("log") {
		cfg.LogPath = o.LogPath
	}
	if changed("video") {
		cfg.VideoPath = o.VideoPath
	}
	if changed("window") {
		cfg.WindowName = o.WindowName
	}
	if changed("width") {
		cfg.Camera.Width = o.Width
	}
	if changed("height") {
		cfg.Camera.Height = o.Height
	}
	if changed("debounce") {
		cfg.Presence.DebounceS = o.Debounce
	}
	if changed("headless") {
		cfg.Headless = o.Headless
	}
	if changed("params-file") {
		cfg.ParamsFile = o.ParamsFile
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initialParams is the config detection block as detector params.
func initialParams(cfg *config.Config) detector.Params {
	return detector.Params{
		ScaleFactor:  cfg.Detection.ScaleFactor,
		MinNeighbors: cfg.Detection.MinNeighbors,
		MinSize:      cfg.Detection.MinSize,
	}
}

// buildPanel returns the parameter source for headless runs, or nil to use
// the trackbars on the preview window.
func buildPanel(cfg *config.Config) (panel.Panel, func(), error) {
	if !cfg.Headless {
		return nil, func() {}, nil
	}

	if cfg.ParamsFile == "" {
		return panel.Static(initialParams(cfg)), func() {}, nil
	}

	fp, err := panel.NewFile(cfg.ParamsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("watch params file: %w", err)
	}
	return fp, func() { fp.Close() }, nil
}

func run(ctx context.Context, cmd *cobra.Command, o Options) error {
	logger := setupLogging(o.Verbose)

	cfg, err := resolveConfig(cmd, o)
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		return err
	}

	// The cascade is checked before the camera is touched.
	cascade, err := detector.ResolveCascade(cfg.Cascade)
	if err != nil {
		logger.Errorf("Failed to load face detector: %v", err)
		return err
	}
	det, err := detector.NewCascadeDetector(cascade)
	if err != nil {
		logger.Errorf("Failed to load face detector: %v", err)
		return err
	}
	defer det.Close()

	params, closePanel, err := buildPanel(cfg)
	if err != nil {
		logger.Errorf("Failed to set up parameters: %v", err)
		return err
	}
	defer closePanel()

	cam := capture.NewCamera(capture.Options{
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		Settle: cfg.Settle(),
	})

	pres := presence.New(cfg.LogPath,
		presence.WithDebounce(cfg.Debounce()),
		presence.WithMessage(cfg.Presence.Message),
	)

	a, err := app.New(app.Config{
		Camera:        cam,
		Detector:      det,
		Presence:      pres,
		VideoPath:     cfg.VideoPath,
		Codec:         cfg.Codec,
		WindowName:    cfg.WindowName,
		QuitKey:       render.DefaultQuitKey,
		Headless:      cfg.Headless,
		Panel:         params,
		InitialParams: initialParams(cfg),
	})
	if err != nil {
		logger.Errorf("Failed to initialize: %v", err)
		return err
	}
	a.SetLogger(logger)

	logger.WithFields(log.Fields{
		"cascade":  det.Path(),
		"log":      cfg.LogPath,
		"headless": cfg.Headless,
	}).Info("starting presence detection")

	res, err := a.Run(ctx)
	if err != nil {
		logger.Errorf("Stopped with error: %v", err)
		return err
	}

	logger.WithFields(log.Fields{
		"frames": res.Frames,
		"events": res.Events,
	}).Infof("stopped: %s", res.Reason)
	return nil
}
