package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-cropper/internal/config"
	"github.com/phambaophuc/image-cropper/internal/services/processor"
	"github.com/phambaophuc/image-cropper/internal/services/session"
	"go.uber.org/zap"
)

func main() {
	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("cropreplay"),
		kong.Description("Replay a recorded crop gesture script against an image."),
		kong.UsageOnError(),
	)
	if err := cliCtx.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cliArgs struct {
	Replay replayCmd `cmd:"" default:"withargs" help:"Replay a gesture script and save the crop."`
}

type replayCmd struct {
	Image   string `arg:"" type:"existingfile" help:"Source image to crop."`
	Script  string `short:"s" type:"existingfile" help:"YAML gesture script. Without one the initial framing is saved."`
	Output  string `short:"o" required:"" help:"Where to write the cropped image."`
	Preview string `short:"p" help:"Also write the final preview as PNG."`

	AspectRatio    float64 `help:"Crop aspect ratio (width/height). Overrides the script." default:"0"`
	ViewportWidth  int     `help:"Viewport width in pixels." default:"400"`
	ViewportHeight int     `help:"Viewport height in pixels." default:"400"`
	WindowFraction float64 `help:"Share of the viewport taken by the crop window." default:"0.8"`
	ZoomMin        float64 `help:"Lower zoom limit." default:"0.5"`
	ZoomMax        float64 `help:"Upper zoom limit." default:"3.0"`
	ClampPan       bool    `help:"Keep the crop window on the image while dragging." default:"true" negatable:""`
	OutputSize     int     `help:"Output width in pixels." default:"800"`
	Quality        float64 `help:"Lossy encode quality in (0,1]." default:"0.9"`
	Format         string  `help:"Output format; defaults to the output file extension."`
	Filter         string  `help:"Resample filter: lanczos, catmullrom, linear, nearest." default:"lanczos"`
	Hint           string  `help:"Caption drawn on the preview."`
	Verbose        bool    `short:"v" help:"Enable verbose logging."`
}

func (cmd *replayCmd) Run() error {
	logger, err := cmd.newLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	script := &Script{}
	if cmd.Script != "" {
		if script, err = cmd.loadScript(); err != nil {
			return err
		}
	}
	events, err := script.Compile()
	if err != nil {
		return err
	}

	cfg := cmd.config(script)
	if err := cfg.Validate(); err != nil {
		return err
	}
	p, err := cfg.NewImageProcessor()
	if err != nil {
		return err
	}

	var writeErr error
	sess := session.New(ctx, "replay", p, session.Callbacks{
		OnSave: func(out *processor.Output) {
			writeErr = os.WriteFile(cmd.Output, out.Data, 0o644)
		},
		OnCancel: func() {
			logger.Warn("Replay cancelled")
		},
	}, logger)
	defer sess.Cancel()

	if err := cmd.load(ctx, sess); err != nil {
		return err
	}

	for _, ev := range events {
		if _, err := sess.Dispatch(ev); err != nil {
			return fmt.Errorf("failed to apply %T: %w", ev, err)
		}
	}

	state := sess.State()
	logger.Info("Replayed gestures",
		zap.Int("events", len(events)),
		zap.Float64("scale", state.Transform.Scale),
		zap.Float64("offset_x", state.Transform.OffsetX),
		zap.Float64("offset_y", state.Transform.OffsetY))

	if cmd.Preview != "" {
		if err := cmd.writePreview(sess); err != nil {
			return err
		}
	}

	out, err := sess.Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to save crop: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write %s: %w", cmd.Output, writeErr)
	}

	logger.Info("Crop written",
		zap.String("path", cmd.Output),
		zap.Int("width", out.Width),
		zap.Int("height", out.Height),
		zap.Int("bytes", len(out.Data)))
	return nil
}

func (cmd *replayCmd) newLogger() (*zap.Logger, error) {
	if cmd.Verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	return cfg.Build()
}

func (cmd *replayCmd) loadScript() (*Script, error) {
	f, err := os.Open(cmd.Script)
	if err != nil {
		return nil, fmt.Errorf("failed to open script %s: %w", cmd.Script, err)
	}
	defer f.Close()
	return LoadScript(f)
}

func (cmd *replayCmd) config(script *Script) *config.Config {
	aspect := processor.DefaultAspectRatio
	switch {
	case cmd.AspectRatio > 0:
		aspect = cmd.AspectRatio
	case script.AspectRatio > 0:
		aspect = script.AspectRatio
	}

	format := cmd.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(cmd.Output), ".")
	}

	return &config.Config{
		Storage: config.StorageConfig{MaxFileSize: processor.DefaultMaxFileSize * 5},
		Crop: config.CropConfig{
			AspectRatio:    aspect,
			ViewportWidth:  cmd.ViewportWidth,
			ViewportHeight: cmd.ViewportHeight,
			WindowFraction: cmd.WindowFraction,
			ZoomMin:        cmd.ZoomMin,
			ZoomMax:        cmd.ZoomMax,
			ClampPan:       cmd.ClampPan,
			OutputLongEdge: cmd.OutputSize,
			EncodeQuality:  cmd.Quality,
			EncodeFormat:   format,
			Filter:         cmd.Filter,
			PreviewHint:    cmd.Hint,
		},
	}
}

func (cmd *replayCmd) load(ctx context.Context, sess *session.Session) error {
	f, err := os.Open(cmd.Image)
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", cmd.Image, err)
	}
	defer f.Close()

	return sess.Load(ctx, f)
}

func (cmd *replayCmd) writePreview(sess *session.Session) error {
	img, err := sess.Preview()
	if err != nil {
		return err
	}
	if err := imaging.Save(img, cmd.Preview); err != nil {
		return fmt.Errorf("failed to write preview %s: %w", cmd.Preview, err)
	}
	return nil
}
