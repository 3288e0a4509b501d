package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/janiskrasemann/albumfeed/internal/config"
	"github.com/janiskrasemann/albumfeed/internal/feed"
	"github.com/janiskrasemann/albumfeed/internal/mailer"
	"github.com/janiskrasemann/albumfeed/internal/renderer"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "/etc/albumfeed/config.yaml", "path to config file (.yaml or .toml)")
	once := flag.Bool("once", false, "run once immediately and exit")
	test := flag.Bool("test", false, "render digest and open HTML in browser instead of sending email")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	defer logger.Sync()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env", zap.Error(err))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", *configPath), zap.Error(err))
	}

	rend, err := renderer.NewDefault()
	if err != nil {
		logger.Fatal("failed to initialize renderer", zap.Error(err))
	}

	var headerImage []byte
	if cfg.HeaderImage != "" {
		headerImage, err = os.ReadFile(cfg.HeaderImage)
		if err != nil {
			logger.Fatal("failed to read header image", zap.String("path", cfg.HeaderImage), zap.Error(err))
		}
	}

	timeout, err := cfg.Feed.TimeoutDuration()
	if err != nil {
		logger.Fatal("invalid feed timeout", zap.Error(err))
	}
	httpClient := &http.Client{Timeout: timeout}

	// Completions run on the main goroutine, one at a time.
	loop := feed.NewLoop()
	fetcher := feed.New(
		feed.NewHTTPTransport(httpClient, logger.Named("transport")),
		loop,
		feed.WithLogger(logger.Named("feed")),
	)

	to := cfg.Email.To
	if *once && cfg.Email.TestTo != "" {
		to = cfg.Email.TestTo
	}
	mail := mailer.New(cfg.Email.From, to, cfg.Email.ResendAPIKey, headerImage, logger.Named("mailer"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &digest{
		configPath: *configPath,
		fetcher:    fetcher,
		renderer:   rend,
		mailer:     mail,
		logger:     logger,
	}

	if *test || *once {
		app.run(ctx, *test, loop.Stop)
		loop.Run(ctx)
		return
	}

	c := cron.New(cron.WithLogger(cronLogger{logger.Named("cron").Sugar()}))
	_, err = c.AddFunc(cfg.Schedule, func() { app.run(ctx, false, func() {}) })
	if err != nil {
		logger.Fatal("failed to add cron schedule", zap.String("schedule", cfg.Schedule), zap.Error(err))
	}
	c.Start()

	logger.Info("albumfeed started", zap.String("schedule", cfg.Schedule), zap.String("feed", cfg.Feed.URL))

	loop.Run(ctx)

	logger.Info("shutting down")
	<-c.Stop().Done()
}

type digest struct {
	configPath string
	fetcher    *feed.Fetcher
	renderer   *renderer.Renderer
	mailer     *mailer.Mailer
	logger     *zap.Logger
}

// run fetches the chart and, on the loop, renders and delivers it.
// done is called once delivery has finished or failed.
func (d *digest) run(ctx context.Context, preview bool, done func()) {
	// Reload config to get current edition number
	cfg, err := config.Load(d.configPath)
	if err != nil {
		d.logger.Error("failed to reload config", zap.Error(err))
		done()
		return
	}
	edition := cfg.Edition + 1

	d.logger.Info("starting digest generation", zap.Int("edition", edition))
	d.fetcher.GetFeed(ctx, cfg.Feed.MaxItems, cfg.Feed.URL, func(res feed.Result[feed.Feed]) {
		defer done()

		if res.Err != nil && !preview {
			d.logger.Error("failed to fetch chart, skipping digest", zap.Error(res.Err))
			return
		}

		email, err := d.renderer.Render(renderer.NewDigest(res, edition, cfg.Intro, cfg.Feed.MaxItems))
		if err != nil {
			d.logger.Error("failed to render digest", zap.Error(err))
			return
		}

		if preview {
			d.preview(email)
			return
		}

		if err := d.mailer.Send(email, edition); err != nil {
			d.logger.Error("failed to send digest", zap.Error(err))
			return
		}

		if err := config.IncrementEdition(d.configPath); err != nil {
			d.logger.Error("failed to update edition counter", zap.Error(err))
		}

		d.logger.Info("digest sent", zap.Int("edition", edition), zap.Int("albums", len(res.Value.Results)))
	})
}

func (d *digest) preview(email *renderer.RenderedEmail) {
	f, err := os.CreateTemp("", "albumfeed-digest-*.html")
	if err != nil {
		d.logger.Error("failed to create temp file", zap.Error(err))
		return
	}
	if _, err := f.WriteString(email.HTML); err != nil {
		f.Close()
		d.logger.Error("failed to write HTML", zap.Error(err))
		return
	}
	f.Close()

	d.logger.Info("HTML written", zap.String("path", f.Name()))

	var cmd string
	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
	case "linux":
		cmd = "xdg-open"
	default:
		cmd = "open"
	}
	if err := exec.Command(cmd, f.Name()).Start(); err != nil {
		d.logger.Warn("failed to open browser", zap.Error(err))
	}
}
