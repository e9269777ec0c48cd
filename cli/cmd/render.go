package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pagecraft-io/pagestream/cli/config"
	"github.com/pagecraft-io/pagestream/cli/tui"
	"github.com/pagecraft-io/pagestream/iox"
	"github.com/pagecraft-io/pagestream/metrics"
	"github.com/pagecraft-io/pagestream/notify"
	notifyredis "github.com/pagecraft-io/pagestream/notify/redis"
	notifywebhook "github.com/pagecraft-io/pagestream/notify/webhook"
	"github.com/pagecraft-io/pagestream/publish"
	"github.com/pagecraft-io/pagestream/render"
	"github.com/pagecraft-io/pagestream/session"
	"github.com/pagecraft-io/pagestream/types"
)

// RenderCommand returns the render command, the only command that
// executes work.
func RenderCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "slug",
			Usage:    "Page slug or /discover/ path",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "query",
			Usage: "Generation query (default: slug with hyphens as spaces)",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Generation backend base URL",
		},
		&cli.StringFlag{
			Name:  "home-url",
			Usage: "Error panel back link",
		},
		&cli.StringFlag{
			Name:  "session-id",
			Usage: "Session ID override (default: random UUID)",
		},
		&cli.BoolFlag{
			Name:  "resume",
			Usage: "Resume from a fresh persisted snapshot",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Show live progress in an interactive view",
		},
		ConfigFlag,
		QuietFlag,
		// Final-page storage flags
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Final page storage: fs or s3 (default: none)",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Storage path (fs: directory, s3: s3://bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "storage-region",
			Usage: "AWS region for the s3 backend (optional, uses default chain)",
		},
		&cli.StringFlag{
			Name:  "storage-endpoint",
			Usage: "S3 endpoint override for S3-compatible stores",
		},
		&cli.BoolFlag{
			Name:  "storage-s3-path-style",
			Usage: "Force path-style S3 addressing",
		},
		// Notifier flags
		&cli.StringFlag{
			Name:  "notifier",
			Usage: "Completion notifier: redis or webhook (default: none)",
		},
		&cli.StringFlag{
			Name:  "notifier-url",
			Usage: "Notifier target URL",
		},
		&cli.StringFlag{
			Name:  "notifier-channel",
			Usage: "Redis pub/sub channel for the redis notifier",
		},
		&cli.DurationFlag{
			Name:  "notifier-timeout",
			Usage: "Per-notification timeout",
		},
		&cli.IntFlag{
			Name:  "notifier-retries",
			Usage: "Notification retry attempts",
			Value: notifywebhook.DefaultRetries,
		},
	}
	flags = append(flags, StateFlags()...)

	return &cli.Command{
		Name:   "render",
		Usage:  "Stream one page generation session and render it to HTML",
		Flags:  flags,
		Action: renderAction,
	}
}

func renderAction(c *cli.Context) error {
	fileCfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cli.Exit(err.Error(), render.ExitGenerationError)
		}
		fileCfg = loaded
	}

	endpoint := pick(c.String("endpoint"), fileCfg.Endpoint)
	if endpoint == "" {
		return cli.Exit("an endpoint is required (--endpoint or config file)", render.ExitGenerationError)
	}

	sessionID := c.String("session-id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	meta := types.NewPageMeta(c.String("slug"), c.String("query"), sessionID)

	store, err := buildStore(c, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), render.ExitGenerationError)
	}
	if store != nil {
		defer iox.DiscardClose(store)
	}

	publisher, err := buildPublisher(c, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), render.ExitGenerationError)
	}
	if publisher != nil {
		defer iox.DiscardClose(publisher)
	}

	notifier, err := buildNotifier(c, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), render.ExitGenerationError)
	}
	if notifier != nil {
		defer iox.DiscardClose(notifier)
	}

	rcfg := render.Config{
		Meta:      meta,
		Endpoint:  endpoint,
		HomeURL:   pick(c.String("home-url"), fileCfg.HomeURL),
		Resume:    c.Bool("resume"),
		Store:     store,
		Publisher: publisher,
		Notifier:  notifier,
		Collector: metrics.NewCollector(meta.PageID, sessionID),
	}

	// Interruption persists a resumable snapshot before exiting.
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	var result *render.Result
	if c.Bool("tui") {
		result, err = tui.Run(ctx, rcfg, meta.Slug)
	} else {
		var r *render.Renderer
		r, err = render.NewRenderer(rcfg)
		if err == nil {
			result, err = r.Run(ctx)
		}
	}
	if err != nil {
		if errors.Is(err, render.ErrAlreadyComplete) {
			if !c.Bool("quiet") {
				fmt.Printf("page %s already generated; nothing to do\n", meta.PageID)
			}
			return cli.Exit("", render.ExitOK)
		}
		return fmt.Errorf("render failed: %w", err)
	}

	if !c.Bool("quiet") {
		printRenderResult(result)
	}

	return cli.Exit("", result.ExitCode())
}

// pick returns the flag value when set, otherwise the config file value.
func pick(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

// buildStore constructs the session snapshot store, or nil when none is
// configured.
func buildStore(c *cli.Context, fileCfg *config.Config) (session.Store, error) {
	backend := pick(c.String("state-backend"), fileCfg.State.Backend)
	url := pick(c.String("state-url"), fileCfg.State.URL)

	switch backend {
	case "":
		return nil, nil
	case "memory":
		return session.NewMemoryStore(nil), nil
	case "redis":
		if url == "" {
			return nil, fmt.Errorf("state backend redis requires --state-url")
		}
		return session.NewRedisStore(url, nil)
	default:
		return nil, fmt.Errorf("unknown state backend: %s (must be memory or redis)", backend)
	}
}

// buildPublisher constructs the final-page publisher, or nil when none is
// configured.
func buildPublisher(c *cli.Context, fileCfg *config.Config) (publish.Publisher, error) {
	backend := pick(c.String("storage-backend"), fileCfg.Storage.Backend)
	path := pick(c.String("storage-path"), fileCfg.Storage.Path)

	switch backend {
	case "":
		return nil, nil
	case "fs":
		if path == "" {
			return nil, fmt.Errorf("storage backend fs requires --storage-path")
		}
		return publish.NewFSPublisher(path)
	case "s3":
		if path == "" {
			return nil, fmt.Errorf("storage backend s3 requires --storage-path")
		}
		return publish.NewS3Publisher(c.Context, publish.S3Options{
			Path:         path,
			Region:       pick(c.String("storage-region"), fileCfg.Storage.Region),
			Endpoint:     pick(c.String("storage-endpoint"), fileCfg.Storage.Endpoint),
			UsePathStyle: c.Bool("storage-s3-path-style") || fileCfg.Storage.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (must be fs or s3)", backend)
	}
}

// buildNotifier constructs the completion notifier, or nil when none is
// configured.
func buildNotifier(c *cli.Context, fileCfg *config.Config) (notify.Notifier, error) {
	notifierType := pick(c.String("notifier"), fileCfg.Notifier.Type)
	url := pick(c.String("notifier-url"), fileCfg.Notifier.URL)

	retries := notifywebhook.DefaultRetries
	if fileCfg.Notifier.Retries != nil {
		retries = *fileCfg.Notifier.Retries
	}
	if c.IsSet("notifier-retries") {
		retries = c.Int("notifier-retries")
	}

	timeout := fileCfg.Notifier.Timeout.Duration
	if c.IsSet("notifier-timeout") {
		timeout = c.Duration("notifier-timeout")
	}

	switch notifierType {
	case "":
		return nil, nil
	case "redis":
		return notifyredis.New(notifyredis.Config{
			URL:     url,
			Channel: pick(c.String("notifier-channel"), fileCfg.Notifier.Channel),
			Timeout: timeout,
			Retries: retries,
		})
	case "webhook":
		return notifywebhook.New(notifywebhook.Config{
			URL:     url,
			Headers: fileCfg.Notifier.Headers,
			Timeout: timeout,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown notifier: %s (must be redis or webhook)", notifierType)
	}
}

func printRenderResult(result *render.Result) {
	fmt.Printf("\npage_id=%s, outcome=%s, duration=%s\n",
		result.PageID,
		result.Outcome,
		result.Duration.Round(time.Millisecond),
	)

	fmt.Printf("\n=== Render Result ===\n")
	fmt.Printf("Page ID:      %s\n", result.PageID)
	fmt.Printf("Page URL:     %s\n", result.PageURL)
	fmt.Printf("Outcome:      %s\n", result.Outcome)
	if result.Message != "" {
		fmt.Printf("Message:      %s\n", result.Message)
	}
	fmt.Printf("Blocks:       %d/%d complete\n", result.BlocksDone, result.BlocksTotal)
	fmt.Printf("Reconnects:   %d\n", result.Reconnects)
	fmt.Printf("Duration:     %s\n", result.Duration)
	if result.StoragePath != "" {
		fmt.Printf("Published:    %s\n", result.StoragePath)
	}
	if result.PublishErr != nil {
		fmt.Printf("Publish Err:  %v\n", result.PublishErr)
	}

	fmt.Printf("\n=== Stream Stats ===\n")
	fmt.Printf("Events Total:     %d\n", result.Metrics.EventsReceived)
	names := make([]string, 0, len(result.Metrics.EventsByType))
	for name := range result.Metrics.EventsByType {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-22s %d\n", name+":", result.Metrics.EventsByType[name])
	}
	fmt.Printf("Images Swapped:   %d\n", result.Metrics.ImagesSwapped)
	if result.Metrics.DecodeErrors > 0 {
		fmt.Printf("Decode Errors:    %d\n", result.Metrics.DecodeErrors)
	}
	if result.Metrics.RecoverableErrors > 0 {
		fmt.Printf("Recoverable Errs: %d\n", result.Metrics.RecoverableErrors)
	}
	if result.Metrics.DecorationFailures > 0 {
		fmt.Printf("Decoration Fails: %d\n", result.Metrics.DecorationFailures)
	}
	if result.Metrics.PersistenceFailures > 0 {
		fmt.Printf("Persist Fails:    %d\n", result.Metrics.PersistenceFailures)
	}
}
