package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jscyril/sonicstream/api"
	"github.com/jscyril/sonicstream/internal/audio"
	"github.com/jscyril/sonicstream/internal/catalog"
	"github.com/jscyril/sonicstream/internal/config"
	"github.com/jscyril/sonicstream/internal/logging"
	"github.com/jscyril/sonicstream/internal/playback"
	"github.com/jscyril/sonicstream/internal/thumbnail"
	"github.com/jscyril/sonicstream/internal/ui"
	"github.com/jscyril/sonicstream/pkg/events"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "sonicstream",
		Usage: "Search and stream tracks from a sonicstream backend in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the JSON config file",
				EnvVars: []string{config.EnvConfigPath},
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "backend base URL",
			},
			&cli.Float64Flag{
				Name:  "volume",
				Usage: "initial volume between 0 and 1",
			},
			&cli.BoolFlag{
				Name:  "loop",
				Usage: "start with loop enabled",
			},
			&cli.BoolFlag{
				Name:  "autoplay",
				Usage: "start cued tracks without waiting for a key press",
			},
			&cli.StringFlag{
				Name:  "track",
				Usage: "track to cue at startup",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Action: runPlayer,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Print the catalog matching a query",
				ArgsUsage: "[query]",
				Action:    runSearch,
			},
			{
				Name:      "thumbnail",
				Usage:     "Print the placeholder gradient for a track name",
				ArgsUsage: "<name>",
				Action:    runThumbnail,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers the config file, .env, environment and flags
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	path := c.String("config")
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.ApplyEnv()

	if v := c.String("backend"); v != "" {
		cfg.BackendURL = v
	}
	if c.IsSet("volume") {
		cfg.DefaultVolume = c.Float64("volume")
	}
	if c.IsSet("loop") {
		cfg.Loop = c.Bool("loop")
	}
	if c.IsSet("autoplay") {
		cfg.Autoplay = c.Bool("autoplay")
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runPlayer(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	closer, err := logging.Setup(cfg.LogLevel, cfg.LogPath())
	if err != nil {
		return err
	}
	defer closer.Close()

	client, err := catalog.NewClient(cfg.BackendURL, cfg.RequestTimeout())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	bus := events.NewEventBus()
	defer bus.Close()

	handle := audio.NewStreamHandle(bus, audio.Options{
		Client:   &http.Client{Timeout: cfg.RequestTimeout()},
		MaxBytes: cfg.MaxStreamBytes(),
		Volume:   cfg.DefaultVolume,
	})

	store := catalog.NewStore()
	searcher := catalog.NewSearcher(client, cfg.SearchDebounce(), nil)
	defer searcher.Close()

	controller := playback.NewController(handle, bus, store, client.StreamURL, playback.Options{
		Volume:   cfg.DefaultVolume,
		Loop:     cfg.Loop,
		Autoplay: cfg.Autoplay,
	})
	defer controller.Close()

	if track := c.String("track"); track != "" {
		if err := controller.Cue(api.Track(track)); err != nil {
			return err
		}
	}

	log.Info().Str("backend", cfg.BackendURL).Msg("starting sonicstream")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return handle.Run(gctx) })
	g.Go(func() error { return controller.Run(gctx) })
	g.Go(func() error {
		// Leaving the UI stops the other workers
		defer cancel()
		model := ui.NewModel(gctx, controller, searcher, store, ui.OptionsFromConfig(cfg))
		return ui.Run(gctx, model)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	log.Info().Msg("sonicstream stopped")
	return nil
}

func runSearch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := logging.Console(cfg.LogLevel); err != nil {
		return err
	}

	client, err := catalog.NewClient(cfg.BackendURL, cfg.RequestTimeout())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	query := strings.Join(c.Args().Slice(), " ")
	tracks, err := client.FetchCatalog(ctx, query)
	if err != nil {
		return err
	}
	for _, t := range tracks {
		fmt.Fprintln(c.App.Writer, t)
	}
	return nil
}

func runThumbnail(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("thumbnail needs a track name", 2)
	}
	name := strings.Join(c.Args().Slice(), " ")
	g := thumbnail.Generate(name)
	fmt.Fprintf(c.App.Writer, "%s\t%s\n", g.Color1, g.Color1.Hex())
	fmt.Fprintf(c.App.Writer, "%s\t%s\n", g.Color2, g.Color2.Hex())
	return nil
}
