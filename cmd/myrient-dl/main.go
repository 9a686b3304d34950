package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/WaffleThief123/myrient-downloader/internal/config"
	"github.com/WaffleThief123/myrient-downloader/internal/db"
	"github.com/WaffleThief123/myrient-downloader/internal/mirror"
	"github.com/WaffleThief123/myrient-downloader/internal/web"
	"github.com/WaffleThief123/myrient-downloader/pkg/regions"
	"github.com/WaffleThief123/myrient-downloader/pkg/utils"
	"github.com/WaffleThief123/myrient-downloader/pkg/version"
)

func main() {
	// Environment (and optional .env) provides the flag defaults; flags
	// given on the command line win.
	env := config.FromEnv()

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "print the version",
	}

	app := &cli.App{
		Name:    "myrient-dl",
		Usage:   "Mirror a remote HTML directory listing to local storage",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Crawl the remote tree and download everything not yet mirrored",
				Flags:  mirrorFlags(env),
				Action: runMirror,
			},
			{
				Name:   "count",
				Usage:  "Crawl only and print the number of files that would be downloaded",
				Flags:  mirrorFlags(env),
				Action: runCount,
			},
			{
				Name:  "status",
				Usage: "Show ledger statistics",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db-file",
						Usage: "SQLite ledger file path",
						Value: env.DBFile,
					},
				},
				Action: showStatus,
			},
			{
				Name:  "version",
				Usage: "Print detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Printf("Version:    %s\n", version.Version)
					fmt.Printf("Git commit: %s\n", version.GitCommit)
					fmt.Printf("Built:      %s\n", version.BuildTime)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func mirrorFlags(env config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "url",
			Aliases: []string{"u"},
			Usage:   "Base URL to mirror",
			Value:   env.BaseURL,
		},
		&cli.StringFlag{
			Name:    "download-dir",
			Aliases: []string{"d"},
			Usage:   "Directory to save downloaded files",
			Value:   env.DownloadDir,
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"t"},
			Usage:   "Number of concurrent download workers",
			Value:   env.Workers,
		},
		&cli.IntFlag{
			Name:  "timeout",
			Usage: "Per-request timeout in seconds",
			Value: int(env.Timeout / time.Second),
		},
		&cli.StringFlag{
			Name:  "db-file",
			Usage: "SQLite ledger file path",
			Value: env.DBFile,
		},
		&cli.StringFlag{
			Name:  "user-agent",
			Usage: "User agent string sent with every request",
			Value: env.UserAgent,
		},
		&cli.StringSliceFlag{
			Name:    "region",
			Aliases: []string{"r"},
			Usage:   "Restrict downloads to matching region tags (e.g. -r USA -r EU)",
		},
		&cli.IntFlag{
			Name:  "crawl-tolerance",
			Usage: "Number of failed directory listings tolerated before the run is considered failed",
			Value: env.CrawlTolerance,
		},
	}
}

func configFrom(c *cli.Context, env config.Config) (config.Config, error) {
	cfg := config.Config{
		BaseURL:        c.String("url"),
		DownloadDir:    c.String("download-dir"),
		Workers:        c.Int("workers"),
		Timeout:        time.Duration(c.Int("timeout")) * time.Second,
		DBFile:         c.String("db-file"),
		UserAgent:      c.String("user-agent"),
		CrawlTolerance: c.Int("crawl-tolerance"),
	}

	if raw := c.StringSlice("region"); len(raw) > 0 {
		cfg.Regions = regions.Normalize(raw)
	} else {
		cfg.Regions = regions.Normalize(env.Regions)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newMirrorer(cfg config.Config, ledger *db.DB) *mirror.Mirrorer {
	client := web.NewClient(web.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		PoolSize:  cfg.Workers,
	})
	return mirror.New(cfg, ledger, client)
}

func runMirror(c *cli.Context) error {
	cfg, err := configFrom(c, config.FromEnv())
	if err != nil {
		return err
	}

	ledger, err := db.New(cfg.DBFile)
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := newMirrorer(cfg, ledger).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Mirrored %d files (%s)\n", summary.Transferred, utils.FormatSize(summary.Bytes))
	return nil
}

func runCount(c *cli.Context) error {
	cfg, err := configFrom(c, config.FromEnv())
	if err != nil {
		return err
	}

	ledger, err := db.New(cfg.DBFile)
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	count, errs := newMirrorer(cfg, ledger).Count(ctx)
	fmt.Println(count)
	if len(errs) > cfg.CrawlTolerance {
		return fmt.Errorf("%d directory listings could not be crawled", len(errs))
	}
	return nil
}

func showStatus(c *cli.Context) error {
	ledger, err := db.New(c.String("db-file"))
	if err != nil {
		return err
	}
	defer ledger.Close()

	stats, err := ledger.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("Completed downloads: %d\n", stats.CompletedFiles)
	fmt.Printf("Total size:          %s\n", utils.FormatSize(stats.CompletedSize))
	return nil
}
