package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mitenedl/pkg/auth"
	"mitenedl/pkg/config"
	"mitenedl/pkg/logger"
	"mitenedl/pkg/pipeline"
	"mitenedl/pkg/ui"
)

var (
	// Download command flags
	outputDir       string
	concurrent      int
	rateLimit       int
	password        string
	downloadTimeout time.Duration
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <album-url>",
	Short: "Download all media from an album",
	Long: `Download every photo and video from the album at the given URL.

Already-downloaded files are skipped, so an interrupted run can simply be
started again. Password-protected albums use the password from, in order:
  - the --password flag
  - the MITENEDL_ALBUM_PASSWORD environment variable
  - a password stored with 'mitenedl auth save'`,
	Example: `  # Download an album into ./out
  mitenedl download https://media-asset.example.com/f/abcd1234

  # Custom output directory and concurrency
  mitenedl download https://media-asset.example.com/f/abcd1234 --output ./album --concurrent 8

  # Password-protected album
  mitenedl download https://media-asset.example.com/f/abcd1234 --password hunter2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runDownload(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default: out)")
	downloadCmd.Flags().IntVar(&concurrent, "concurrent", 4, "number of concurrent downloads")
	downloadCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute (0 disables pacing)")
	downloadCmd.Flags().StringVarP(&password, "password", "p", "", "album password")
	downloadCmd.Flags().DurationVar(&downloadTimeout, "download-timeout", 30*time.Minute, "per-request timeout")
}

// downloadFlags builds the flag overrides for config.Load. Only flags the
// user actually set on the command line are included, so environment
// variables and config file values are not clobbered by flag defaults.
func downloadFlags(cmd *cobra.Command, albumURL string) map[string]interface{} {
	flags := map[string]interface{}{
		"album-url": albumURL,
	}

	set := cmd.Flags()
	if set.Changed("output") {
		flags["output"] = outputDir
	}
	if set.Changed("concurrent") {
		flags["concurrent"] = concurrent
	}
	if set.Changed("rate-limit") {
		flags["requests-per-minute"] = rateLimit
	}
	if set.Changed("password") {
		flags["password"] = password
	}
	if set.Changed("download-timeout") {
		flags["download-timeout"] = downloadTimeout
	}
	if set.Changed("verbose") {
		flags["verbose"] = verbose
	}
	if set.Changed("log-level") {
		flags["log-level"] = logLevel
	}

	return flags
}

func runDownload(cmd *cobra.Command, args []string) {
	albumURL := strings.TrimSpace(args[0])

	cfg, err := config.Load(configFile, downloadFlags(cmd, albumURL))
	if err != nil {
		ui.PrintError("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging: %v", err)
		os.Exit(1)
	}
	logger.WithField("version", version).Info("mitenedl starting")

	// Fall back to a stored password when none was given explicitly
	if cfg.Album.Password == "" {
		if manager, err := auth.NewManager(); err == nil {
			if cred, err := manager.Retrieve(cfg.Album.URL); err == nil {
				cfg.Album.Password = cred.Password
				logger.WithField("album", cfg.Album.URL).Info("using stored album password")
			}
		}
	}

	ui.PrintInfo("Album", cfg.Album.URL)
	ui.PrintInfo("Output", cfg.Output.Directory)

	p, err := pipeline.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize: %v", err)
		os.Exit(1)
	}

	if err := p.Run(); err != nil {
		logger.WithError(err).WithField("album", cfg.Album.URL).Error("download failed")
		ui.PrintError("Download failed: %v", err)
		os.Exit(1)
	}

	logger.WithField("album", cfg.Album.URL).Info("download completed")
	ui.PrintSuccess("Album download complete")
}
