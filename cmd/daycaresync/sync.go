package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"daycaresync/pkg/config"
	"daycaresync/pkg/logger"
	"daycaresync/pkg/scraper"
	"daycaresync/pkg/ui"
)

var (
	// Sync command flags
	dateFrom        string
	dateTo          string
	mediaDir        string
	logDir          string
	credentialsFile string
	headless        bool
	skipPhotos      bool
	skipVideos      bool
	rateLimit       int
	maxRetries      int
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the activity feed and download new photos and videos",
	Long: `Fetch the Procare activity feed for every enrolled child and download
each photo and video into the media directory.

Authentication is resolved in order:
  - Cached token in the credentials file
  - Token store (keychain, encrypted file, or environment variable)
  - Fresh browser login using the username and password on file

Captions are embedded into the downloaded files: EXIF title for photos,
MP4 title tag for videos. Already-downloaded timestamps get a numeric
suffix rather than being overwritten.`,
	Example: `  # Download everything since enrollment
  daycaresync sync

  # Only a date range, into a specific directory
  daycaresync sync --from 2024-01-01 --to 2024-06-30 --media-dir ~/kids

  # Watch the browser log in
  daycaresync sync --headless=false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runSync(cmd)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&dateFrom, "from", "", "start date, YYYY-MM-DD (default: 2000-01-01)")
	syncCmd.Flags().StringVar(&dateTo, "to", "", "end date, YYYY-MM-DD (default: today)")
	syncCmd.Flags().StringVarP(&mediaDir, "media-dir", "o", "", "directory for downloaded media (default: ./photos)")
	syncCmd.Flags().StringVar(&logDir, "log-dir", "", "directory for activity log artifacts (default: ./logs)")
	syncCmd.Flags().StringVar(&credentialsFile, "credentials", "", "path to credentials.yml")
	syncCmd.Flags().BoolVar(&headless, "headless", true, "run the login browser headless")
	syncCmd.Flags().BoolVar(&skipPhotos, "skip-photos", false, "do not download photos")
	syncCmd.Flags().BoolVar(&skipVideos, "skip-videos", false, "do not download videos")
	syncCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "feed requests per minute (0 = default)")
	syncCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "download retry attempts (0 = default)")
}

func runSync(cmd *cobra.Command) {
	flags := make(map[string]interface{})
	if dateFrom != "" {
		flags["from"] = dateFrom
	}
	if dateTo != "" {
		flags["to"] = dateTo
	}
	if mediaDir != "" {
		flags["media-dir"] = mediaDir
	}
	if logDir != "" {
		flags["log-dir"] = logDir
	}
	if credentialsFile != "" {
		flags["credentials"] = credentialsFile
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if skipPhotos {
		flags["skip-photos"] = true
	}
	if skipVideos {
		flags["skip-videos"] = true
	}
	if rateLimit > 0 {
		flags["rate-limit"] = rateLimit
	}
	if maxRetries > 0 {
		flags["max-retries"] = maxRetries
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("daycaresync starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintInfo("Date range", cfg.Fetch.DateFrom+" to "+cfg.EffectiveDateTo())
	ui.PrintInfo("Media directory", cfg.Download.MediaDir)

	s, err := scraper.Build(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("Setup failed")
		ui.PrintError("Setup failed", err.Error())
		os.Exit(1)
	}

	summary, err := s.Run(ctx)
	printSummary(summary)
	if err != nil {
		log.WithError(err).Error("Sync failed")
		ui.PrintError("SYNC FAILED", err.Error())
		os.Exit(1)
	}

	log.InfoWithFields("Sync completed", map[string]interface{}{
		"downloaded": summary.Downloaded,
		"failed":     len(summary.Failures),
	})
	ui.PrintSuccess("Sync completed")
}

func printSummary(summary *scraper.Summary) {
	if summary == nil {
		return
	}
	fmt.Println()
	ui.PrintInfo("Children", fmt.Sprintf("%d", summary.Children))
	ui.PrintInfo("Feed records", fmt.Sprintf("%d", summary.Records))
	ui.PrintInfo("Media items", fmt.Sprintf("%d", summary.MediaItems))
	ui.PrintInfo("Downloaded", fmt.Sprintf("%d", summary.Downloaded))
	if summary.Skipped > 0 {
		ui.PrintInfo("Skipped", fmt.Sprintf("%d", summary.Skipped))
	}
	if summary.LogPath != "" {
		ui.PrintInfo("Activity log", summary.LogPath)
	}
	for _, f := range summary.Failures {
		ui.PrintWarning(fmt.Sprintf("failed: %s (%v)", f.Name, f.Err))
	}
}
