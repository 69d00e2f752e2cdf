package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tourlink/server/internal/offline"
)

var (
	serverURL string
	cachePath string
	cache     *offline.CacheStore
)

var rootCmd = &cobra.Command{
	Use:   "tourlink",
	Short: "TourLink guest client",
	Long: `TourLink guest client.

Log in with your booking reference and email. After a successful login
the tour pack is cached locally, so the schedule and driver contact stay
available without connectivity.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command
func Execute() {
	defer func() {
		if cache != nil {
			cache.Close()
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	path := cachePath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir := filepath.Join(home, ".tourlink")
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
		path = filepath.Join(dir, "cache.db")
	}

	var err error
	cache, err = offline.NewCacheStore(path)
	if err != nil {
		return fmt.Errorf("failed to open local cache: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:5000", "TourLink server URL")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "local cache database path")
}
