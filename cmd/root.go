package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chirplab/chirp/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "chirp",
	Short: "Ask questions and get answers sourced from X posts",
	Long: `Chirp turns a plain question into X search queries, gathers
matching posts, and asks an LLM to write an answer that cites them.

Pipeline: question → queries → search → dedupe → answer`,
}

var verbose bool

func init() {
	rootCmd.Version = "0.1.0"
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

func Execute() {
	// Credentials may live in a .env in the working directory or under
	// the config dir. Neither overrides variables already set.
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(config.Dir(), ".env"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
