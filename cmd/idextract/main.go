// Command idextract extracts structured fields from identity document scans.
//
// Usage:
//
//	idextract extract scan.jpg            # one file, JSON on stdout
//	idextract extract --text "..."        # raw OCR text
//	idextract batch ./inbox --xlsx out.xlsx
//	idextract watch ./inbox               # process files as they arrive
//	idextract serve                       # gRPC + HTTP
//	idextract patterns validate fr.json
//	idextract dbhealth
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/idextract/internal/common"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	dbURL      string
	ocrEngine  string

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "idextract",
	Short:         "Extract fields from identity documents",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		c, err := common.LoadConfig(configFile)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("log-level") {
			c.Log.Level = logLevel
		}
		if flags.Changed("log-format") {
			c.Log.Format = logFormat
		}
		if flags.Changed("db-url") {
			c.Database.DSN = dbURL
		}
		if flags.Changed("ocr-engine") {
			c.OCR.Engine = ocrEngine
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c
		logger = newLogger(c.Log, os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	pf.StringVar(&logLevel, "log-level", "info", "debug | info | warn | error")
	pf.StringVar(&logFormat, "log-format", "json", "json | text")
	pf.StringVar(&dbURL, "db-url", "", "postgres:// URL or sqlite path; overrides DB_URL")
	pf.StringVar(&ocrEngine, "ocr-engine", common.EngineTesseract, "tesseract | gosseract | vision | none")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
