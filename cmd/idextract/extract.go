package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/idextract/internal/pipeline"
)

var (
	extractText    string
	extractImage   string
	extractPersist bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract fields from one document and print them as JSON",
	Long: `Extract reads a PDF, image or text file, or raw text given with --text
("-" reads stdin), and prints the extraction result as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractText, "text", "", `OCR text to extract from ("-" for stdin)`)
	extractCmd.Flags().StringVar(&extractImage, "image", "", "document image used for classification alongside --text")
	extractCmd.Flags().BoolVar(&extractPersist, "persist", false, "record the extraction job in the database")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && extractText == "" && extractImage == "" {
		return errors.New("a file, --text or --image is required")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, extractPersist, extractPersist)
	if err != nil {
		return err
	}
	defer a.Close()

	out := json.NewEncoder(cmd.OutOrStdout())
	out.SetIndent("", "  ")

	if len(args) == 1 {
		res, err := a.processor.ProcessFile(ctx, args[0])
		if err != nil {
			return err
		}
		return out.Encode(res.Result)
	}

	text := extractText
	if text == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		text = string(b)
	}
	res, err := a.pipeline.Extract(ctx, pipeline.Input{Text: text, ImagePath: extractImage})
	if err != nil {
		return err
	}
	return out.Encode(res)
}
