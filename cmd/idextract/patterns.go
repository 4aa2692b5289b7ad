package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/idextract/internal/patterns"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and validate extraction patterns",
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the fields of every jurisdiction, including PATTERNS_DIR overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := patterns.New(patterns.Config{Dir: cfg.Extractor.PatternsDir}, logger)
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "JURISDICTION\tFIELD\tCANDIDATES\tVALIDATED\tSOURCE")
		for _, j := range reg.Jurisdictions() {
			for _, f := range reg.Fields(j) {
				rule, _ := reg.Lookup(j, f)
				fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\n", j, f, len(rule.Patterns()), rule.HasValidator(), rule.Source())
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		rep := reg.Report()
		skipped := make([]string, 0, len(rep.Skipped))
		for p := range rep.Skipped {
			skipped = append(skipped, p)
		}
		sort.Strings(skipped)
		for _, p := range skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", p, rep.Skipped[p])
		}
		return nil
	},
}

var patternsValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check pattern files against the schema and compile every expression",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, p := range args {
			n, err := patterns.ValidateFile(p)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", p, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d rules)\n", p, n)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files invalid", failed, len(args))
		}
		return nil
	},
}

var patternsSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of pattern files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(patterns.BuildFileJSONSchema())
	},
}

func init() {
	patternsCmd.AddCommand(patternsListCmd, patternsValidateCmd, patternsSchemaCmd)
	rootCmd.AddCommand(patternsCmd)
}
