package main

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"tablekit/internal/probe"
)

var (
	probeName      string
	probeSheet     string
	probeDelimiter string
	probeBackend   string
	probeBytes     int
	probeOut       string
)

var probeCmd = &cobra.Command{
	Use:   "probe <data file>",
	Short: "Draft a column contract and starter recipe from a data file",
	Long: `Probe samples the file, infers a column contract (types, date layouts,
boolean spellings) and writes <name>.contract.json plus <name>.recipe.json
next to each other. The per-column summary goes to stdout as
"raw,normalized,type" lines.

The output is a skeleton for a human to edit, not a finished configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := probe.Options{
			Path:     args[0],
			MaxBytes: probeBytes,
			Sheet:    probeSheet,
			Name:     probeName,
			Backend:  probeBackend,
		}
		switch probeDelimiter {
		case "":
		case "tab", `\t`:
			opts.Delimiter = '\t'
		default:
			r, _ := utf8.DecodeRuneInString(probeDelimiter)
			if r == utf8.RuneError {
				return fmt.Errorf("unsupported --delimiter %q", probeDelimiter)
			}
			opts.Delimiter = r
		}

		res, err := probe.Run(opts)
		if err != nil {
			return err
		}

		cb, err := probe.MarshalContract(res.Contract)
		if err != nil {
			return err
		}
		rb, err := probe.MarshalRecipe(res.Recipe)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(probeOut, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		contractPath := filepath.Join(probeOut, res.Contract.Name+".contract.json")
		recipePath := filepath.Join(probeOut, res.Recipe.Name+".recipe.json")
		if err := os.WriteFile(contractPath, cb, 0o644); err != nil {
			return fmt.Errorf("write contract: %w", err)
		}
		if err := os.WriteFile(recipePath, rb, 0o644); err != nil {
			return fmt.Errorf("write recipe: %w", err)
		}

		fmt.Print(probe.RenderSummary(res))
		fmt.Fprintf(os.Stderr, "wrote %s and %s\n", contractPath, recipePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVar(&probeName, "name", "", "contract and recipe name (default derives from the file name)")
	probeCmd.Flags().StringVar(&probeSheet, "sheet", "", "XLSX worksheet to sample (default is the first sheet)")
	probeCmd.Flags().StringVar(&probeDelimiter, "delimiter", "", "CSV field delimiter, a single character or \"tab\" (default \",\")")
	probeCmd.Flags().StringVar(&probeBackend, "backend", "", "storage backend for the starter materialize sink: postgres, sqlite, mssql or mysql (default postgres)")
	probeCmd.Flags().IntVar(&probeBytes, "bytes", 0, "CSV sample size in bytes (default 64KiB)")
	probeCmd.Flags().StringVar(&probeOut, "out", ".", "directory to write the contract and recipe into")
}
