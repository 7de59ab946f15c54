package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/decoder"
	"github.com/wonny/stockdash/internal/introspect"
	"github.com/wonny/stockdash/pkg/logger"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Decode a local file and print its option lists",
	Long: `Decode a CSV or XLSX file the same way the upload endpoint does and
print the distinct values of every column.

Example:
  go run ./cmd/stockdash inspect prices.csv
  go run ./cmd/stockdash inspect prices.xlsx --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var (
	inspectFormat   string
	inspectMaxBytes int64
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectFormat, "format", "json", "output format (json|yaml)")
	inspectCmd.Flags().Int64Var(&inspectMaxBytes, "max-bytes", 32<<20, "largest accepted file size")
}

func runInspect(cmd *cobra.Command, args []string) error {
	files, err := readFiles(args)
	if err != nil {
		return err
	}

	ds, err := decoder.New(inspectMaxBytes, logger.Nop()).Decode(files[0])
	if err != nil {
		return err
	}

	opts, err := introspect.Introspect(ds)
	if err != nil {
		return err
	}

	return writeOptions(cmd.OutOrStdout(), opts, inspectFormat)
}

// columnOptions is one column's option list in schema order
type columnOptions struct {
	Column  string              `json:"column" yaml:"column"`
	Options []introspect.Option `json:"options" yaml:"options"`
}

// writeOptions prints opts in schema column order
func writeOptions(w io.Writer, opts introspect.Options, format string) error {
	lists := opts.Lists()
	out := make([]columnOptions, 0, len(lists))
	for i, c := range contracts.Columns {
		out = append(out, columnOptions{Column: string(c), Options: lists[i]})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (json|yaml)", format)
	}
}

// readFiles loads local files into the upload wire form
func readFiles(paths []string) ([]decoder.File, error) {
	files := make([]decoder.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, decoder.NewFile(filepath.Base(p), data))
	}
	return files, nil
}
