package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/filing-cli/internal/filing"
)

var (
	parseFormat string
	parseNoHTML bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Segment a filing into its Part/Item hierarchy",
	Long:  "Reads a filing from a file (or stdin when the path is \"-\"), strips HTML if present, cleans boilerplate, and prints the recovered Part/Item structure.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[0])
		if err != nil {
			return err
		}

		text := string(data)
		if !parseNoHTML && looksLikeHTML(args[0], data) {
			text, err = filing.StripHTML(bytes.NewReader(data))
			if err != nil {
				return eris.Wrap(err, "strip html")
			}
		}

		cleaned := filing.NewCleaner().Clean(text)
		hierarchy := filing.Segment(cleaned)
		zap.L().Info("segmented filing",
			zap.Int("parts", len(hierarchy)),
			zap.Int("items", hierarchy.ItemCount()),
		)

		return writeHierarchy(os.Stdout, hierarchy, parseFormat)
	},
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, eris.Wrap(err, "read stdin")
	}
	data, err := os.ReadFile(path)
	return data, eris.Wrapf(err, "read %s", path)
}

func writeHierarchy(w io.Writer, h filing.Hierarchy, format string) error {
	switch format {
	case "text":
		return filing.WriteFormatted(w, h)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(h)
	default:
		return eris.Errorf("unsupported format: %s", format)
	}
}

func init() {
	parseCmd.Flags().StringVar(&parseFormat, "format", "text", "output format: text, json, or yaml")
	parseCmd.Flags().BoolVar(&parseNoHTML, "no-html", false, "skip HTML detection and stripping")
	rootCmd.AddCommand(parseCmd)
}
