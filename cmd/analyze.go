package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/filing-cli/internal/filing"
	"github.com/sells-group/filing-cli/internal/pipeline"
)

var (
	analyzeCompany string
	analyzeTicker  string
	analyzeForm    string
	analyzeJSON    bool
	analyzeNoStore bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run the full analysis pipeline on a filing",
	Long:  "Analyzes a filing from a local file, or fetches the latest filing from EDGAR when --ticker is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		company, err := analyzeCompanyName(analyzeCompany, analyzeTicker)
		if err != nil {
			return err
		}

		text, err := analyzeInput(ctx, analyzeTicker, args)
		if err != nil {
			return err
		}

		p, closeFn, err := buildPipeline(ctx, analyzeNoStore)
		if err != nil {
			return err
		}
		defer closeFn()

		result, err := p.Run(ctx, company, text)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		fmt.Fprint(os.Stdout, pipeline.FormatReport(result))
		return nil
	},
}

// analyzeCompanyName resolves the company identifier threaded through
// prompts and run records; a bare ticker serves as the fallback name.
func analyzeCompanyName(company, ticker string) (string, error) {
	if company != "" {
		return company, nil
	}
	if ticker != "" {
		return strings.ToUpper(ticker), nil
	}
	return "", eris.New("--company is required when analyzing a file")
}

// analyzeInput loads the filing text, either from EDGAR by ticker or from a
// local file, stripping HTML when the document looks like markup.
func analyzeInput(ctx context.Context, ticker string, args []string) (string, error) {
	if ticker != "" {
		client := newEDGARClient()

		cik, err := client.CIKForTicker(ctx, ticker)
		if err != nil {
			return "", eris.Wrap(err, "resolve ticker")
		}
		f, err := client.LatestFiling(ctx, cik, analyzeForm)
		if err != nil {
			return "", err
		}
		zap.L().Info("fetched filing for analysis",
			zap.String("ticker", ticker),
			zap.String("form", f.Form),
			zap.String("accession", f.AccessionNumber),
		)
		data, err := client.Download(ctx, f.URL)
		if err != nil {
			return "", err
		}
		if looksLikeHTML(f.PrimaryDocument, data) {
			return filing.StripHTML(bytes.NewReader(data))
		}
		return string(data), nil
	}

	if len(args) == 0 {
		return "", eris.New("a filing file or --ticker is required")
	}
	data, err := readInput(args[0])
	if err != nil {
		return "", err
	}
	if looksLikeHTML(args[0], data) {
		return filing.StripHTML(bytes.NewReader(data))
	}
	return string(data), nil
}

// buildPipeline wires a pipeline with or without persistence.
func buildPipeline(ctx context.Context, noStore bool) (*pipeline.Pipeline, func(), error) {
	if noStore {
		gen, embedder, err := initGenerator()
		if err != nil {
			return nil, nil, err
		}
		return pipeline.New(cfg, nil, gen, embedder), func() {}, nil
	}

	env, err := initPipeline(ctx)
	if err != nil {
		return nil, nil, err
	}
	return env.Pipeline, env.Close, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCompany, "company", "", "company name for prompts and run records (defaults to --ticker)")
	analyzeCmd.Flags().StringVar(&analyzeTicker, "ticker", "", "fetch the latest filing for this ticker from EDGAR")
	analyzeCmd.Flags().StringVar(&analyzeForm, "form", "10-K", "form type when fetching by ticker")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the full result as JSON instead of a report")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "skip run persistence")
	rootCmd.AddCommand(analyzeCmd)
}
