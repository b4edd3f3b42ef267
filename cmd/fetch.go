package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/filing-cli/internal/filing"
	"github.com/sells-group/filing-cli/pkg/edgar"
)

var (
	fetchTicker string
	fetchCIK    string
	fetchForm   string
	fetchOutput string
	fetchRaw    bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the latest filing for a company from EDGAR",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if fetchTicker == "" && fetchCIK == "" {
			return eris.New("either --ticker or --cik is required")
		}

		client := newEDGARClient()

		cik := fetchCIK
		if cik == "" {
			var err error
			cik, err = client.CIKForTicker(ctx, fetchTicker)
			if err != nil {
				return eris.Wrap(err, "resolve ticker")
			}
			zap.L().Info("resolved ticker", zap.String("ticker", fetchTicker), zap.String("cik", cik))
		}

		f, err := client.LatestFiling(ctx, cik, fetchForm)
		if err != nil {
			return err
		}
		zap.L().Info("found filing",
			zap.String("form", f.Form),
			zap.String("accession", f.AccessionNumber),
			zap.String("url", f.URL),
		)

		data, err := client.Download(ctx, f.URL)
		if err != nil {
			return err
		}

		text := string(data)
		if !fetchRaw && looksLikeHTML(f.PrimaryDocument, data) {
			text, err = filing.StripHTML(bytes.NewReader(data))
			if err != nil {
				return eris.Wrap(err, "strip html")
			}
		}

		if fetchOutput == "" {
			fmt.Fprintln(os.Stdout, text)
			return nil
		}
		if err := os.WriteFile(fetchOutput, []byte(text), 0644); err != nil {
			return eris.Wrapf(err, "write %s", fetchOutput)
		}
		zap.L().Info("filing saved", zap.String("path", fetchOutput), zap.Int("bytes", len(text)))
		return nil
	},
}

func newEDGARClient() *edgar.Client {
	return edgar.NewClient(edgar.Options{
		UserAgent:  cfg.EDGAR.UserAgent,
		Timeout:    time.Duration(cfg.EDGAR.TimeoutSecs) * time.Second,
		MaxRetries: cfg.EDGAR.MaxRetries,
	})
}

func looksLikeHTML(name string, data []byte) bool {
	if strings.HasSuffix(name, ".htm") || strings.HasSuffix(name, ".html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(data[:min(len(data), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype")) || bytes.HasPrefix(head, []byte("<html"))
}

func init() {
	fetchCmd.Flags().StringVar(&fetchTicker, "ticker", "", "stock ticker symbol")
	fetchCmd.Flags().StringVar(&fetchCIK, "cik", "", "10-digit CIK (skips ticker lookup)")
	fetchCmd.Flags().StringVar(&fetchForm, "form", "10-K", "form type to fetch")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output path (default stdout)")
	fetchCmd.Flags().BoolVar(&fetchRaw, "raw", false, "keep raw document, skip HTML stripping")
	rootCmd.AddCommand(fetchCmd)
}
