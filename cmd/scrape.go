package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gymscout/leads-cli/internal/export"
	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/pkg/notion"
)

var (
	scrapeCity       string
	scrapeSources    []string
	scrapeOutput     string
	scrapeFormat     string
	scrapeHeaded     bool
	scrapeNoEnrich   bool
	scrapeSequential bool
	scrapeStore      bool
	scrapeNotion     bool
	scrapeNotionDB   string
	scrapeSalesforce bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape fitness facility leads for a city",
	Long:  `Fans the city out across the selected source directories, reconciles near-duplicate facilities, and writes a call-ready lead list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}
		if scrapeFormat != "csv" && scrapeFormat != "xlsx" {
			return eris.Errorf("unsupported format %q (want csv or xlsx)", scrapeFormat)
		}

		env, err := initScrapeEnv(ctx, scrapeStore || cfg.Store.Enabled)
		if err != nil {
			return err
		}
		defer env.Close()

		// Unknown source names fail before any network traffic.
		selected, err := env.Registry.Select(scrapeSources)
		if err != nil {
			return err
		}

		fmt.Printf("Geocoding: %s\n", scrapeCity)
		loc, err := env.Geo.Resolve(ctx, scrapeCity)
		if err != nil {
			return err
		}
		fmt.Printf("  -> %s, %s (%.4f, %.4f)\n", loc.City, loc.State, loc.Latitude, loc.Longitude)

		mode := "in parallel"
		if scrapeSequential {
			mode = "sequentially"
		}
		fmt.Printf("\nRunning %d scraper(s) %s...\n", len(selected), mode)

		run, unique, err := env.runScrape(ctx, loc, scrapeRequest{
			Query:      scrapeCity,
			Sources:    scrapeSources,
			Sequential: scrapeSequential,
			Headless:   !scrapeHeaded,
			Enrich:     !scrapeNoEnrich,
			Format:     scrapeFormat,
			Output:     scrapeOutput,
		})
		if err != nil {
			return err
		}

		formatScrapeSummary(os.Stdout, loc.Label(), run.Outcomes, unique, run.Output)

		if len(unique) > 0 {
			if err := pushSinks(cmd, unique); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeCity, "city", "", `city to search, e.g. "Ashburn, VA" (required)`)
	scrapeCmd.Flags().StringSliceVar(&scrapeSources, "sources", nil, "sources to scrape (default: all registered)")
	scrapeCmd.Flags().StringVar(&scrapeOutput, "output", "", "output path (default: output/<city-slug>-leads.<ext>)")
	scrapeCmd.Flags().StringVar(&scrapeFormat, "format", "csv", "output format: csv or xlsx")
	scrapeCmd.Flags().BoolVar(&scrapeHeaded, "headed", false, "run the browser visibly for debugging")
	scrapeCmd.Flags().BoolVar(&scrapeNoEnrich, "no-enrich", false, "skip detail-page visits that backfill phones and websites")
	scrapeCmd.Flags().BoolVar(&scrapeSequential, "sequential", false, "run sources one at a time instead of all at once")
	scrapeCmd.Flags().BoolVar(&scrapeStore, "store", false, "record the run in the run store")
	scrapeCmd.Flags().BoolVar(&scrapeNotion, "notion", false, "push leads to the Notion database from notion.lead_db")
	scrapeCmd.Flags().StringVar(&scrapeNotionDB, "notion-db", "", "Notion database ID to push leads into (implies --notion)")
	scrapeCmd.Flags().BoolVar(&scrapeSalesforce, "salesforce", false, "insert leads as Salesforce Lead records")
	_ = scrapeCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(scrapeCmd)
}

// pushSinks forwards the reconciled leads to the optional Notion and
// Salesforce destinations after the local file is already on disk.
func pushSinks(cmd *cobra.Command, leads []model.Lead) error {
	ctx := cmd.Context()

	if scrapeNotion || scrapeNotionDB != "" {
		dbID := scrapeNotionDB
		if dbID == "" {
			dbID = cfg.Notion.LeadDB
		}
		if dbID == "" {
			return eris.New("notion database ID is required (--notion-db or notion.lead_db)")
		}
		if cfg.Notion.Token == "" {
			return eris.New("notion token is required (LEADS_CLI_NOTION_TOKEN)")
		}

		sink := export.NewNotionSink(notion.NewClient(cfg.Notion.Token), dbID)
		created, err := sink.Push(ctx, leads)
		if err != nil {
			return eris.Wrap(err, "notion push")
		}
		fmt.Printf("  Notion: %d pages created\n", created)
	}

	if scrapeSalesforce {
		sfClient, err := initSalesforce()
		if err != nil {
			return err
		}

		sink := export.NewSalesforceSink(sfClient)
		inserted, err := sink.Push(ctx, leads)
		if err != nil {
			return eris.Wrap(err, "salesforce push")
		}
		fmt.Printf("  Salesforce: %d leads inserted\n", inserted)
	}

	return nil
}

// formatScrapeSummary renders the per-source results table. Every selected
// source appears, exhausted ones included, so partial failure stays visible.
func formatScrapeSummary(w io.Writer, label string, outcomes []model.Outcome, unique []model.Lead, outPath string) {
	fmt.Fprintf(w, "\n=== Results: %s ===\n", label)
	for _, o := range outcomes {
		fmt.Fprintf(w, "  %-12s %4d leads   (%d with phone)   %.0fs", o.Source, o.Leads, o.WithPhone, o.Elapsed.Seconds())
		if o.Status == model.SourceExhausted {
			fmt.Fprint(w, "   [exhausted]")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 47))
	fmt.Fprintf(w, "  %-12s %4d unique  (%d with phone)\n", "Total", len(unique), model.CountWithPhone(unique))

	if outPath != "" {
		fmt.Fprintf(w, "  Output: %s\n", outPath)
	} else {
		fmt.Fprintln(w, "\nNo leads found from any source.")
	}
}
