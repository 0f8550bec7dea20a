package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gymscout/leads-cli/internal/config"
)

// sourceDescriptions maps registry names to one-line summaries for the
// listing. Keep in sync with buildRegistry.
var sourceDescriptions = map[string]string{
	"mindbody":    "MindBody marketplace gateway (yoga, pilates, gyms)",
	"crossfit":    "CrossFit affiliate map",
	"google_maps": "Google Maps local results via SerpAPI (needs serpapi.key)",
	"hyrox":       "HYROX training gym locator",
	"classpass":   "ClassPass city directory (browser-rendered)",
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the available lead sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		tuning, err := config.LoadSources(cfg.Scrape.SourcesFile)
		if err != nil {
			return err
		}

		reg := buildRegistry(tuning)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION")
		for _, name := range reg.AllNames() {
			fmt.Fprintf(w, "%s\t%s\n", name, sourceDescriptions[name])
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
