package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/gymscout/leads-cli/pkg/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <city>",
	Short: "Resolve a city query and print the canonical location",
	Long:  `Resolves a raw location query ("Ashburn, VA") through Nominatim, exercising and populating the same cache scrape runs use.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		geo := geocode.NewClient(
			geocode.WithBaseURL(cfg.Geocode.BaseURL),
			geocode.WithUserAgent(cfg.Geocode.UserAgent),
			geocode.WithCacheFile(cfg.Geocode.CachePath),
		)

		loc, err := geo.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(loc)
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}
