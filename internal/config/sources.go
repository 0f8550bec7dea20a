package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SourcesConfig tunes individual source adapters. Keys match registry
// source names. Zero values keep each adapter's built-in defaults.
type SourcesConfig struct {
	MindBody   MindBodyTuning   `yaml:"mindbody"`
	CrossFit   CrossFitTuning   `yaml:"crossfit"`
	GoogleMaps GoogleMapsTuning `yaml:"google_maps"`
	Hyrox      HyroxTuning      `yaml:"hyrox"`
	ClassPass  ClassPassTuning  `yaml:"classpass"`
}

// MindBodyTuning overrides the marketplace gateway search parameters.
type MindBodyTuning struct {
	APIURL       string  `yaml:"api_url"`
	PageSize     int     `yaml:"page_size"`
	RadiusMeters float64 `yaml:"radius_meters"`
}

// CrossFitTuning overrides the affiliate map parameters.
type CrossFitTuning struct {
	MapURL        string  `yaml:"map_url"`
	RadiusDeg     float64 `yaml:"radius_deg"`
	EnrichWorkers int     `yaml:"enrich_workers"`
}

// GoogleMapsTuning overrides the SerpAPI search parameters.
type GoogleMapsTuning struct {
	BaseURL  string   `yaml:"base_url"`
	Queries  []string `yaml:"queries"`
	MaxPages int      `yaml:"max_pages"`
}

// HyroxTuning overrides the gym locator parameters.
type HyroxTuning struct {
	AjaxURL      string  `yaml:"ajax_url"`
	MaxResults   int     `yaml:"max_results"`
	SearchRadius int     `yaml:"search_radius"`
	RadiusDeg    float64 `yaml:"radius_deg"`
}

// ClassPassTuning overrides the directory scrape parameters.
type ClassPassTuning struct {
	BaseURL         string `yaml:"base_url"`
	Scrolls         int    `yaml:"scrolls"`
	PageTimeoutSecs int    `yaml:"page_timeout_secs"`
}

// LoadSources reads the optional per-source tuning file. A missing file is
// not an error; adapter defaults apply.
func LoadSources(path string) (*SourcesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SourcesConfig{}, nil
		}
		return nil, eris.Wrapf(err, "config: read sources file %s", path)
	}

	var sc SourcesConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, eris.Wrapf(err, "config: parse sources file %s", path)
	}
	return &sc, nil
}
