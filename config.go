/*
	RegionTiles, renders block game worlds into map tiles
	Copyright (C) 2022 Maxim Zhuchkov

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.

	Contact me via mail: q3.max.2011@yandex.ru or Discord: MaX#6717
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type WatchConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Debounce string `json:"debounce" yaml:"debounce"`
}

type RegionTilesConfig struct {
	Input   string `json:"input" yaml:"input"`
	Output  string `json:"output" yaml:"output"`
	Threads *int   `json:"threads" yaml:"threads"`
	// signs are kept when their text starts with one of the prefixes or
	// matches one of the filters, no patterns keeps every sign
	SignPrefixes    []string    `json:"sign_prefixes" yaml:"sign_prefixes"`
	SignFilters     []string    `json:"sign_filters" yaml:"sign_filters"`
	BlocksLocation  string      `json:"blocks_location" yaml:"blocks_location"`
	BiomesLocation  string      `json:"biomes_location" yaml:"biomes_location"`
	LogsLocation    string      `json:"logs_location" yaml:"logs_location"`
	MetricsTextfile string      `json:"metrics_textfile" yaml:"metrics_textfile"`
	Watch           WatchConfig `json:"watch" yaml:"watch"`
}

func defaultConfig() RegionTilesConfig {
	threads := 1
	return RegionTilesConfig{
		Threads:      &threads,
		LogsLocation: "./logs/RegionTiles.log",
		Watch:        WatchConfig{Debounce: "5s"},
	}
}

func configPath(path string) string {
	if path == "" {
		path = os.Getenv("REGIONTILES_CONFIG")
	}
	return path
}

// loadConfig reads the config file over the defaults. Without a path
// the defaults are returned as is.
func loadConfig(path string) (RegionTilesConfig, error) {
	cfg := defaultConfig()
	path = configPath(path)
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	default:
		err = json.Unmarshal(b, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func (c RegionTilesConfig) threads() int {
	if c.Threads == nil {
		return 1
	}
	return *c.Threads
}

func (c RegionTilesConfig) watchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0
	}
	return d
}

func (c RegionTilesConfig) validate() error {
	if c.Input == "" {
		return errors.New("input directory is not set")
	}
	if c.Output == "" {
		return errors.New("output directory is not set")
	}
	if c.threads() < 0 {
		return fmt.Errorf("threads must not be negative, got %d", c.threads())
	}
	if c.Watch.Enabled {
		d, err := time.ParseDuration(c.Watch.Debounce)
		if err != nil {
			return fmt.Errorf("watch debounce: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("watch debounce must be positive, got %s", d)
		}
	}
	return nil
}
