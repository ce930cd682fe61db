package sink

import (
	"fmt"
	"os"
	"strings"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/sink/es"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/sink/pg"
	"github.com/DjordjeVuckovic/perf-automation/pkg/stringsutil"
)

type Type string

const (
	PG Type = "pg"
	ES Type = "es"
)

const defaultIndexName = "perf-results"

type Config struct {
	Types []Type
	Pg    *pg.PoolConfig
	Es    *es.ClientConfig
}

// LoadEnv reads sink settings from the environment. PERF_SINKS unset or empty
// means no sinks.
func LoadEnv() (*Config, error) {
	return loadEnv(os.Getenv)
}

func loadEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	for _, raw := range stringsutil.SplitList(getenv("PERF_SINKS")) {
		t := Type(strings.ToLower(raw))
		switch t {
		case PG, ES:
		default:
			return nil, apperr.NewConfig("PERF_SINKS",
				fmt.Sprintf("invalid sink %q, expected one of %v", raw, []Type{PG, ES}))
		}
		if cfg.has(t) {
			continue
		}
		cfg.Types = append(cfg.Types, t)
	}

	if cfg.has(PG) {
		cfg.Pg = &pg.PoolConfig{ConnStr: getenv("PERF_PG_CONNECTION_STRING")}
		if cfg.Pg.ConnStr == "" {
			return nil, apperr.NewConfig("PERF_PG_CONNECTION_STRING", "required when the pg sink is enabled")
		}
	}

	if cfg.has(ES) {
		cfg.Es = &es.ClientConfig{
			Addresses: stringsutil.SplitList(getenv("PERF_ES_ADDRESSES")),
			IndexName: getenv("PERF_ES_INDEX"),
			Username:  getenv("PERF_ES_USERNAME"),
			Password:  getenv("PERF_ES_PASSWORD"),
		}
		if len(cfg.Es.Addresses) == 0 {
			return nil, apperr.NewConfig("PERF_ES_ADDRESSES", "required when the es sink is enabled")
		}
		if cfg.Es.IndexName == "" {
			cfg.Es.IndexName = defaultIndexName
		}
	}

	return cfg, nil
}

func (c *Config) has(t Type) bool {
	for _, existing := range c.Types {
		if existing == t {
			return true
		}
	}
	return false
}
