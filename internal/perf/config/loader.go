package config

import (
	"fmt"
	"os"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"gopkg.in/yaml.v3"
)

func LoadInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	return ParseInput(data)
}

func ParseInput(data []byte) (*Input, error) {
	var in Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, apperr.NewConfigWrap("input", "parse YAML", err)
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	return &in, nil
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, apperr.NewConfigWrap("config", "parse YAML", err)
	}
	if c.WorkingDirectories == nil {
		c.WorkingDirectories = make(map[Language]string)
	}
	return &c, nil
}

func validateInput(in *Input) error {
	if len(in.Services) == 0 {
		return apperr.NewConfig("services", "input has no services")
	}
	for i, s := range in.Services {
		if s.Service == "" {
			return apperr.NewConfig("services", fmt.Sprintf("service at index %d has no name", i))
		}
		for _, sl := range s.Languages {
			if _, ok := in.Languages[sl.Language]; !ok {
				return apperr.NewConfig("services",
					fmt.Sprintf("service %q uses language %s which has no versions declared", s.Service, sl.Language))
			}
			if sl.Project == "" {
				return apperr.NewConfig("services",
					fmt.Sprintf("service %q language %s has no project", s.Service, sl.Language))
			}
			if sl.PrimaryPackage == "" {
				return apperr.NewConfig("services",
					fmt.Sprintf("service %q language %s has no primary package", s.Service, sl.Language))
			}
			for j, pv := range sl.PackageVersions {
				if _, ok := pv[sl.PrimaryPackage]; !ok {
					return apperr.NewConfig("services",
						fmt.Sprintf("service %q language %s package version set %d does not pin primary package %q",
							s.Service, sl.Language, j, sl.PrimaryPackage))
				}
			}
		}
		for j, t := range s.Tests {
			if t.Test == "" {
				return apperr.NewConfig("tests",
					fmt.Sprintf("service %q test at index %d has no name", s.Service, j))
			}
		}
	}
	return nil
}
