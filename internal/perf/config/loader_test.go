package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const validInput = `
languages:
  Java:
    default_versions: ["8"]
    optional_versions: ["11"]
  net:
    default_versions: [net6.0, net8.0]

services:
  - service: storage-blob
    languages:
      net:
        project: sdk/storage/Azure.Storage.Blobs/perf/Azure.Storage.Blobs.Perf.csproj
        primary_package: Azure.Storage.Blobs
        package_versions:
          - Azure.Storage.Blobs: 12.10.0
            Azure.Core: 1.20.0
          - Azure.Storage.Blobs: source
            Azure.Core: source
      java:
        project: sdk/storage/azure-storage-perf
        primary_package: azure-storage-blob
        package_versions:
          - azure-storage-blob: source
        additional_arguments:
          warmup: 5
          duration: 15
    tests:
      - test: download
        arguments: ["--size 10240 --parallel 64"]
        test_names:
          net: DownloadB
          java: downloadblob
`

func TestParseInput(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		in, err := ParseInput([]byte(validInput))
		require.NoError(t, err)

		assert.Len(t, in.Languages, 2)
		assert.Equal(t, []string{"8"}, in.Languages[Java].DefaultVersions)
		assert.Equal(t, []string{"11"}, in.Languages[Java].OptionalVersions)

		require.Len(t, in.Services, 1)
		s := in.Services[0]
		assert.Equal(t, "storage-blob", s.Service)

		require.Len(t, s.Languages, 2)
		assert.Equal(t, Net, s.Languages[0].Language, "file order must be preserved")
		assert.Equal(t, Java, s.Languages[1].Language)

		netInfo, ok := s.Languages.Get(Net)
		require.True(t, ok)
		require.Len(t, netInfo.PackageVersions, 2)
		assert.Equal(t, "12.10.0", netInfo.PackageVersions[0]["Azure.Storage.Blobs"])
		assert.True(t, netInfo.PackageVersions[1].IsSource("Azure.Core"))

		javaInfo, ok := s.Languages.Get(Java)
		require.True(t, ok)
		assert.Equal(t, NamedArguments{{Name: "warmup", Value: "5"}, {Name: "duration", Value: "15"}},
			javaInfo.AdditionalArguments)

		require.Len(t, s.Tests, 1)
		assert.Equal(t, "DownloadB", s.Tests[0].TestNames[Net])
	})

	t.Run("no services", func(t *testing.T) {
		_, err := ParseInput([]byte("languages: {}\nservices: []\n"))
		require.Error(t, err)
		assert.True(t, apperr.IsConfig(err))
		assert.Contains(t, err.Error(), "no services")
	})

	t.Run("unknown language", func(t *testing.T) {
		_, err := ParseInput([]byte(`
languages:
  ruby:
    default_versions: ["3.2"]
services:
  - service: s
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown language")
	})

	t.Run("language without declared versions", func(t *testing.T) {
		_, err := ParseInput([]byte(`
languages:
  java:
    default_versions: ["8"]
services:
  - service: s
    languages:
      python:
        project: sdk/storage/azure-storage-blob
        primary_package: azure-storage-blob
        package_versions:
          - azure-storage-blob: source
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no versions declared")
	})

	t.Run("package version set missing primary package", func(t *testing.T) {
		_, err := ParseInput([]byte(`
languages:
  python:
    default_versions: ["3.11"]
services:
  - service: s
    languages:
      python:
        project: sdk/storage/azure-storage-blob
        primary_package: azure-storage-blob
        package_versions:
          - azure-core: 1.2.3
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not pin primary package")
	})

	t.Run("test without name", func(t *testing.T) {
		_, err := ParseInput([]byte(`
languages:
  python:
    default_versions: ["3.11"]
services:
  - service: s
    tests:
      - arguments: ["--size 1"]
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no name")
	})
}

func TestServiceLanguages_RoundTripKeepsOrder(t *testing.T) {
	in, err := ParseInput([]byte(validInput))
	require.NoError(t, err)

	out, err := yaml.Marshal(in.Services[0].Languages)
	require.NoError(t, err)

	var back ServiceLanguages
	require.NoError(t, yaml.Unmarshal(out, &back))
	require.Len(t, back, 2)
	assert.Equal(t, Net, back[0].Language)
	assert.Equal(t, Java, back[1].Language)
	assert.Equal(t, in.Services[0].Languages[1].AdditionalArguments, back[1].AdditionalArguments)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
working_directories:
  java: /src/azure-sdk-for-java
  python: /src/azure-sdk-for-python
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/src/azure-sdk-for-java", cfg.WorkingDirectories[Java])
	assert.Equal(t, "/src/azure-sdk-for-python", cfg.WorkingDirectories[Python])

	_, err = LoadConfig(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestParseLanguages(t *testing.T) {
	langs, err := ParseLanguages("Java,net", "PYTHON")
	require.NoError(t, err)
	assert.Equal(t, []Language{Java, Net, Python}, langs)

	_, err = ParseLanguages("go")
	assert.Error(t, err)
}
