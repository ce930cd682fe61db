package config

// Source is the package version sentinel meaning "build from the local
// working tree" instead of installing a released package.
const Source = "source"

// Input is the service/test matrix document.
type Input struct {
	Languages map[Language]LanguageInfo `yaml:"languages"`
	Services  []ServiceInfo             `yaml:"services"`
}

type LanguageInfo struct {
	DefaultVersions  []string `yaml:"default_versions"`
	OptionalVersions []string `yaml:"optional_versions,omitempty"`
}

type ServiceInfo struct {
	Service   string           `yaml:"service"`
	Languages ServiceLanguages `yaml:"languages"`
	Tests     []TestInfo       `yaml:"tests"`
}

type ServiceLanguageInfo struct {
	Project             string              `yaml:"project"`
	PrimaryPackage      string              `yaml:"primary_package"`
	PackageVersions     []PackageVersionSet `yaml:"package_versions"`
	AdditionalArguments NamedArguments      `yaml:"additional_arguments,omitempty"`
}

type TestInfo struct {
	Test      string              `yaml:"test"`
	Arguments []string            `yaml:"arguments"`
	TestNames map[Language]string `yaml:"test_names"`
}

// PackageVersionSet maps a package name to the version under test.
type PackageVersionSet map[string]string

func (p PackageVersionSet) IsSource(pkg string) bool {
	return p[pkg] == Source
}

// Config is the environment document shared by every run on a host.
type Config struct {
	WorkingDirectories map[Language]string `yaml:"working_directories"`
}
