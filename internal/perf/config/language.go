package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Language identifies a target ecosystem under benchmark.
type Language string

const (
	Java   Language = "java"
	JS     Language = "js"
	Net    Language = "net"
	Python Language = "python"
	Cpp    Language = "cpp"
)

var AllLanguages = []Language{Java, JS, Net, Python, Cpp}

func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllLanguages {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown language %q, expected one of %v", s, AllLanguages)
}

// ParseLanguages parses a list of language names, accepting both separate
// arguments and comma or space separated values.
func ParseLanguages(values ...string) ([]Language, error) {
	var langs []Language
	for _, v := range values {
		for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			l, err := ParseLanguage(part)
			if err != nil {
				return nil, err
			}
			langs = append(langs, l)
		}
	}
	return langs, nil
}

func (l Language) String() string {
	return string(l)
}

func (l *Language) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseLanguage(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*l = parsed
	return nil
}
