package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ServiceLanguage is one entry of a service's language mapping. The mapping is
// decoded into a slice so that execution follows file order.
type ServiceLanguage struct {
	Language Language
	ServiceLanguageInfo
}

type ServiceLanguages []ServiceLanguage

func (s ServiceLanguages) Get(l Language) (ServiceLanguageInfo, bool) {
	for _, sl := range s {
		if sl.Language == l {
			return sl.ServiceLanguageInfo, true
		}
	}
	return ServiceLanguageInfo{}, false
}

func (s *ServiceLanguages) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: languages must be a mapping", value.Line)
	}
	out := make(ServiceLanguages, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var sl ServiceLanguage
		if err := value.Content[i].Decode(&sl.Language); err != nil {
			return err
		}
		if err := value.Content[i+1].Decode(&sl.ServiceLanguageInfo); err != nil {
			return fmt.Errorf("language %s: %w", sl.Language, err)
		}
		out = append(out, sl)
	}
	*s = out
	return nil
}

func (s ServiceLanguages) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, sl := range s {
		var v yaml.Node
		if err := v.Encode(sl.ServiceLanguageInfo); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: sl.Language.String()}, &v)
	}
	return node, nil
}

// NamedArgument is a fixed "--name value" pair appended to test invocations.
type NamedArgument struct {
	Name  string
	Value string
}

type NamedArguments []NamedArgument

func (a *NamedArguments) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: additional_arguments must be a mapping", value.Line)
	}
	out := make(NamedArguments, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: value of %q must be a scalar", v.Line, k.Value)
		}
		out = append(out, NamedArgument{Name: k.Value, Value: v.Value})
	}
	*a = out
	return nil
}

func (a NamedArguments) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, arg := range a {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: arg.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: arg.Value})
	}
	return node, nil
}
