package config

import "fmt"

// UnmarshalYAML accepts prompt_match either as a bare regex string or as a
// structured object {patterns, mode, case_insensitive, anchor}.
func (p *PromptMatch) UnmarshalYAML(unmarshal func(any) error) error {
	var asString string
	if err := unmarshal(&asString); err == nil {
		p.Patterns = []string{asString}
		p.Mode = "any"
		p.Anchor = AnchorAnywhere
		return nil
	}

	var obj struct {
		Patterns        []string `yaml:"patterns"`
		Mode            string   `yaml:"mode"`
		CaseInsensitive bool     `yaml:"case_insensitive"`
		Anchor          string   `yaml:"anchor"`
	}
	if err := unmarshal(&obj); err != nil {
		return fmt.Errorf("prompt_match: %w", err)
	}
	p.Patterns = obj.Patterns
	p.Mode = obj.Mode
	if p.Mode == "" {
		p.Mode = "any"
	}
	p.CaseInsensitive = obj.CaseInsensitive
	p.Anchor = Anchor(obj.Anchor)
	if p.Anchor == "" {
		p.Anchor = AnchorAnywhere
	}
	return nil
}

// UnmarshalYAML accepts block_if_match either as a bare regex string or as a
// list of regexes.
func (s *StringOrList) UnmarshalYAML(unmarshal func(any) error) error {
	var asString string
	if err := unmarshal(&asString); err == nil {
		s.Patterns = []string{asString}
		return nil
	}
	var asList []string
	if err := unmarshal(&asList); err != nil {
		return fmt.Errorf("block_if_match: %w", err)
	}
	s.Patterns = asList
	return nil
}
