package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed dictionary.yaml
var defaultDictionary []byte

type PhonePattern struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

type DiscountKeyword struct {
	Reason   string   `yaml:"reason"`
	Rate     float64  `yaml:"rate"`
	Keywords []string `yaml:"keywords"`
}

// Dictionary is the raw form of the lookup tables. Consumers compile it
// into their own immutable values at construction time.
type Dictionary struct {
	Couriers         []string          `yaml:"couriers"`
	HeaderKeywords   []string          `yaml:"header_keywords"`
	PhonePatterns    []PhonePattern    `yaml:"phone_patterns"`
	DiscountKeywords []DiscountKeyword `yaml:"discount_keywords"`
}

// DefaultDictionary returns the embedded tables.
func DefaultDictionary() Dictionary {
	d, err := ParseDictionary(defaultDictionary)
	if err != nil {
		panic(fmt.Sprintf("embedded dictionary: %v", err))
	}
	return d
}

// LoadDictionary reads a YAML dictionary from path, or the embedded one when path is empty.
func LoadDictionary(path string) (Dictionary, error) {
	if path == "" {
		return DefaultDictionary(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Dictionary{}, fmt.Errorf("read dictionary: %w", err)
	}
	return ParseDictionary(b)
}

func ParseDictionary(b []byte) (Dictionary, error) {
	var d Dictionary
	if err := yaml.Unmarshal(b, &d); err != nil {
		return Dictionary{}, fmt.Errorf("parse dictionary: %w", err)
	}
	if len(d.PhonePatterns) == 0 {
		return Dictionary{}, fmt.Errorf("parse dictionary: no phone patterns")
	}
	return d, nil
}
