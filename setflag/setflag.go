// Package setflag is a flag.Value holding a set of choices from a fixed list,
// given either comma-separated or by repeating the flag.
package setflag

import (
	"fmt"
	"slices"
	"strings"
)

// New creates a SetFlag accepting the given options.
func New(options ...string) *SetFlag {
	sf := &SetFlag{
		values:  make(map[string]struct{}, len(options)),
		options: make(map[string]struct{}, len(options)),
	}
	for _, opt := range options {
		sf.options[opt] = struct{}{}
	}
	return sf
}

type SetFlag struct {
	options map[string]struct{}
	values  map[string]struct{}
}

// List returns the chosen values, sorted.
func (sf *SetFlag) List() []string {
	var values []string
	for k := range sf.values {
		values = append(values, k)
	}
	slices.Sort(values)
	return values
}

// Has reports whether value was chosen.
func (sf *SetFlag) Has(value string) bool {
	_, ok := sf.values[value]
	return ok
}

func (sf *SetFlag) String() string {
	if sf == nil {
		return ""
	}
	return strings.Join(sf.List(), ",")
}

func (sf *SetFlag) Set(value string) error {
	for _, value := range strings.Split(value, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := sf.options[value]; !exists {
			return fmt.Errorf("unsupported value '%s'", value)
		}
		sf.values[value] = struct{}{}
	}
	return nil
}
