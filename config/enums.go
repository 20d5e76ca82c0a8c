package config

import (
	"fmt"
)

// Specification of requested target schema.
type TargetSchema int

const (
	TargetSchemaElementor TargetSchema = iota
)

func (t TargetSchema) String() string {
	switch t {
	case TargetSchemaElementor:
		return "elementor"
	default:
		return fmt.Sprintf("TargetSchema(%d)", int(t))
	}
}

// TargetSchemaNames returns names of all supported target schemas.
func TargetSchemaNames() []string {
	return []string{TargetSchemaElementor.String()}
}

// ParseTargetSchema converts schema name into TargetSchema value.
func ParseTargetSchema(name string) (TargetSchema, error) {
	switch name {
	case "elementor", "":
		return TargetSchemaElementor, nil
	default:
		return 0, fmt.Errorf("%s is not a valid TargetSchema", name)
	}
}

// MarshalYAML implements yaml.Marshaler interface.
func (t TargetSchema) MarshalYAML() (any, error) {
	return t.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (t *TargetSchema) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	v, err := ParseTargetSchema(name)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
