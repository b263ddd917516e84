package enums

import "fmt"

// OptionGroupType decides whether a group behaves like a radio or a checkbox set.
type OptionGroupType string

const (
	OptionGroupTypeSingle   OptionGroupType = "SINGLE"
	OptionGroupTypeMultiple OptionGroupType = "MULTIPLE"
)

var validOptionGroupTypes = []OptionGroupType{
	OptionGroupTypeSingle,
	OptionGroupTypeMultiple,
}

// String implements fmt.Stringer.
func (t OptionGroupType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known OptionGroupType.
func (t OptionGroupType) IsValid() bool {
	for _, candidate := range validOptionGroupTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOptionGroupType converts raw input into an OptionGroupType.
func ParseOptionGroupType(value string) (OptionGroupType, error) {
	for _, candidate := range validOptionGroupTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid option group type %q", value)
}
