package tasks

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies a task payload into a struct using its json tags. Numbers
// that went through JSON arrive as float64 and are converted to the field
// type.
func Decode(payload map[string]any, dst any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           dst,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("payload decoder: %w", err)
	}
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
