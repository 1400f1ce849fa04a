package cloudmc

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DecodeResult copies a resolved result into out, matching fields by their
// json tags. Use it to turn the generic JSON value returned by an operation
// into a typed struct or slice.
func DecodeResult(result any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}
