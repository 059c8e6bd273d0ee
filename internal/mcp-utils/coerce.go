// Package mcputils binds loosely typed MCP tool arguments onto request structs.
package mcputils

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ErrMissingArgument is returned when a required tool argument is absent or empty.
var ErrMissingArgument = errors.New("missing required argument")

// ArgumentGetter is an interface for getting arguments from a request
type ArgumentGetter interface {
	GetArguments() map[string]any
}

// Bind decodes request arguments into target using its json tags. Clients
// often send every value as a string, so "12", "true", "[3, 7]" and "3,7"
// decode into int, bool and []int fields, and non-empty strings reach fields
// implementing encoding.TextUnmarshaler. Keys listed in required must be
// present and non-empty.
func Bind[T any](request ArgumentGetter, target *T, required ...string) error {
	args := request.GetArguments()

	var missing []string
	for _, key := range required {
		v, ok := args[key]
		if !ok || v == nil {
			missing = append(missing, key)
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingArgument, strings.Join(missing, ", "))
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			textHook,
			jsonStringHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToWeakSliceHookFunc(","),
		),
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

var (
	textUnmarshaller    = mapstructure.TextUnmarshallerHookFunc()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// textHook decodes strings into encoding.TextUnmarshaler fields. A blank
// string leaves such a field at its zero value.
func textHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if s, ok := data.(string); ok && strings.TrimSpace(s) == "" {
		if reflect.PointerTo(t).Implements(textUnmarshalerType) {
			return reflect.Zero(t).Interface(), nil
		}
		return data, nil
	}
	return textUnmarshaller(f, t, data)
}

// jsonStringHook decodes JSON text held in a string when the target is a
// slice, map, struct, bool or number. Anything that does not parse is
// passed through for the later hooks.
func jsonStringHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}

	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return data, nil
	}

	switch k := t.Kind(); {
	case k == reflect.Slice:
		if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
			slicePtr := reflect.New(t)
			if err := json.Unmarshal([]byte(raw), slicePtr.Interface()); err == nil {
				return slicePtr.Elem().Interface(), nil
			}
		}

	case k == reflect.Map || k == reflect.Struct:
		if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
			var result any
			if err := json.Unmarshal([]byte(raw), &result); err == nil {
				return result, nil
			}
		}

	case k == reflect.Bool:
		if raw == "true" || raw == "false" {
			return raw == "true", nil
		}

	case k >= reflect.Int && k <= reflect.Float64:
		var n json.Number
		if err := json.Unmarshal([]byte(raw), &n); err == nil {
			// mapstructure converts json.Number to the field's type
			return n, nil
		}
	}

	return data, nil
}
