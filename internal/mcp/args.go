package mcp

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// analyzeArgs are the analyze_changes tool arguments.
type analyzeArgs struct {
	Base  string   `json:"base"`
	Head  string   `json:"head"`
	Paths []string `json:"paths"`
}

// bindArgs decodes raw tool arguments into target. Clients frequently send
// every value as a string, so JSON-encoded arrays ("[\"a\",\"b\"]") and
// comma separated lists are both accepted for slice fields.
func bindArgs(raw map[string]interface{}, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonArrayHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func jsonArrayHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return data, nil
	}

	out := reflect.New(to)
	if err := json.Unmarshal([]byte(raw), out.Interface()); err != nil {
		return data, nil
	}
	return out.Elem().Interface(), nil
}

// normalizePaths trims entries, converts separators and drops blanks.
func normalizePaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		p = strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(p), "\\", "/"), "./")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
