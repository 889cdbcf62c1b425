package model

import (
	"github.com/go-viper/mapstructure/v2"
)

// decodeField weakly decodes raw[key] into target. A missing key or a value
// that cannot be converted leaves target untouched and reports false.
func decodeField(raw map[string]any, key string, target any) bool {
	value, present := raw[key]
	if !present || value == nil {
		return false
	}
	return mapstructure.WeakDecode(value, target) == nil
}

func decodeString(raw map[string]any, key string) string {
	var value string
	if !decodeField(raw, key, &value) {
		return ""
	}
	return value
}
