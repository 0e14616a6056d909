// internal/platform/registry/helpers.go
package registry

import (
	"fmt"
	"strconv"
	"time"
)

// Helpers para leer CollectorConfig.Custom desde las factories. Custom
// llega tanto de YAML (int, string) como de JSON (float64), por eso cada
// helper acepta varias representaciones y cae al default si no encaja.

// GetStringConfig extrae un string no vacío o retorna el default.
func GetStringConfig(custom map[string]interface{}, key, defaultValue string) string {
	if val, ok := custom[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

// GetIntConfig extrae un int (int, int64, float64 o string numérico).
func GetIntConfig(custom map[string]interface{}, key string, defaultValue int) int {
	switch val := custom[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultValue
}

// GetBoolConfig extrae un bool (bool o string "true"/"false").
func GetBoolConfig(custom map[string]interface{}, key string, defaultValue bool) bool {
	switch val := custom[key].(type) {
	case bool:
		return val
	case string:
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetDurationConfig extrae una duración. Acepta time.Duration, enteros o
// float64 en nanosegundos y strings como "5s".
func GetDurationConfig(custom map[string]interface{}, key string, defaultValue time.Duration) time.Duration {
	switch val := custom[key].(type) {
	case time.Duration:
		return val
	case int64:
		return time.Duration(val)
	case float64:
		return time.Duration(val)
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetSliceConfig extrae un []string ([]string o []interface{} de strings).
func GetSliceConfig(custom map[string]interface{}, key string, defaultValue []string) []string {
	switch val := custom[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultValue
			}
			out = append(out, s)
		}
		return out
	}
	return defaultValue
}

// GetValue extrae un valor de tipo arbitrario (ej: una dependencia
// compartida como ports.ThreatCache inyectada por el composition root).
func GetValue[T any](custom map[string]interface{}, key string) (T, bool) {
	val, ok := custom[key].(T)
	return val, ok
}

// ValidateRequiredString valida que un campo obligatorio no esté vacío.
func ValidateRequiredString(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required and cannot be empty", fieldName)
	}
	return nil
}

// ValidatePositiveDuration valida que una duración sea positiva.
func ValidatePositiveDuration(fieldName string, value time.Duration) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive, got %v", fieldName, value)
	}
	return nil
}
