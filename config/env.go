package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvString reads a non-empty string from the environment.
func EnvString(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer from the environment. The second return value
// reports whether the variable was set at all.
func EnvInt(name string) (int, bool, error) {
	value, ok := EnvString(name)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, true, fmt.Errorf("%s must be an integer, got %q", name, value)
	}
	return parsed, true, nil
}
