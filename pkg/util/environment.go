package util

import (
	"os"
	"strings"
)

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		if name, value, ok := strings.Cut(variable, "="); ok {
			environmentVariables[name] = value
		}
	}

	return environmentVariables
}

// GetEnvironmentVariable returns the value of name or fallback when it is unset or empty
func GetEnvironmentVariable(name string, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}

	return fallback
}
