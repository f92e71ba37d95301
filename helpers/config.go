package helpers

import (
	"time"

	"github.com/Jeffail/gabs"
	"github.com/pkg/errors"
)

// config Saves the bot-config
var config *gabs.Container

// LoadConfig loads the config from $path into $config
func LoadConfig(path string) error {
	json, err := gabs.ParseJSONFile(path)
	if err != nil {
		return errors.Wrapf(err, "loading config %s", path)
	}

	config = json
	return nil
}

// SetConfig replaces the loaded config
func SetConfig(container *gabs.Container) {
	config = container
}

// GetConfig is a config getter
func GetConfig() *gabs.Container {
	if config == nil {
		config = gabs.New()
	}
	return config
}

// ConfigString returns the string at $path or $fallback
func ConfigString(path, fallback string) string {
	if value, ok := GetConfig().Path(path).Data().(string); ok && value != "" {
		return value
	}
	return fallback
}

// ConfigInt returns the number at $path or $fallback
func ConfigInt(path string, fallback int) int {
	switch value := GetConfig().Path(path).Data().(type) {
	case float64:
		return int(value)
	case int:
		return value
	}
	return fallback
}

// ConfigBool returns the bool at $path or $fallback
func ConfigBool(path string, fallback bool) bool {
	if value, ok := GetConfig().Path(path).Data().(bool); ok {
		return value
	}
	return fallback
}

// ConfigDuration parses the duration string at $path, $fallback if missing or invalid
func ConfigDuration(path string, fallback time.Duration) time.Duration {
	value := ConfigString(path, "")
	if value == "" {
		return fallback
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return duration
}
