package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/kramano/log-export/errors"
)

// envRef matches ${VAR} references. Bare $VAR and stray dollar signs (for
// example inside a database password) are left untouched.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads a JSON configuration file, applies defaults for unset fields,
// expands ${VAR} references from the environment, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "Loader", "Load", "read config file")
	}
	return Parse(data)
}

// Parse decodes JSON configuration bytes on top of the defaults. A ${VAR}
// reference to an unset environment variable is a configuration error, not
// an empty string.
func Parse(data []byte) (*Config, error) {
	expanded, err := expandEnv(data)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(expanded, cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "Parse", "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func expandEnv(data []byte) ([]byte, error) {
	var missing []string
	out := envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		name := string(ref[2 : len(ref)-1])
		value, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return ref
		}
		return []byte(value)
	})

	if len(missing) > 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("unset environment variables: %s", strings.Join(missing, ", ")),
			"Loader", "expandEnv", "expand config references")
	}
	return out, nil
}
