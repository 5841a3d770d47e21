package ignconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// commonPasswordsDoc is the shape of the YAML deny-list fixture: a flat
// list under a single top-level key, matching the rest of the padlokk
// tooling's convention of YAML for static structured fixtures (as
// opposed to TOML, reserved for operator-editable config).
type commonPasswordsDoc struct {
	CommonPasswords []string `yaml:"common_passwords"`
}

// LoadCommonPasswords reads the passphrase-strength deny-list from a
// YAML file. An empty path or a missing file yields a nil slice so
// callers fall back to the policy package's small built-in list.
func LoadCommonPasswords(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ignconfig: read common passwords file: %w", err)
	}
	var doc commonPasswordsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ignconfig: parse common passwords file: %w", err)
	}
	return doc.CommonPasswords, nil
}
