package cfg

import (
	"fmt"
	"os"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
	"gopkg.in/yaml.v3"
)

// LoadCredentials reads forum credentials from a YAML (or JSON) file.
func LoadCredentials(path string) (forum.Credentials, error) {
	var creds forum.Credentials

	data, err := os.ReadFile(path)
	if err != nil {
		return creds, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	return creds, nil
}
