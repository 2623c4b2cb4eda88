package utils

import (
	"fmt"
	"os"
	"strings"
)

// UpdateEnvValues rewrites KEY=VALUE lines in the given dotenv file, appending
// keys that are not present yet. Used to persist refreshed QuickBooks tokens
// so the next run picks them up.
func UpdateEnvValues(path string, values map[string]string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")
	seen := make(map[string]bool, len(values))
	for i, line := range lines {
		for key, value := range values {
			if strings.HasPrefix(line, key+"=") {
				lines[i] = fmt.Sprintf("%s=%s", key, value)
				seen[key] = true
			}
		}
	}
	for key, value := range values {
		if !seen[key] {
			lines = append(lines, fmt.Sprintf("%s=%s", key, value))
		}
	}

	out := strings.Join(lines, "\n")
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return os.WriteFile(path, []byte(out), 0o600)
}
