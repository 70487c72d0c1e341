package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKeys is returned when the keys file holds no usable line.
var ErrNoAPIKeys = errors.New("no API keys found")

// LoadAPIKeys reads one key per line. Surrounding whitespace and blank lines
// are ignored; order is preserved since sessions refer to keys by index.
func LoadAPIKeys(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open API keys: %w", err)
	}
	defer f.Close()

	var keys []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if k := strings.TrimSpace(sc.Text()); k != "" {
			keys = append(keys, k)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read API keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoAPIKeys)
	}
	return keys, nil
}
