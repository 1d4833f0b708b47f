package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var (
	ErrNoAPIKey    = errors.New("no API key provided and no defaults.json with " + APIKeyField + " found")
	ErrNoOperators = errors.New("no operators found")
	ErrInvalid     = errors.New("invalid options")
)

// LoadEnv pulls a local .env into the environment if one exists.
func LoadEnv() {
	_ = godotenv.Load()
}

// BaseURLFromEnv returns ODPT_BASE_URL or the public challenge endpoint.
func BaseURLFromEnv() string {
	if v := os.Getenv(BaseURLEnv); v != "" {
		return v
	}
	return DefaultBaseURL
}

// FindConfigFile walks from start up through at most maxDepth directories
// and returns the first defaults.json that carries a non-empty key.
func FindConfigFile(start string, maxDepth int) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}

	for i := 0; i < maxDepth; i++ {
		candidate := filepath.Join(dir, DefaultConfigName)
		if key, err := ReadAPIKey(candidate); err == nil && key != "" {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}

// ReadAPIKey reads ODPT_API_KEY from a defaults.json file.
func ReadAPIKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var cfg defaultsFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}

	return strings.TrimSpace(cfg.APIKey), nil
}

// ResolveAPIKey applies the key precedence: explicit argument, then
// defaults.json found from searchStart. The ODPT_API_KEY environment
// variable is only consulted when allowEnv is set.
func ResolveAPIKey(arg, searchStart string, allowEnv bool) (string, error) {
	if arg != "" {
		return arg, nil
	}

	if path, ok := FindConfigFile(searchStart, MaxParentDirs); ok {
		return ReadAPIKey(path)
	}

	if allowEnv {
		if key := strings.TrimSpace(os.Getenv(APIKeyField)); key != "" {
			return key, nil
		}
	}

	return "", ErrNoAPIKey
}

// ReadOperatorsFile returns the operator identifiers in file order,
// skipping blank lines and # comments. Duplicates are kept.
func ReadOperatorsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: operators file not found at %s", ErrNoOperators, path)
		}
		return nil, fmt.Errorf("open operators file: %w", err)
	}
	defer f.Close()

	var operators []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, OperatorsCommentCh) {
			continue
		}
		operators = append(operators, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read operators file: %w", err)
	}

	if len(operators) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoOperators, path)
	}

	return operators, nil
}

// Validate checks the assembled options and normalises the base URL.
func Validate(opts *Options) error {
	if opts.APIKey == "" {
		return ErrNoAPIKey
	}

	if err := validator.New().Struct(opts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/") + "/"
	return nil
}
