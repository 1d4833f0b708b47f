package config

import "time"

const (
	DefaultBaseURL     = "https://api-challenge.odpt.org/api/v4/"
	DefaultTimeout     = 30 * time.Second
	DefaultConfigName  = "defaults.json"
	DefaultOperators   = "operators.txt"
	MaxParentDirs      = 5
	APIKeyField        = "ODPT_API_KEY"
	BaseURLEnv         = "ODPT_BASE_URL"
	OperatorsCommentCh = "#"
)

// Options is everything one run needs once the key has been resolved.
type Options struct {
	APIKey        string `validate:"required"`
	BaseURL       string `validate:"required,url"`
	OperatorsFile string `validate:"required"`
	Output        string
	Pretty        bool
	GeoJSON       bool
	Timeout       time.Duration `validate:"gt=0"`
}

// defaultsFile is the shape of defaults.json. Other keys are ignored.
type defaultsFile struct {
	APIKey string `json:"ODPT_API_KEY"`
}
