package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Data source selectors.
const (
	SourceMongo = "mongo"
	SourceOData = "odata"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// DataSource picks the backing adapter at startup. It is read once
	// and never mutated afterwards.
	DataSource string `envconfig:"DATA_SOURCE" default:"mongo"`

	MongoURL string `envconfig:"MONGO_URL" default:"mongodb://localhost:27017"`
	DBName   string `envconfig:"DB_NAME" default:"warehouse"`

	ERPBaseURL     string        `envconfig:"ERP_BASE_URL"`
	ERPUsername    string        `envconfig:"ERP_USERNAME"`
	ERPPassword    string        `envconfig:"ERP_PASSWORD"`
	ERPBinResource string        `envconfig:"ERP_BIN_RESOURCE" default:"StorageBins"`
	ERPTimeout     time.Duration `envconfig:"ERP_TIMEOUT" default:"30s"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	switch cfg.DataSource {
	case SourceMongo, SourceOData:
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
	if cfg.DataSource == SourceOData && cfg.ERPBaseURL == "" {
		return nil, errors.New("erp base url must be provided for the odata data source")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
