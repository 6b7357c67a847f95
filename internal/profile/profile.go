package profile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/quizdeck/quizdeck/internal/version"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where quizdeck stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your quizdeck instance
	InstanceURL string
	// Secret signs and verifies the bearer tokens the API accepts
	Secret string

	// Quiz engine configuration
	QuizSize          int      // QUIZDECK_QUIZ_SIZE (default: 5)
	QuizRetentionDays int      // QUIZDECK_QUIZ_RETENTION_DAYS (default: 7)
	PublishTimezones  []string // QUIZDECK_PUBLISH_TIMEZONES (comma-separated IANA names)
	SweepEnabled      bool     // QUIZDECK_SWEEP_ENABLED (default: true)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// FromEnv loads configuration from QUIZDECK_* environment variables.
// Flag values already present on the profile take precedence over env.
func (p *Profile) FromEnv() {
	if p.Secret == "" {
		p.Secret = os.Getenv("QUIZDECK_SECRET")
	}
	if p.DSN == "" {
		p.DSN = os.Getenv("QUIZDECK_DSN")
	}
	if p.Driver == "" {
		p.Driver = getEnvOrDefault("QUIZDECK_DRIVER", "sqlite")
	}
	if p.InstanceURL == "" {
		p.InstanceURL = os.Getenv("QUIZDECK_INSTANCE_URL")
	}

	p.QuizSize = getEnvInt("QUIZDECK_QUIZ_SIZE", 5)
	p.QuizRetentionDays = getEnvInt("QUIZDECK_QUIZ_RETENTION_DAYS", 7)
	p.SweepEnabled = getEnvBool("QUIZDECK_SWEEP_ENABLED", true)

	if tzs := os.Getenv("QUIZDECK_PUBLISH_TIMEZONES"); tzs != "" {
		for _, tz := range strings.Split(tzs, ",") {
			if tz = strings.TrimSpace(tz); tz != "" {
				p.PublishTimezones = append(p.PublishTimezones, tz)
			}
		}
	}
}

// Validate normalizes and validates the profile, filling derived defaults.
func (p *Profile) Validate() error {
	if p.Mode != "prod" && p.Mode != "dev" {
		p.Mode = "dev"
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	switch p.Driver {
	case "sqlite", "postgres":
	default:
		return errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", p.Driver)
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return errors.Wrap(err, "failed to check data directory")
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("quizdeck_%s.db", p.Mode)
		p.DSN = fmt.Sprintf("%s/%s", p.Data, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	if p.QuizSize <= 0 {
		p.QuizSize = 5
	}
	if p.QuizRetentionDays <= 0 {
		p.QuizRetentionDays = 7
	}

	p.Version = version.GetCurrentVersion(p.Mode)
	return nil
}

func checkDataDir(dataDir string) (string, error) {
	if dataDir == "" {
		dataDir = "."
	}
	dataDir = strings.TrimRight(dataDir, "/")

	fi, err := os.Stat(dataDir)
	if err != nil {
		return "", errors.Wrapf(err, "unable to access data directory %q", dataDir)
	}
	if !fi.IsDir() {
		return "", errors.Errorf("data path %q is not a directory", dataDir)
	}
	return dataDir, nil
}
