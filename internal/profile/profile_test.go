package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	p := &Profile{
		Mode:   "dev",
		Port:   8081,
		Data:   t.TempDir(),
		Driver: "sqlite",
	}

	err := p.Validate()
	require.NoError(t, err)

	assert.Equal(t, 5, p.QuizSize)
	assert.Equal(t, 7, p.QuizRetentionDays)
	assert.NotEmpty(t, p.DSN)
	assert.Contains(t, p.Version, "dev")
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	p := &Profile{
		Mode:   "dev",
		Port:   8081,
		Data:   t.TempDir(),
		Driver: "mysql",
	}

	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown db driver")
}

func TestValidatePostgresRequiresDSN(t *testing.T) {
	p := &Profile{
		Mode:   "prod",
		Port:   8081,
		Data:   t.TempDir(),
		Driver: "postgres",
	}

	err := p.Validate()
	require.Error(t, err)
}

func TestFromEnvPublishTimezones(t *testing.T) {
	t.Setenv("QUIZDECK_PUBLISH_TIMEZONES", "UTC, Asia/Tokyo ,America/New_York")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, []string{"UTC", "Asia/Tokyo", "America/New_York"}, p.PublishTimezones)
}

func TestFromEnvFlagPrecedence(t *testing.T) {
	t.Setenv("QUIZDECK_DRIVER", "postgres")

	p := &Profile{Driver: "sqlite"}
	p.FromEnv()

	assert.Equal(t, "sqlite", p.Driver)
}
