package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"NADLAN_BASE_URL", "NADLAN_REQUEST_DELAY", "NADLAN_MAX_RETRIES",
		"YAD2_FEED_URL", "SERVER_PORT", "SCRAPERAPI_KEY",
	} {
		t.Setenv(key, "") // registers restoration of any ambient value
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Nadlan.MaxRetries)
	assert.Equal(t, 2, cfg.Nadlan.RequestDelay)
	assert.Equal(t, "5250", cfg.Server.Port)
	assert.NotEmpty(t, cfg.AI.Model)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("NADLAN_BASE_URL", "http://localhost:9999")
	t.Setenv("NADLAN_MAX_RETRIES", "5")
	t.Setenv("SERVER_PORT", "8080")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", cfg.Nadlan.BaseURL)
	assert.Equal(t, 5, cfg.Nadlan.MaxRetries)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestCityCodes(t *testing.T) {
	assert.Equal(t, "5000", CityCodes["תל אביב"])
	assert.Equal(t, "3000", CityCodes["ירושלים"])
	_, ok := CityCodes["עיר שלא קיימת"]
	assert.False(t, ok)
}

func TestPropertyTypeCodes(t *testing.T) {
	assert.Equal(t, "1", PropertyTypeCodes["דירה"])
	assert.Equal(t, "4", PropertyTypeCodes["פנטהאוז"])
}

func TestCityNames(t *testing.T) {
	names := CityNames()
	assert.Len(t, names, len(CityCodes))
	assert.Contains(t, names, "תל אביב")
}
