package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		SiteName:            "wordpress",
		WordPressImage:      "bitnami/wordpress:6.8.2",
		DatabaseSecretName:  "wordpress-db-credentials",
		TaskCPU:             512,
		TaskMemory:          1024,
		DesiredCount:        2,
		AutoscaleMinTasks:   2,
		AutoscaleMaxTasks:   4,
		CPUTargetPercent:    75,
		MemTargetPercent:    75,
		DatabaseMinCapacity: 0.5,
		DatabaseMaxCapacity: 2,
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "wordpress", cfg.SiteName)
	assert.Equal(t, "wordpress-db-credentials", cfg.DatabaseSecretName)
	assert.False(t, cfg.CustomDomainEnabled())
	assert.LessOrEqual(t, cfg.AutoscaleMinTasks, cfg.AutoscaleMaxTasks)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("WP_SITE_NAME", "blog")
	t.Setenv("WP_DESIRED_COUNT", "3")
	t.Setenv("WP_AUTOSCALE_MAX", "6")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "blog", cfg.SiteName)
	assert.Equal(t, float64(3), cfg.DesiredCount)
	assert.Equal(t, float64(6), cfg.AutoscaleMaxTasks)
}

func TestValidateRejectsInvertedAutoscaleBounds(t *testing.T) {
	cfg := validConfig()
	cfg.AutoscaleMinTasks = 5
	cfg.AutoscaleMaxTasks = 3
	cfg.DesiredCount = 5

	assert.ErrorContains(t, cfg.Validate(), "exceeds maximum")
}

func TestValidateRejectsDesiredCountOutsideBounds(t *testing.T) {
	cfg := validConfig()
	cfg.DesiredCount = 10

	assert.ErrorContains(t, cfg.Validate(), "outside autoscale bounds")
}

func TestValidateRejectsUtilizationTargetOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.CPUTargetPercent = 150

	assert.ErrorContains(t, cfg.Validate(), "cpu utilization target")
}

func TestValidateRequiresDomainAndZoneTogether(t *testing.T) {
	cfg := validConfig()
	cfg.DomainName = "blog.example.com"

	assert.ErrorContains(t, cfg.Validate(), "set together")

	cfg.HostedZoneDomain = "example.com"
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.CustomDomainEnabled())
}

func TestValidateRejectsInvalidDatabaseCapacity(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseMinCapacity = 4
	cfg.DatabaseMaxCapacity = 2

	assert.ErrorContains(t, cfg.Validate(), "database capacity")
}

func TestValidateRejectsEmptyImage(t *testing.T) {
	cfg := validConfig()
	cfg.WordPressImage = ""

	assert.ErrorContains(t, cfg.Validate(), "container image")
}
