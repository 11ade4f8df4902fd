package stack

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config carries the deploy-time knobs for the stack. Everything is read
// from the process environment under the WP_ prefix; unset variables fall
// back to defaults suitable for a small production site.
type Config struct {
	// SiteName feeds resource names that must be account-unique.
	SiteName string `envconfig:"SITE_NAME" default:"wordpress"`

	// WordPressImage is the container image reference for the service.
	WordPressImage string `envconfig:"IMAGE" default:"bitnami/wordpress:6.8.2"`

	// DatabaseSecretName is the Secrets Manager name under which the
	// database credentials are created. The stack and the ops tooling both
	// reference the secret by this name; the secret value itself is
	// generated and never appears in code or templates.
	DatabaseSecretName string `envconfig:"DB_SECRET_NAME" default:"wordpress-db-credentials"`

	// Task sizing.
	TaskCPU    float64 `envconfig:"TASK_CPU" default:"512"`
	TaskMemory float64 `envconfig:"TASK_MEMORY_MIB" default:"1024"`

	// Service scaling.
	DesiredCount      float64 `envconfig:"DESIRED_COUNT" default:"2"`
	AutoscaleMinTasks float64 `envconfig:"AUTOSCALE_MIN" default:"2"`
	AutoscaleMaxTasks float64 `envconfig:"AUTOSCALE_MAX" default:"4"`
	CPUTargetPercent  float64 `envconfig:"CPU_TARGET_PERCENT" default:"75"`
	MemTargetPercent  float64 `envconfig:"MEMORY_TARGET_PERCENT" default:"75"`

	// DomainName and HostedZoneDomain enable the custom-domain path: an ACM
	// certificate, distribution aliases, and a Route 53 record. Both must be
	// set together; leaving them empty serves the site from the default
	// CloudFront domain.
	DomainName       string `envconfig:"DOMAIN_NAME" default:""`
	HostedZoneDomain string `envconfig:"HOSTED_ZONE_DOMAIN" default:""`

	// Aurora Serverless v2 capacity bounds, in ACUs.
	DatabaseMinCapacity float64 `envconfig:"DB_MIN_CAPACITY" default:"0.5"`
	DatabaseMaxCapacity float64 `envconfig:"DB_MAX_CAPACITY" default:"2"`
}

// LoadConfig reads and validates the deployment configuration from the
// environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("WP", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field constraints the resource declarations
// depend on. CloudFormation would reject most of these eventually, but
// failing at synth is a much shorter feedback loop.
func (c *Config) Validate() error {
	if c.SiteName == "" {
		return fmt.Errorf("site name must not be empty")
	}
	if c.WordPressImage == "" {
		return fmt.Errorf("container image must not be empty")
	}
	if c.DatabaseSecretName == "" {
		return fmt.Errorf("database secret name must not be empty")
	}
	if c.AutoscaleMinTasks < 1 {
		return fmt.Errorf("autoscale minimum must be at least 1, got %v", c.AutoscaleMinTasks)
	}
	if c.AutoscaleMinTasks > c.AutoscaleMaxTasks {
		return fmt.Errorf("autoscale minimum %v exceeds maximum %v", c.AutoscaleMinTasks, c.AutoscaleMaxTasks)
	}
	if c.DesiredCount < c.AutoscaleMinTasks || c.DesiredCount > c.AutoscaleMaxTasks {
		return fmt.Errorf("desired count %v outside autoscale bounds [%v, %v]",
			c.DesiredCount, c.AutoscaleMinTasks, c.AutoscaleMaxTasks)
	}
	if c.CPUTargetPercent <= 0 || c.CPUTargetPercent > 100 {
		return fmt.Errorf("cpu utilization target must be in (0, 100], got %v", c.CPUTargetPercent)
	}
	if c.MemTargetPercent <= 0 || c.MemTargetPercent > 100 {
		return fmt.Errorf("memory utilization target must be in (0, 100], got %v", c.MemTargetPercent)
	}
	if (c.DomainName == "") != (c.HostedZoneDomain == "") {
		return fmt.Errorf("domain name and hosted zone domain must be set together")
	}
	if c.DatabaseMinCapacity <= 0 || c.DatabaseMinCapacity > c.DatabaseMaxCapacity {
		return fmt.Errorf("database capacity bounds [%v, %v] are invalid",
			c.DatabaseMinCapacity, c.DatabaseMaxCapacity)
	}
	return nil
}

// CustomDomainEnabled reports whether the stack should provision the
// certificate and DNS record.
func (c *Config) CustomDomainEnabled() bool {
	return c.DomainName != "" && c.HostedZoneDomain != ""
}
