// Package config loads the process configuration from file, environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	tberrors "github.com/randalmurphal/ticketbridge/internal/errors"
)

// EnvPrefix is the environment variable prefix
// (e.g. TICKETBRIDGE_FRESHSERVICE_API_KEY).
const EnvPrefix = "TICKETBRIDGE"

// Config is the full process configuration.
type Config struct {
	Freshservice FreshserviceConfig `mapstructure:"freshservice"`
	AzureDevOps  AzureDevOpsConfig  `mapstructure:"azure_devops"`
	Mapping      MappingConfig      `mapstructure:"mapping"`
	Fields       FieldsConfig       `mapstructure:"fields"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Schedule     ScheduleConfig     `mapstructure:"schedule"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	Report       ReportConfig       `mapstructure:"report"`
}

// FreshserviceConfig is the helpdesk connection.
type FreshserviceConfig struct {
	Domain string `mapstructure:"domain"`
	APIKey string `mapstructure:"api_key"`
}

// AzureDevOpsConfig is the tracker connection.
type AzureDevOpsConfig struct {
	OrgURL       string `mapstructure:"org_url"`
	Project      string `mapstructure:"project"`
	Username     string `mapstructure:"username"`
	Token        string `mapstructure:"token"`
	WorkItemType string `mapstructure:"work_item_type"`
}

// MappingConfig locates the mapping configuration file.
type MappingConfig struct {
	// File is the mapping workbook (.xlsx) or its YAML equivalent.
	File string `mapstructure:"file"`
}

// FieldsConfig overrides the well-known target/source field keys.
type FieldsConfig struct {
	Repo           string `mapstructure:"repo"`
	Requester      string `mapstructure:"requester"`
	Responder      string `mapstructure:"responder"`
	Correlation    string `mapstructure:"correlation"`
	ProductName    string `mapstructure:"product_name"`
	ProductVersion string `mapstructure:"product_version"`
}

// SyncConfig tunes the batch runner.
type SyncConfig struct {
	PageSize    int `mapstructure:"page_size"`
	Concurrency int `mapstructure:"concurrency"`
}

// ScheduleConfig holds the cron cadence for the schedule daemon.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// SMTPConfig holds report/alert mail delivery. Optional: with no host, the
// run report is written to disk but not mailed.
type SMTPConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	CC       []string `mapstructure:"cc"`
	AlertTo  []string `mapstructure:"alert_to"`
}

// ReportConfig controls report file output.
type ReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads configuration. Later sources override earlier: defaults, the
// config file (explicit path, or ./ticketbridge.yaml when present), then
// TICKETBRIDGE_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("azure_devops.work_item_type", "Bug")
	v.SetDefault("sync.page_size", 5)
	v.SetDefault("sync.concurrency", 5)
	v.SetDefault("schedule.cron", "*/30 * * * *")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("report.dir", "reports")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ticketbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Only the implicit file may be absent.
		if path != "" || !errors.As(err, &notFound) {
			return nil, tberrors.Wrap(tberrors.CodeConfigInvalid, "read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, tberrors.Wrap(tberrors.CodeConfigInvalid, "parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that everything a sync run needs is present. Mail
// settings are validated by the mailer only when mailing is enabled.
func (c *Config) Validate() error {
	missing := func(key string) error {
		return tberrors.New(tberrors.CodeConfigMissing, fmt.Sprintf("%s is required", key))
	}

	if c.Freshservice.Domain == "" {
		return missing("freshservice.domain")
	}
	if c.Freshservice.APIKey == "" {
		return missing("freshservice.api_key")
	}
	if c.AzureDevOps.OrgURL == "" {
		return missing("azure_devops.org_url")
	}
	if c.AzureDevOps.Project == "" {
		return missing("azure_devops.project")
	}
	if c.AzureDevOps.Token == "" {
		return missing("azure_devops.token")
	}
	if c.Mapping.File == "" {
		return missing("mapping.file")
	}
	if c.Sync.PageSize < 0 || c.Sync.Concurrency < 0 {
		return tberrors.New(tberrors.CodeConfigInvalid, "sync.page_size and sync.concurrency must not be negative")
	}
	return nil
}

// MailEnabled reports whether report mail delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTP.Host != "" && len(c.SMTP.To) > 0
}
