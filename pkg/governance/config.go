package governance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig holds runtime configuration for the workflow engine.
type EngineConfig struct {
	// AccountablePlaceholders are accountable-person values treated as
	// unset by the deployment guard and task rule.
	AccountablePlaceholders []string `yaml:"accountablePlaceholders" json:"accountablePlaceholders"`

	// AuditRetention controls pruning of the audit event trail. Lifecycle
	// history and governance tasks are never pruned.
	AuditRetention AuditRetentionConfig `yaml:"auditRetention" json:"auditRetention"`
}

// AuditRetentionConfig holds audit retention configuration.
type AuditRetentionConfig struct {
	Days int `yaml:"days" json:"days"`
}

// LoadEngineConfig loads engine configuration from a YAML file.
// If the file does not exist, default configuration is returned.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultEngineConfig(), nil
		}
		return nil, fmt.Errorf("read engine config: %w", err)
	}

	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse engine config: %w", err)
	}
	if cfg.AccountablePlaceholders == nil {
		cfg.AccountablePlaceholders = defaultPlaceholders
	}
	if cfg.AuditRetention.Days == 0 {
		cfg.AuditRetention.Days = 90
	}

	return &cfg, nil
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		AccountablePlaceholders: defaultPlaceholders,
		AuditRetention: AuditRetentionConfig{
			Days: 90,
		},
	}
}
