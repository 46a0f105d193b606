package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config models dealflow.yml.
type Config struct {
	Org struct {
		ID   string `yaml:"id" json:"id"`
		Name string `yaml:"name" json:"name"`
	} `yaml:"org" json:"org"`
	Approvals struct {
		Revenue     []ApprovalTier `yaml:"revenue" json:"revenue"`
		Procurement []ApprovalTier `yaml:"procurement" json:"procurement"`
	} `yaml:"approvals" json:"approvals"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty" json:"webhooks,omitempty"`
}

// ApprovalTier maps a deal-value threshold to a required approver role.
// Amounts strictly above Threshold require Role; amounts at or below stay in
// the lower tier.
type ApprovalTier struct {
	Threshold int64  `yaml:"threshold" json:"threshold"`
	Role      string `yaml:"role" json:"role"`
	Reason    string `yaml:"reason" json:"reason"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url" json:"url"`
	Secret         string   `yaml:"secret,omitempty" json:"secret,omitempty"`
	Actions        []string `yaml:"actions,omitempty" json:"actions,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	Enabled        *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Org.ID == "" {
		return fmt.Errorf("config.org.id is required")
	}
	for domain, tiers := range map[string][]ApprovalTier{
		"revenue":     c.Approvals.Revenue,
		"procurement": c.Approvals.Procurement,
	} {
		if len(tiers) == 0 {
			return fmt.Errorf("config.approvals.%s requires at least one tier", domain)
		}
		if !sort.SliceIsSorted(tiers, func(i, j int) bool { return tiers[i].Threshold < tiers[j].Threshold }) {
			return fmt.Errorf("config.approvals.%s tiers must be ordered by threshold", domain)
		}
		for i, tier := range tiers {
			if tier.Role == "" {
				return fmt.Errorf("config.approvals.%s tier %d has empty role", domain, i)
			}
			if tier.Threshold <= 0 {
				return fmt.Errorf("config.approvals.%s tier %d has non-positive threshold", domain, i)
			}
		}
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
	}
	return nil
}

// TiersFor returns the approval tiers for a workflow domain.
func (c *Config) TiersFor(domain string) []ApprovalTier {
	if domain == "procurement" {
		return c.Approvals.Procurement
	}
	return c.Approvals.Revenue
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "dealflow.yml")
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for an org.
func Default(orgID string) *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, orgID, orgID))).Decode(&cfg)
	cfg.Org.ID = orgID
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Thresholds mirror the Indian-market tiering the sales team works with:
// ₹50 lakh pulls in the Finance Head, ₹1 crore additionally pulls in the CFO.
const defaultTemplate = `org:
  id: %s
  name: %s

approvals:
  revenue:
    - threshold: 5000000
      role: Finance Head
      reason: "Deal value above ₹50L requires Finance Head sign-off"
    - threshold: 10000000
      role: CFO
      reason: "Deal value above ₹1Cr requires CFO sign-off"
  procurement:
    - threshold: 5000000
      role: Finance Head
      reason: "Spend above ₹50L requires Finance Head sign-off"
    - threshold: 10000000
      role: CFO
      reason: "Spend above ₹1Cr requires CFO sign-off"
`
