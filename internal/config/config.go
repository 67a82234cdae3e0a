// Package config loads the engine's node RPC and indexer connection
// details from a YAML file, with environment variables and CLI flags
// overriding file values in that order.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NodeConfig holds bitcoind RPC connection details.
type NodeConfig struct {
	Host       string `yaml:"host"`
	User       string `yaml:"user,omitempty"`
	Pass       string `yaml:"pass,omitempty"`
	CookiePath string `yaml:"cookie_path,omitempty"`
	// TimeoutSeconds is loaded from the file (DefaultConfig sets 30) but
	// is not applied to the node connection: rpcwallet.Dial ignores it.
	TimeoutSeconds int `yaml:"timeout,omitempty"`
}

// IndexerConfig holds the external indexer oracle's connection
// details.
type IndexerConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout,omitempty"`
}

// Config is the full set of connection details the engine needs,
// independent of the per-run mint parameters carried on mint.Request.
type Config struct {
	Node    NodeConfig    `yaml:"node"`
	Indexer IndexerConfig `yaml:"indexer"`
}

// DefaultConfig returns the engine's defaults: local bitcoind over
// cookie auth, no indexer URL (must be supplied).
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			Host:           "127.0.0.1:8332",
			TimeoutSeconds: 30,
		},
		Indexer: IndexerConfig{
			TimeoutSeconds: 30,
		},
	}
}

// Load reads path if non-empty, applies environment overrides, then
// returns the resolved Config. A missing path is not an error: the
// defaults plus environment are used as-is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides cfg fields from the environment. Env vars win
// over whatever the file set; CLI flags (applied by the caller via
// Override) win over both.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ORD_NODE_HOST"); v != "" {
		cfg.Node.Host = v
	}
	if v := os.Getenv("ORD_NODE_USER"); v != "" {
		cfg.Node.User = v
	}
	if v := os.Getenv("ORD_NODE_PASS"); v != "" {
		cfg.Node.Pass = v
	}
	if v := os.Getenv("ORD_NODE_COOKIE"); v != "" {
		cfg.Node.CookiePath = v
	}
	if v := os.Getenv("ORD_INDEXER_URL"); v != "" {
		cfg.Indexer.BaseURL = v
	}
}

// Override applies non-empty CLI flag values on top of cfg, taking
// precedence over both the file and the environment.
func (c *Config) Override(nodeHost, nodeUser, nodePass, nodeCookie, indexerURL string) {
	if nodeHost != "" {
		c.Node.Host = nodeHost
	}
	if nodeUser != "" {
		c.Node.User = nodeUser
	}
	if nodePass != "" {
		c.Node.Pass = nodePass
	}
	if nodeCookie != "" {
		c.Node.CookiePath = nodeCookie
	}
	if indexerURL != "" {
		c.Indexer.BaseURL = indexerURL
	}
}

// Validate checks that enough information is present to dial both the
// node and the indexer.
func (c *Config) Validate() error {
	if c.Node.Host == "" {
		return fmt.Errorf("config: node.host is required")
	}
	if c.Node.CookiePath == "" && (c.Node.User == "" || c.Node.Pass == "") {
		return fmt.Errorf("config: node requires either cookie_path or user+pass")
	}
	if c.Indexer.BaseURL == "" {
		return fmt.Errorf("config: indexer.base_url is required")
	}
	return nil
}
