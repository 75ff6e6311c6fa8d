package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v9"
)

// DefaultRegion is the region section used when the caller names none.
const DefaultRegion = "cloudstack"

// Provider holds the CloudStack API connection settings for one invocation.
//
// Values are merged from three sources, lowest precedence first: a region
// section in the config file, CLOUDSTACK_* environment variables, and module
// parameters applied by the caller via Apply.
type Provider struct {
	APIURL     string
	APIKey     string
	APISecret  string
	HTTPMethod string
	Timeout    int
	VerifySSL  bool
}

// The environment variable names follow the ones the CloudStack CLI tooling
// reads, so existing shell setups keep working.
type envOverrides struct {
	APIURL     string `env:"CLOUDSTACK_ENDPOINT"`
	APIKey     string `env:"CLOUDSTACK_KEY"`
	APISecret  string `env:"CLOUDSTACK_SECRET"`
	HTTPMethod string `env:"CLOUDSTACK_METHOD"`
	Timeout    int    `env:"CLOUDSTACK_TIMEOUT"`
	VerifySSL  *bool  `env:"CLOUDSTACK_VERIFY"`
	Region     string `env:"CLOUDSTACK_REGION"`
	ConfigPath string `env:"CLOUDSTACK_CONFIG"`
}

// Load builds the provider settings for the given region. An empty region
// falls back to CLOUDSTACK_REGION and then to DefaultRegion. A missing config
// file is not an error; the environment alone may carry the credentials.
func Load(region string) (*Provider, error) {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if region == "" {
		region = overrides.Region
	}
	if region == "" {
		region = DefaultRegion
	}

	cfg := &Provider{
		HTTPMethod: "get",
		Timeout:    10,
		VerifySSL:  true,
	}

	if err := loadFile(configPath(overrides.ConfigPath), region, cfg); err != nil {
		return nil, err
	}

	if overrides.APIURL != "" {
		cfg.APIURL = overrides.APIURL
	}
	if overrides.APIKey != "" {
		cfg.APIKey = overrides.APIKey
	}
	if overrides.APISecret != "" {
		cfg.APISecret = overrides.APISecret
	}
	if overrides.HTTPMethod != "" {
		cfg.HTTPMethod = overrides.HTTPMethod
	}
	if overrides.Timeout > 0 {
		cfg.Timeout = overrides.Timeout
	}
	if overrides.VerifySSL != nil {
		cfg.VerifySSL = *overrides.VerifySSL
	}

	return cfg, nil
}

// Apply overlays non-empty module parameters on top of the loaded settings.
// Module parameters win over both the environment and the config file.
func (c *Provider) Apply(apiURL, apiKey, apiSecret, httpMethod string, timeout int) {
	if apiURL != "" {
		c.APIURL = apiURL
	}
	if apiKey != "" {
		c.APIKey = apiKey
	}
	if apiSecret != "" {
		c.APISecret = apiSecret
	}
	if httpMethod != "" {
		c.HTTPMethod = httpMethod
	}
	if timeout > 0 {
		c.Timeout = timeout
	}
}

// Validate checks that the settings are complete enough to sign requests.
func (c *Provider) Validate() error {
	if c.APIURL == "" || c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("api_url, api_key and api_secret are required together")
	}
	switch strings.ToLower(c.HTTPMethod) {
	case "get", "post":
	default:
		return fmt.Errorf("api_http_method must be get or post, got %q", c.HTTPMethod)
	}
	return nil
}

func configPath(override string) string {
	if override != "" {
		return override
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".cloudstack.toml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "cloudstack.toml"
}

func loadFile(path, region string, cfg *Provider) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	type fileSection struct {
		Endpoint string `toml:"endpoint"`
		Key      string `toml:"key"`
		Secret   string `toml:"secret"`
		Method   string `toml:"method"`
		Timeout  int    `toml:"timeout"`
		Verify   *bool  `toml:"verify"`
	}

	sections := map[string]fileSection{}
	if err := toml.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	section, ok := sections[region]
	if !ok {
		return nil
	}
	if section.Endpoint != "" {
		cfg.APIURL = section.Endpoint
	}
	if section.Key != "" {
		cfg.APIKey = section.Key
	}
	if section.Secret != "" {
		cfg.APISecret = section.Secret
	}
	if section.Method != "" {
		cfg.HTTPMethod = section.Method
	}
	if section.Timeout > 0 {
		cfg.Timeout = section.Timeout
	}
	if section.Verify != nil {
		cfg.VerifySSL = *section.Verify
	}
	return nil
}
