package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/conduit-lang/framework/internal/orm/connection"
	"github.com/conduit-lang/framework/internal/testing/fixture"
)

// Config represents the Conduit configuration
type Config struct {
	ProjectName string                       `mapstructure:"project_name"`
	Database    DatabaseConfig               `mapstructure:"database"`
	Connections map[string]connection.Config `mapstructure:"connections"`
	Aliases     map[string]string            `mapstructure:"aliases"`
	Fixtures    FixturesConfig               `mapstructure:"fixtures"`

	// Root is the directory holding the config file, or the working
	// directory when none was found.
	Root string `mapstructure:"-"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	URL     string `mapstructure:"url"`
	TestURL string `mapstructure:"test_url"`
}

// FixturesConfig represents fixture loading configuration
type FixturesConfig struct {
	Dir           string         `mapstructure:"dir"`
	AppNamespace  string         `mapstructure:"app_namespace"`
	CoreNamespace string         `mapstructure:"core_namespace"`
	CreateTables  bool           `mapstructure:"create_tables"`
	Plugins       []PluginConfig `mapstructure:"plugins"`
}

// PluginConfig declares the fixtures shipped by a plugin
type PluginConfig struct {
	Name      string `mapstructure:"name"`
	Namespace string `mapstructure:"namespace"`
	Dir       string `mapstructure:"dir"`
}

// Load loads the configuration from conduit.yml or conduit.yaml in the
// project root, falling back to defaults when there is none.
func Load() (*Config, error) {
	root, err := GetProjectRoot()
	if err != nil {
		if root, err = os.Getwd(); err != nil {
			return nil, err
		}
	}

	v := newViper()
	v.SetConfigName("conduit")
	v.SetConfigType("yaml")
	v.AddConfigPath(root)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v, root)
}

// LoadFile loads the configuration from an explicit file
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return decode(v, root)
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("fixtures.dir", "tests/fixtures")
	v.SetDefault("fixtures.app_namespace", "app")
	v.SetDefault("fixtures.core_namespace", fixture.DefaultCoreNamespace)
	v.SetDefault("fixtures.create_tables", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("database.test_url", "DATABASE_TEST_URL")

	return v
}

func decode(v *viper.Viper, root string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Root = root

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// GetProjectRoot tries to find the project root by looking for conduit.yml
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "conduit.yml")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "conduit.yaml")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Conduit project (no conduit.yml found)")
		}
		dir = parent
	}
}

// ConnectionConfigs returns the named connection configurations.
// database.url (or DATABASE_URL) configures "default" and database.test_url
// (or DATABASE_TEST_URL) configures "test" unless the connections section
// already declares them.
func (c *Config) ConnectionConfigs() (map[string]connection.Config, error) {
	configs := make(map[string]connection.Config, len(c.Connections)+2)
	for name, cfg := range c.Connections {
		configs[name] = cfg
	}

	urls := []struct{ name, url string }{
		{"default", c.Database.URL},
		{"test", c.Database.TestURL},
	}
	for _, u := range urls {
		if u.url == "" {
			continue
		}
		if _, exists := configs[u.name]; exists {
			continue
		}
		cfg, err := connection.ParseURL(u.url)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", u.name, err)
		}
		configs[u.name] = cfg
	}

	return configs, nil
}

// NewManager builds a connection manager from the configured connections.
// Every connection is aliased to its test counterpart, then the aliases
// section is applied.
func (c *Config) NewManager() (*connection.Manager, error) {
	configs, err := c.ConnectionConfigs()
	if err != nil {
		return nil, err
	}

	m := connection.NewManager()
	for name, cfg := range configs {
		if err := m.Configure(name, cfg); err != nil {
			return nil, err
		}
	}
	m.AddTestAliases()

	aliases := make([]string, 0, len(c.Aliases))
	for alias := range c.Aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		if err := m.Alias(c.Aliases[alias], alias); err != nil {
			return nil, fmt.Errorf("alias %s: %w", alias, err)
		}
	}

	return m, nil
}

// Namespaces returns the fixture namespaces
func (c *Config) Namespaces() fixture.Namespaces {
	ns := fixture.Namespaces{
		Core:    c.Fixtures.CoreNamespace,
		App:     c.Fixtures.AppNamespace,
		Plugins: make(map[string]string, len(c.Fixtures.Plugins)),
	}
	for _, p := range c.Fixtures.Plugins {
		if p.Namespace != "" {
			ns.Plugins[p.Name] = p.Namespace
		}
	}
	return ns
}

// FixturesDir returns the application fixture directory
func (c *Config) FixturesDir() string {
	return c.resolve(c.Fixtures.Dir)
}

// PluginDir returns the fixture directory of a plugin
func (c *Config) PluginDir(p PluginConfig) string {
	if p.Dir == "" {
		return c.resolve(filepath.Join("plugins", filepath.FromSlash(p.Name), "tests", "fixtures"))
	}
	return c.resolve(p.Dir)
}

func (c *Config) resolve(dir string) string {
	if filepath.IsAbs(dir) || c.Root == "" {
		return dir
	}
	return filepath.Join(c.Root, dir)
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Fixtures.CoreNamespace == "" {
		return fmt.Errorf("fixtures.core_namespace must not be empty")
	}
	if strings.Contains(cfg.Fixtures.AppNamespace, ".") {
		return fmt.Errorf("fixtures.app_namespace must not contain '.', got: %s", cfg.Fixtures.AppNamespace)
	}

	seen := make(map[string]bool, len(cfg.Fixtures.Plugins))
	for i, p := range cfg.Fixtures.Plugins {
		if p.Name == "" {
			return fmt.Errorf("fixtures.plugins[%d].name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("fixtures.plugins: duplicate plugin %s", p.Name)
		}
		seen[p.Name] = true
	}

	for alias, target := range cfg.Aliases {
		if alias == target {
			return fmt.Errorf("aliases.%s must not point to itself", alias)
		}
	}
	return nil
}
