package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FileName = "devlaunch.yaml"
	stateDir = ".devlaunch"

	defaultPollInterval = 80 * time.Millisecond
	defaultGracePeriod  = 5 * time.Second
	defaultScriptsDir   = "scripts"
	defaultLogLevel     = "info"
	logLevelEnv         = "DEVLAUNCH_LOG_LEVEL"
)

var (
	defaultDenylist          = []string{"docker-entrypoint.sh"}
	defaultDestructiveTokens = []string{"limpar", "clean", "reset", "prune", "matar", "kill"}
	defaultNestedCategories  = []string{"testes"}
)

type Config struct {
	RootPath    string
	StateDir    string
	DBPath      string
	LogPath     string
	ConfigPath  string
	PluginsPath string
	ScriptsDir  string

	PollInterval time.Duration
	GracePeriod  time.Duration
	LogLevel     string

	Denylist          []string
	DestructiveTokens []string
	NestedCategories  []string
	RequiredTools     []string
	RequiredFiles     []string
	Ports             []int
}

type fileSettings struct {
	ScriptsDir        string         `yaml:"scripts_dir"`
	PollInterval      time.Duration  `yaml:"poll_interval"`
	GracePeriod       *time.Duration `yaml:"grace_period"`
	LogLevel          string         `yaml:"log_level"`
	Denylist          []string       `yaml:"denylist"`
	DestructiveTokens []string       `yaml:"destructive_tokens"`
	NestedCategories  []string       `yaml:"nested_categories"`
	RequiredTools     []string       `yaml:"required_tools"`
	RequiredFiles     []string       `yaml:"required_files"`
	Ports             []int          `yaml:"ports"`
}

type fileDocument struct {
	Settings fileSettings `yaml:"settings"`
}

func New(rootPath string) (Config, error) {
	if rootPath == "" {
		return Config{}, fmt.Errorf("root path is required")
	}
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return Config{}, fmt.Errorf("resolve root path: %w", err)
	}
	state := filepath.Join(abs, stateDir)
	cfg := Config{
		RootPath:          abs,
		StateDir:          state,
		DBPath:            filepath.Join(state, "devlaunch.db"),
		LogPath:           filepath.Join(state, "devlaunch.log"),
		ConfigPath:        filepath.Join(abs, FileName),
		PluginsPath:       filepath.Join(state, "plugins", "plugins.json"),
		ScriptsDir:        filepath.Join(abs, defaultScriptsDir),
		PollInterval:      defaultPollInterval,
		GracePeriod:       defaultGracePeriod,
		LogLevel:          defaultLogLevel,
		Denylist:          defaultDenylist,
		DestructiveTokens: defaultDestructiveTokens,
		NestedCategories:  defaultNestedCategories,
	}
	settings, err := readSettings(cfg.ConfigPath)
	if err != nil {
		return Config{}, err
	}
	cfg.apply(settings)
	if level := strings.TrimSpace(os.Getenv(logLevelEnv)); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

func readSettings(path string) (fileSettings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSettings{}, nil
		}
		return fileSettings{}, fmt.Errorf("read %s: %w", FileName, err)
	}
	doc := fileDocument{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fileSettings{}, fmt.Errorf("decode %s settings: %w", FileName, err)
	}
	return doc.Settings, nil
}

func (c *Config) apply(s fileSettings) {
	if s.ScriptsDir != "" {
		if filepath.IsAbs(s.ScriptsDir) {
			c.ScriptsDir = filepath.Clean(s.ScriptsDir)
		} else {
			c.ScriptsDir = filepath.Join(c.RootPath, s.ScriptsDir)
		}
	}
	if s.PollInterval > 0 {
		c.PollInterval = s.PollInterval
	}
	if s.GracePeriod != nil && *s.GracePeriod >= 0 {
		c.GracePeriod = *s.GracePeriod
	}
	if s.LogLevel != "" {
		c.LogLevel = s.LogLevel
	}
	if s.Denylist != nil {
		c.Denylist = s.Denylist
	}
	if s.DestructiveTokens != nil {
		c.DestructiveTokens = s.DestructiveTokens
	}
	if s.NestedCategories != nil {
		c.NestedCategories = s.NestedCategories
	}
	c.RequiredTools = s.RequiredTools
	c.RequiredFiles = s.RequiredFiles
	c.Ports = s.Ports
}
