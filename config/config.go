package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig `yaml:"server"`
	Auth     AuthConfig   `yaml:"auth"`
	Fees     FeesConfig   `yaml:"fees"`
	Terms    TermsConfig  `yaml:"terms"`
	Store    StoreConfig  `yaml:"store"`
	Log      LogConfig    `yaml:"log"`
	Managers []Manager    `yaml:"managers"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

// FeesConfig holds the fixed fees added to due-at-signing. No tax
// component; taxes are disclosed separately at the desk.
type FeesConfig struct {
	DocFee   float64 `yaml:"doc_fee"`
	TitleFee float64 `yaml:"title_fee"`
}

// TermsConfig is the canonical term menu frozen into every new worksheet.
type TermsConfig struct {
	Menu          []TermRateConfig `yaml:"menu"`
	DefaultMonths int              `yaml:"default_months"`
}

type TermRateConfig struct {
	Months int     `yaml:"months"`
	APR    float64 `yaml:"apr"`
}

type StoreConfig struct {
	Backend       string `yaml:"backend"` // memory, redis
	RedisAddr     string `yaml:"redis_addr"`
	MaxWorksheets int    `yaml:"max_worksheets"` // 0 = unlimited
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Manager is a dashboard login listed in the config file.
type Manager struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 12
	}
	if cfg.Fees.DocFee == 0 {
		cfg.Fees.DocFee = 499
	}
	if cfg.Fees.TitleFee == 0 {
		cfg.Fees.TitleFee = 100
	}
	if len(cfg.Terms.Menu) == 0 {
		cfg.Terms.Menu = []TermRateConfig{
			{Months: 48, APR: 5.99},
			{Months: 60, APR: 6.49},
			{Months: 72, APR: 6.99},
		}
	}
	if cfg.Terms.DefaultMonths == 0 {
		cfg.Terms.DefaultMonths = cfg.Terms.Menu[len(cfg.Terms.Menu)-1].Months
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Store.MaxWorksheets < 0 {
		cfg.Store.MaxWorksheets = 0
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// FindManager finds a dashboard manager by username.
func (c *Config) FindManager(username string) *Manager {
	for i := range c.Managers {
		if c.Managers[i].Username == username {
			return &c.Managers[i]
		}
	}
	return nil
}
