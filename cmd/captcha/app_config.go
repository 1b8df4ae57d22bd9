package main

import (
	"time"

	"github.com/leeforge/multicaptcha/captcha"
	"github.com/leeforge/multicaptcha/config"
	"github.com/leeforge/multicaptcha/logging"
	"github.com/leeforge/multicaptcha/redis_client"
)

const envPrefix = "CAPTCHA"

type AppConfig struct {
	Server  ServerConfig        `mapstructure:"server" yaml:"server"`
	Store   StoreConfig         `mapstructure:"store" yaml:"store"`
	Redis   redis_client.Config `mapstructure:"redis" yaml:"redis"`
	Logging logging.Config      `mapstructure:"logging" yaml:"logging"`
	Captcha captcha.Config      `mapstructure:"captcha" yaml:"captcha"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr" default:":8080"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" default:"5s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" default:"10s"`
	SecureCookie    bool          `mapstructure:"secure_cookie" yaml:"secure_cookie"`
	RateLimit       RateLimit     `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimit 每个客户端 IP 在 Window 内最多 Requests 次取图，0 表示不限
type RateLimit struct {
	Requests int           `mapstructure:"requests" yaml:"requests"`
	Window   time.Duration `mapstructure:"window" yaml:"window" default:"1m"`
}

// StoreConfig 答案存储，driver 为 memory 或 redis
type StoreConfig struct {
	Driver string        `mapstructure:"driver" yaml:"driver" default:"memory"`
	TTL    time.Duration `mapstructure:"ttl" yaml:"ttl" default:"5m"`
}

// loadConfig 读取 <dir>/config*.yaml 与 CAPTCHA_* 环境变量，
// dir 为空时使用 CONFIG_PATH 或 ./config
func loadConfig(dir string) (AppConfig, error) {
	opts := config.DefaultConfigOptions()
	if dir != "" {
		opts.BasePath = dir
	}
	opts.EnvPrefix = envPrefix

	loader, err := config.NewConfig(opts)
	if err != nil {
		return AppConfig{}, err
	}

	cfg := AppConfig{
		Logging: logging.DefaultConfig(),
		Captcha: captcha.DefaultConfig(),
	}
	// 文件中声明了字体表时整体替换，不与默认字体合并
	if loader.IsSet("captcha.fonts") {
		cfg.Captcha.Fonts = nil
	}
	if err := loader.BindWithDefaults(&cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
