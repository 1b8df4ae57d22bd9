package redis_client

import (
	"net"
	"time"
)

type Config struct {
	Host        string        `mapstructure:"host" json:"host" yaml:"host" default:"127.0.0.1"`
	Port        string        `mapstructure:"port" json:"port" yaml:"port" default:"6379"`
	Password    string        `mapstructure:"password" json:"password" yaml:"password"`
	DB          int           `mapstructure:"db" json:"db" yaml:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout" default:"3s"`
	// KeyPrefix namespaces captcha answers inside a shared database.
	KeyPrefix string `mapstructure:"key_prefix" json:"key_prefix" yaml:"key_prefix" default:"captcha:"`
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
