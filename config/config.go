package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/leeforge/multicaptcha/logging"
)

func DefaultConfigOptions() ConfigOptions {
	basePath := os.Getenv("CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}

	return ConfigOptions{
		BasePath: basePath,
		FileName: "config",
		FileType: "yaml",
	}
}

// NewConfig layers config.yaml, config.local.yaml and the env-mode files found
// under BasePath. Missing files are not an error; environment variables still
// apply on Bind.
func NewConfig(optsArr ...ConfigOptions) (*Config, error) {
	opts := DefaultConfigOptions()
	if len(optsArr) > 0 {
		opts = optsArr[0]
	}

	files := getConfigFilePaths(opts)
	instance, err := createViper(opts, files)
	if err != nil {
		return nil, err
	}

	return &Config{
		instance: instance,
		opts:     opts,
		files:    files,
	}, nil
}

// Files returns the config files that were merged, in load order.
func (c *Config) Files() []string {
	return append([]string(nil), c.files...)
}

func (c *Config) Bind(instance any) error {
	if c == nil || c.instance == nil {
		return fmt.Errorf("config instance is nil")
	}
	if instance == nil {
		return fmt.Errorf("target instance is nil")
	}

	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	bindEnvKeys(c.instance, "", reflect.TypeOf(instance))

	if err := c.instance.Unmarshal(instance); err != nil {
		return fmt.Errorf("unmarshal config (path: %s, file: %s.%s): %w",
			c.opts.BasePath, c.opts.FileName, c.opts.FileType, err)
	}

	if c.opts.WatchAble && len(c.files) > 0 {
		c.watchOnce.Do(func() {
			c.instance.OnConfigChange(func(e fsnotify.Event) {
				c.watchMutex.Lock()
				defer c.watchMutex.Unlock()

				if err := readFiles(c.instance, c.files); err != nil {
					logging.Global().Error("config reload failed", zap.Error(err))
					return
				}
				if err := c.instance.Unmarshal(instance); err != nil {
					logging.Global().Error("config rebind failed", zap.Error(err))
					return
				}
				if c.opts.OnChange != nil {
					c.opts.OnChange(e)
				}
			})
			c.instance.WatchConfig()
		})
	}

	return nil
}

// BindWithDefaults fills `default` tags before and after unmarshalling so
// fields left empty by the files keep their defaults.
func (c *Config) BindWithDefaults(instance any) error {
	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("set defaults: %w", err)
	}

	if err := c.Bind(instance); err != nil {
		return err
	}

	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("set defaults after unmarshal: %w", err)
	}

	return nil
}

func (c *Config) IsSet(key string) bool {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()
	return c.instance.IsSet(key)
}

func (c *Config) Get(key string) any {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()
	return c.instance.Get(key)
}

func (c *Config) Set(key string, value any) {
	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()
	c.instance.Set(key, value)
}

func createViper(opts ConfigOptions, files []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(opts.FileType)

	if err := readFiles(v, files); err != nil {
		return nil, err
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()

	return v, nil
}

// readFiles merges files in order. The last file stays the watched one.
func readFiles(v *viper.Viper, files []string) error {
	for _, path := range files {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	return nil
}

// bindEnvKeys registers every mapstructure key of t with viper so that an
// environment variable can set a key no config file mentions.
func bindEnvKeys(v *viper.Viper, prefix string, t reflect.Type) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		if prefix != "" {
			_ = v.BindEnv(prefix)
		}
		return
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		bindEnvKeys(v, key, field.Type)
	}
}

func getConfigFilePaths(opts ConfigOptions) (configFiles []string) {
	fileNames := []string{
		opts.FileName,
		opts.FileName + ".local",
	}
	for _, alias := range modeAliases(Mode()) {
		fileNames = append(fileNames,
			fmt.Sprintf("%s.%s", opts.FileName, alias),
			fmt.Sprintf("%s.%s.local", opts.FileName, alias),
		)
	}

	for _, fileName := range fileNames {
		file := filepath.Join(opts.BasePath, fmt.Sprintf("%s.%s", fileName, opts.FileType))
		if fileExists(file) {
			configFiles = append(configFiles, file)
		}
	}
	return configFiles
}
