package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	instance   *viper.Viper
	opts       ConfigOptions
	files      []string
	watchOnce  sync.Once
	watchMutex sync.RWMutex
}

type ConfigOptions struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	WatchAble bool
	OnChange  func(e fsnotify.Event)
}
