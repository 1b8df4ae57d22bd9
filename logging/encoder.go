package logging

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// prefixedTimeEncoder formats timestamps with the configured prefix and layout.
func prefixedTimeEncoder(config Config) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(config.Prefix + t.Format(config.TimeFormat))
	}
}

// GetEncoder returns a zapcore.Encoder based on the config format.
func GetEncoder(config Config) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    config.ZapEncodeLevel(),
		EncodeTime:     prefixedTimeEncoder(config),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if config.Format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// getZapCores builds the cores for the configured outputs. The terminal core
// takes every enabled level; file output gets one core per level so each level
// lands in its own file.
func getZapCores(config Config) []zapcore.Core {
	minLevel := config.TransportLevel()
	encoder := GetEncoder(config)

	var cores []zapcore.Core
	if config.LogInTerminal {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stderr)), minLevel))
	}
	if config.LogInFile {
		for level := minLevel; level <= zapcore.FatalLevel; level++ {
			lvl := level
			enabler := zapcore.LevelEnabler(levelOnly(lvl))
			cores = append(cores, zapcore.NewCore(encoder, fileSyncer(config, lvl.String()), enabler))
		}
	}
	return cores
}

type levelOnly zapcore.Level

func (l levelOnly) Enabled(level zapcore.Level) bool {
	return level == zapcore.Level(l)
}
