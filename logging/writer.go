package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// stderr is the terminal sink. Tests swap it for a buffer.
var stderr io.Writer = os.Stderr

// levelWriter writes one level's entries into <Director>/<date>/<level>.log,
// rotating through lumberjack.
type levelWriter struct {
	config  Config
	level   string
	mu      sync.Mutex
	date    string
	current *lumberjack.Logger
	now     func() time.Time
}

func newLevelWriter(config Config, level string) *levelWriter {
	return &levelWriter{
		config: config,
		level:  level,
		now:    time.Now,
	}
}

// Write implements io.Writer.
func (w *levelWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writerFor(w.now().Format("2006-01-02")).Write(p)
}

// Sync implements zapcore.WriteSyncer. lumberjack writes through to the file.
func (w *levelWriter) Sync() error {
	return nil
}

// writerFor returns the writer for date, closing the previous day's file.
func (w *levelWriter) writerFor(date string) *lumberjack.Logger {
	if w.current != nil && w.date == date {
		return w.current
	}
	if w.current != nil {
		_ = w.current.Close()
	}

	dirPath := filepath.Join(w.config.Director, date)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		dirPath = w.config.Director
		_ = os.MkdirAll(dirPath, 0o755)
	}

	w.date = date
	w.current = &lumberjack.Logger{
		Filename:   filepath.Join(dirPath, w.level+".log"),
		MaxSize:    w.config.MaxSize,
		MaxBackups: w.config.MaxBackups,
		MaxAge:     w.config.MaxAge,
		Compress:   w.config.Compress,
		LocalTime:  true,
	}
	return w.current
}

// Close closes the open file, if any.
func (w *levelWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	return err
}

var (
	openWriters   []*levelWriter
	openWritersMu sync.Mutex
)

// fileSyncer creates a level writer and tracks it for CloseAllWriters.
func fileSyncer(config Config, level string) zapcore.WriteSyncer {
	w := newLevelWriter(config, level)

	openWritersMu.Lock()
	openWriters = append(openWriters, w)
	openWritersMu.Unlock()

	return w
}

// CloseAllWriters closes every file opened by loggers in this process.
func CloseAllWriters() error {
	openWritersMu.Lock()
	defer openWritersMu.Unlock()

	var lastErr error
	for _, w := range openWriters {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	openWriters = nil
	return lastErr
}

var _ io.WriteCloser = (*levelWriter)(nil)
