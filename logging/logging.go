package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger пишет одновременно в stderr и в лог-файл.
type Logger struct {
	*slog.Logger
	file *os.File
}

// New открывает path на дозапись. Пустой path — только stderr.
func New(path, level string) (*Logger, error) {
	return newLogger(os.Stderr, path, level)
}

func newLogger(console io.Writer, path, level string) (*Logger, error) {
	l := &Logger{}
	out := console
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
		out = io.MultiWriter(console, f)
	}
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLevel(level)})
	l.Logger = slog.New(handler)
	return l, nil
}

// Close закрывает лог-файл.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Discard — логгер для тестов и команд, которым нечего писать.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
