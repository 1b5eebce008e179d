package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/ogurasousui/personnel-core/internal/platform/config"
)

// New は設定に従って slog.Logger を生成します。w が nil の場合は標準エラー出力を使います。
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Setup はロガーを生成し、slog のデフォルトとして設定します。
func Setup(cfg config.LogConfig) *slog.Logger {
	logger := New(cfg, nil)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel はレベル名を slog.Level へ変換します。未知の値は Info です。
func ParseLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
