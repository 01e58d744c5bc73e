package initializer

import (
	"io"
	"log/slog"

	"github.com/amirasaad/ledger/pkg/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var levelStyles = map[log.Level]struct {
	symbol string
	color  lipgloss.AdaptiveColor
}{
	log.DebugLevel: {"DBG", lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}},
	log.InfoLevel:  {"INF", lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}},
	log.WarnLevel:  {"WRN", lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}},
	log.ErrorLevel: {"ERR", lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}},
}

// Keys highlighted in text output.
var highlightedKeys = map[string]lipgloss.AdaptiveColor{
	"error":         levelStyles[log.ErrorLevel].color,
	"code":          levelStyles[log.WarnLevel].color,
	"accountNumber": levelStyles[log.InfoLevel].color,
	"transactionID": levelStyles[log.InfoLevel].color,
	"lock_key":      levelStyles[log.DebugLevel].color,
}

func setupLogger(cfg *config.Log, w io.Writer) *slog.Logger {
	styles := log.DefaultStyles()
	for level, s := range levelStyles {
		styles.Levels[level] = lipgloss.NewStyle().
			SetString(s.symbol).
			Bold(true).
			Padding(0, 1).
			Foreground(s.color)
	}
	for key, color := range highlightedKeys {
		styles.Keys[key] = lipgloss.NewStyle().Foreground(color)
		styles.Values[key] = lipgloss.NewStyle().Bold(true)
	}

	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(styles)

	return slog.New(logger)
}
