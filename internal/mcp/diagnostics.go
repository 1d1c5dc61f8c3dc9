package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewDiagnosticLogger creates a logger for the MCP server.
// CRITICAL: in MCP mode all output must go to a file, never to
// stdout/stderr. The protocol requires clean stdio for communication
// with the client. In CLI mode stderr is acceptable.
// Failure to set up file logging must not prevent server startup, so the
// fallback is a no-op logger.
func NewDiagnosticLogger(isMCP bool, dir, level string) (*zap.Logger, string) {
	lvl := parseLevel(level)
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if !isMCP {
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			lvl,
		)
		return zap.New(core), ""
	}

	logDir := dir
	if logDir == "" {
		logDir = filepath.Join(os.TempDir(), "codenav-mcp-logs")
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			homeDir = "."
		}
		logDir = filepath.Join(homeDir, ".codenav-mcp-logs")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return zap.NewNop(), ""
		}
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("mcp-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zap.NewNop(), ""
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(file),
		lvl,
	)
	return zap.New(core), logPath
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
