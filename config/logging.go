package config

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const defaultLogPath = "logs/eteeap-api.log"

// LogWriter receives application, gin and SQL log output.
var LogWriter io.Writer = os.Stdout

// LogFilePath is the configured LOG_PATH, used by the log tail endpoint as well.
func LogFilePath() string {
	if Conf.LogPath == "" {
		return defaultLogPath
	}
	return Conf.LogPath
}

// OpenLogFile creates the parent directory of path and opens it for appending.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create log directory for %s", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", path)
	}
	return f, nil
}

// InitLogging tees the standard logger to stdout and LogFilePath. When the file
// cannot be opened logging stays on stdout and the returned file is nil.
func InitLogging() (*os.File, io.Writer) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := OpenLogFile(LogFilePath())
	if err != nil {
		log.Printf("Warning: %v", err)
		LogWriter = os.Stdout
	} else {
		LogWriter = io.MultiWriter(os.Stdout, logFile)
	}
	log.SetOutput(LogWriter)
	return logFile, LogWriter
}
