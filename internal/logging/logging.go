package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	FieldEvent      = "event"
	FieldRequest    = "request"
	FieldState      = "state"
	FieldPath       = "path"
	FieldKind       = "kind"
	FieldCode       = "code"
	FieldLimit      = "storage_limit"
	FieldLength     = "length"
	FieldMapped     = "mapped"
	FieldIndex      = "index"
	FieldParamStore = "param_store"
	FieldMountpoint = "mountpoint"
	FieldConfig     = "config_file"
	FieldVersion    = "version"

	EventTrigger = "trigger"
	EventUpdate  = "update"
	EventPersist = "persist"
	EventMount   = "mount"
	EventUmount  = "umount"
	EventConfig  = "config"
)

// Setup configures the standard logrus logger. format is "text" or "json".
func Setup(out io.Writer, level, format string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var formatter logrus.Formatter
	switch strings.ToLower(format) {
	case "", "text":
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return fmt.Errorf("unsupported log format: %s", format)
	}

	logger := logrus.StandardLogger()
	logger.SetLevel(parsed)
	logger.SetFormatter(formatter)
	if out != nil {
		logger.SetOutput(out)
	}
	return nil
}

// Discard returns a logger that drops everything, for tests and callers
// that pass no logger.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
