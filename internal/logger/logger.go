package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05.000"

var (
	// Shared logger writes to stderr
	std = logrus.New()
)

func init() {
	std.SetOutput(os.Stderr)
	std.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
	})
}

func SetOutput(output io.Writer) {
	std.SetOutput(output)
}

// Configure sets the level and the format ("text" or "json"). Empty
// arguments keep the current setting.
func Configure(level, format string) error {
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return err
		}
		std.SetLevel(parsed)
	}
	switch format {
	case "":
	case "text":
		std.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	case "json":
		std.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	default:
		return fmt.Errorf("unknown log format: %s", format)
	}
	return nil
}

func Printf(format string, v ...any) {
	std.Infof(format, v...)
}

func Println(v ...any) {
	std.Infoln(v...)
}

func Debugf(format string, v ...any) {
	std.Debugf(format, v...)
}

func Warnf(format string, v ...any) {
	std.Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	std.Errorf(format, v...)
}

func Fatal(v ...any) {
	std.Fatal(v...)
}

func Fatalf(format string, v ...any) {
	std.Fatalf(format, v...)
}
