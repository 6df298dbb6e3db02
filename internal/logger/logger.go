package logger

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

var output io.Writer = os.Stderr

// Setup initializes Logrus logging via a rotating file. An empty filename keeps stderr.
func Setup(filename, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	if filename != "" {
		// Lumberjack for file rotation
		output = &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		}
	}

	logrus.SetOutput(output)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.SetLevel(lvl)

	// Route the standard library logger through the same sink.
	log.SetOutput(logrus.StandardLogger().Writer())
	return nil
}

// Output is the sink chosen by Setup, shared with the HTTP access log.
func Output() io.Writer {
	return output
}

// GormLogger returns a GORM logger that writes through Logrus.
func GormLogger(level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(logrus.StandardLogger(), gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
