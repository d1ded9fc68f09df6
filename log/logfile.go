package log

import (
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

// SetLogFile routes the process logger output to logFile with time based
// rotation. rotation and maxAge are in hours, zero values keep the
// rotatelogs defaults. An empty logFile keeps logging on stdout.
func SetLogFile(logFile string, rotation, maxAge uint64) {
	if logFile == "" {
		return
	}
	options := []rotatelogs.Option{
		rotatelogs.WithLinkName(logFile),
	}
	if rotation > 0 {
		options = append(options, rotatelogs.WithRotationTime(time.Duration(rotation)*time.Hour))
	}
	if maxAge > 0 {
		options = append(options, rotatelogs.WithMaxAge(time.Duration(maxAge)*time.Hour))
	}
	writer, err := rotatelogs.New(logFile+".%Y%m%d%H", options...)
	if err != nil {
		logrus.Fatalf("set log file '%v' failed. %v", logFile, err)
	}
	logrus.SetOutput(writer)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		ForceQuote:      true,
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		DisableSorting:  true,
	})
}
