package logging

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogrusFileHook appends every entry as one JSON line to a file
type LogrusFileHook struct {
	sync.Mutex
	file      *os.File
	levels    []logrus.Level
	formatter *logrus.JSONFormatter
}

// NewLogrusFileHook opens $file for appending, entries below $level are skipped
func NewLogrusFileHook(file string, level logrus.Level) (*LogrusFileHook, error) {
	logFile, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to open log file %s: %v\n", file, err)
		return nil, err
	}

	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, candidate := range logrus.AllLevels {
		if candidate <= level {
			levels = append(levels, candidate)
		}
	}

	return &LogrusFileHook{
		file:      logFile,
		levels:    levels,
		formatter: &logrus.JSONFormatter{},
	}, nil
}

// Fire event
func (hook *LogrusFileHook) Fire(entry *logrus.Entry) error {
	line, err := hook.formatter.Format(entry)
	if err != nil {
		return err
	}

	hook.Lock()
	defer hook.Unlock()

	_, err = hook.file.Write(line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to write log entry: %v\n", err)
		return err
	}
	return nil
}

func (hook *LogrusFileHook) Levels() []logrus.Level {
	return hook.levels
}

func (hook *LogrusFileHook) Close() error {
	return hook.file.Close()
}
