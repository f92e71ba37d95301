package cache

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger      *logrus.Logger
	loggerMutex sync.RWMutex
)

// SetLogger stores the process logger built by the launcher
func SetLogger(s *logrus.Logger) {
	loggerMutex.Lock()
	logger = s
	loggerMutex.Unlock()
}

// GetLogger returns the process logger, the logrus standard logger until
// SetLogger was called
func GetLogger() *logrus.Logger {
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()

	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
