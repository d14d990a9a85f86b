package applogger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// GetLogrus returns the shared application logger. Output format and
// level come from the environment so deployments can switch to JSON
// without a rebuild.
func GetLogrus() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stdout)

		if os.Getenv("LOG_FORMAT") == "json" {
			logger.SetFormatter(&logrus.JSONFormatter{})
		} else {
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		}

		level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
	})
	return logger
}
