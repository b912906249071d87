package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns the service logger. JSON output when running in Lambda (so
// CloudWatch Logs can index fields), colored text locally.
func New() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}
