package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New создает логгер. В окружении development пишет текстом, иначе JSON.
func New(logLevel, environment string) *logrus.Logger {
	log := logrus.New()

	if environment == "development" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	log.SetOutput(os.Stdout)

	// Уровень логирования
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel // Уровень по умолчанию, если передан некорректный
	}
	log.SetLevel(level)
	return log
}
