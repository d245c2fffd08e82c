package logging

import (
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"
)

// NewLogger provides a new logger based on the environment type. Set
// DEBUG=true for human-readable development output; otherwise JSON
// production logging is used.
func NewLogger() *zap.SugaredLogger {
	dev, _ := strconv.ParseBool(os.Getenv("DEBUG"))

	var l *zap.Logger
	var err error

	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		// Just blow up for now
		log.Fatalf("error creating logger: %s", err)
	}

	return l.Sugar()
}
