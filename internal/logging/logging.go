// Package logging sets up the JSON logger each function writes to CloudWatch with.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger tagged with the function name. Unknown levels fall back to info.
func New(function, level string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return l.WithField("function", function)
}
