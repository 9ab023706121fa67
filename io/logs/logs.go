// Package logs wires up the package-scoped logrus loggers used across the
// epoch transition engine, matching the teacher's
// `var log = logrus.WithField("prefix", "core/state")` idiom.
package logs

import "github.com/sirupsen/logrus"

// New returns a logrus entry tagged with prefix, the way every core
// package declares its own package-level `log` variable.
func New(prefix string) *logrus.Entry {
	return logrus.WithField("prefix", prefix)
}
