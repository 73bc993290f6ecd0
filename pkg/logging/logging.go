// Package logging wires the shared logrus setup used across cmd/combeq's
// subcommands: a single debug flag that raises the standard logger's
// level, and a constructor for the component-tagged *logrus.Entry the
// subcommands pass into each package's Config (a Config left without one
// falls back to a plain standard-logger entry). Grounded on
// cmd/operator-cli/main.go's PreRunE debug-flag
// handling.
package logging

import "github.com/sirupsen/logrus"

// Configure raises the standard logger to debug level when debug is set,
// otherwise leaves it at logrus's default (info).
func Configure(debug bool) {
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

// New returns a component-scoped entry off the standard logger, tagged
// with component so the prove/fraig/rewrite/solver lines in one run's
// output can be told apart.
func New(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
