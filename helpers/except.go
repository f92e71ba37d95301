// Except.go: Contains functions to make handling panics less PITA

package helpers

import (
	"fmt"

	"github.com/getsentry/raven-go"
	"github.com/sirupsen/logrus"
)

// Recover recover()s, logs the error and sends it to sentry.
// Use it deferred at the top of goroutines.
func Recover(log logrus.FieldLogger) {
	err := recover()
	if err != nil {
		log.Errorf("recovered from panic: %#v", err)
		raven.CaptureError(fmt.Errorf("%#v", err), map[string]string{})
	}
}

// CaptureError sends $err with $tags to sentry
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	raven.CaptureError(err, tags)
}
