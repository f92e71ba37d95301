package version

import "github.com/sirupsen/logrus"

// Version related vars
// Set by compiler
var (
	// BOT_VERSION example: 0.5.2-4-g205bbb8
	BOT_VERSION string = "DEV_SNAPSHOT"

	// BUILD_TIME example: Fri Jan  6 00:45:46 CET 2017
	BUILD_TIME string = "UNSET"

	// BUILD_USER example: sn0w
	BUILD_USER string = "UNSET"
)

// Released reports whether the binary was built with version info
func Released() bool {
	return BOT_VERSION != "DEV_SNAPSHOT"
}

// DumpInfo dumps all above vars
func DumpInfo(log logrus.FieldLogger) {
	log = log.WithField("module", "version")
	log.Debug("BOT VERSION: " + BOT_VERSION)
	log.Debug("BUILD TIME: " + BUILD_TIME)
	log.Debug("BUILD USER: " + BUILD_USER)
}
