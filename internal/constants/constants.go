// Package constants holds build-wide values shared by the collector binaries.
package constants

import "runtime"

// Version identifies the collector build
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

