// pkg/version/version.go

package version

import "fmt"

var (
	version      = "1.0.0-dev"
	revision     = "$Format:%h$"
	revisionDate = "$Format:%as$"
)

// Version returns the version in format - `VERSION (REVISIONDATE REVISION)`
// values are assigned through -ldflags at build time
func Version() string {
	return fmt.Sprintf("%v (%v %v)", version, revisionDate, revision)
}

