package version

import "fmt"

// set via ldflags during build, e.g.
// -X github.com/mpapenbr/raceanalysis-service/version.Version=v0.1.0
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var FullVersion = fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
