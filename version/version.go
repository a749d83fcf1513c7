// Package version holds build information for the vserver binary.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version in string format - set at build time
	Version = "0.1.0"
	// GitCommit is the git commit that was compiled - set at build time
	GitCommit = ""
	// BuildDate is the date of the build - set at build time
	BuildDate = ""
	// GoVersion is the version of go used to compile
	GoVersion = runtime.Version()
	// Platform is the operating system and architecture combination
	Platform = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	// AppName is the name of the application
	AppName = "vserver"
	// Description of the application
	Description = "An in-process virtual HTTP server for prototyping frontends"
)

// Info returns a formatted version string with additional build information.
func Info() string {
	s := fmt.Sprintf("%s version %s", AppName, Version)

	if GitCommit != "" {
		s += fmt.Sprintf("\nGit commit: %s", GitCommit)
	}
	if BuildDate != "" {
		s += fmt.Sprintf("\nBuild date: %s", BuildDate)
	}

	s += fmt.Sprintf("\nGo version: %s", GoVersion)
	s += fmt.Sprintf("\nPlatform: %s", Platform)

	return s
}
