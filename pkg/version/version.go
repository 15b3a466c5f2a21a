// Package version holds the build version, overridable at link time:
//
//	go build -ldflags "-X github.com/statcompass/statcompass/pkg/version.Version=v1.2.3"
package version

// Version is the release identifier reported by --version.
var Version = "dev"
