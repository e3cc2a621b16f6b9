package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "0.1.0-dev"
	commit  = ""
)

func getVersionString() string {
	rev := commit
	if rev == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
					rev = setting.Value[:12]
				}
			}
		}
	}
	if rev == "" {
		return fmt.Sprintf("%s (%s)", version, runtime.Version())
	}
	return fmt.Sprintf("%s-%s (%s)", version, rev, runtime.Version())
}
