// Package sysinfo captures a fingerprint of the recording environment so
// records carry enough context to reproduce where they were made.
package sysinfo

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/tracer"
)

// FieldName is the package field the fingerprint is stored under.
const FieldName = "system_info"

// Collect gathers the environment fingerprint. Hostname and package list
// are best effort, a record is never blocked on missing build metadata.
func Collect() map[string]interface{} {
	info := map[string]interface{}{
		"os":        fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		"runtime":   runtime.Version(),
		"timestamp": common.Now(),
	}
	if hostname, err := os.Hostname(); err == nil {
		info["hostname"] = hostname
	}
	if packages := collectPackages(); len(packages) > 0 {
		info["packages"] = packages
	}
	return info
}

func collectPackages() []string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	packages := make([]string, 0, len(buildInfo.Deps)+1)
	if buildInfo.Main.Path != "" {
		packages = append(packages, buildInfo.Main.Path+"@"+buildInfo.Main.Version)
	}
	for _, dep := range buildInfo.Deps {
		packages = append(packages, dep.Path+"@"+dep.Version)
	}
	return packages
}

// Apply stores the fingerprint on the accumulator under FieldName.
func Apply(acc *tracer.Accumulator) {
	acc.UpdateKV(FieldName, Collect())
}
