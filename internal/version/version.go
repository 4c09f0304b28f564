package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the trackstack CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Pretty renders v with its major, minor and patch components colored.
// Versions that are not dotted triples are returned unchanged.
func Pretty(v string, useColor bool) string {
	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}
	parts := strings.Split(core, ".")
	if !useColor || len(parts) != 3 {
		return v
	}
	colors := []*color.Color{majorColor, minorColor, patchColor}
	for i, p := range parts {
		c := *colors[i]
		c.EnableColor()
		parts[i] = c.Sprint(p)
	}
	return strings.Join(parts, ".") + suffix
}
