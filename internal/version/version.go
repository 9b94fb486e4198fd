package version

import (
	"fmt"

	"github.com/fatih/color"
)

// Build metadata for rfc. Overridable through -ldflags -X.
var (
	Version    = "0.1.0-dev"
	GitCommit  = ""
	GitMessage = ""
	BuildDate  = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Colored paints the numeric parts of Version. Pre-release suffixes stay plain.
func Colored() string {
	var major, minor, patch int
	var rest string
	n, _ := fmt.Sscanf(Version, "%d.%d.%d%s", &major, &minor, &patch, &rest)
	if n < 3 {
		return Version
	}
	return versionMajorColor.Sprint(major) + "." + versionMinorColor.Sprint(minor) + "." +
		versionPatchColor.Sprint(patch) + rest
}

// Line is the one-line form printed by `rfc version`.
func Line(colored bool) string {
	v := Version
	if colored {
		v = Colored()
	}
	out := "rfc " + v
	if GitCommit != "" {
		out += " (" + GitCommit
		if BuildDate != "" {
			out += ", " + BuildDate
		}
		out += ")"
	}
	return out
}
