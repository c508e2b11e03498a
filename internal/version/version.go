// Package version holds the server version, stamped at build time.
package version

var (
	// Version is the semantic version of the seminote server.
	Version = "0.3.0"
	// DevVersion is reported when running from source.
	DevVersion = Version + "-dev"
)

// GetCurrentVersion returns the version string for the given mode.
func GetCurrentVersion(mode string) string {
	if mode == "dev" {
		return DevVersion
	}
	return Version
}
