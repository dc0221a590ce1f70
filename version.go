// Package hrl holds the release version of the hrl module.
package hrl

// Version is the current release of hrl.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
