// Package cli turns command-line flags into an app.Config and maps usage
// mistakes to exit code 2.
package cli
