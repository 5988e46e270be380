// Package app contains the core application logic. It owns the loaded
// benchmark model and runs the generate, sweep and summarize stages,
// decoupled from any specific entrypoint like a CLI.
package app
