// Package app contains the core application logic: configuration, logger
// setup, and the load-validate-run lifecycle, decoupled from any specific
// entrypoint like the cmd/nodeflow CLI.
package app
