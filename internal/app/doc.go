// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the reconciliation lifecycle (load, walk,
// write back, report), decoupled from any specific entrypoint like a CLI.
package app
