// Package observability holds the logging, metrics and tracing subpackages
// shared by the API server, the watchlist worker and the CLI.
package observability
