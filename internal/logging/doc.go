// Package logging sets up structured slog output for lexdebate.
//
// Logs are JSON. By default they go to stderr; when a file is configured
// they are also written to a size-rotated file under ~/.lexdebate/logs/.
// MCP mode writes to the file only, since stdout carries JSON-RPC.
package logging
