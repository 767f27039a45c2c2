// Package ui provides helpers for formatting human-readable console output.
//
// Git invocations made while patching a repository are rendered as short
// progress lines when console logging is selected, while the structured
// logger keeps the full command telemetry.
package ui
