// Package cli constructs the fieldpatch command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives around the patch command.
package cli
