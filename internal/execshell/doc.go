// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging and credential redaction,
// OSCommandRunner runs processes through os/exec, and CommandMessageFormatter
// turns git invocations into human-readable progress lines for console output.
package execshell
