// Package utils exposes reusable helpers consumed by the CLI entrypoint and commands.
//
// ConfigurationLoader layers embedded defaults, configuration files, and
// FIELDPATCH_* environment variables through Viper. LoggerFactory builds the zap
// loggers, and CommandContextAccessor carries per-invocation values such as the
// run identifier through cobra command contexts.
package utils
