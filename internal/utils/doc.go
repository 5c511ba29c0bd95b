// Package utils exposes helpers shared by every pushguard command.
//
// ConfigurationLoader layers embedded defaults, configuration files and
// PUSHGUARD_* environment variables through Viper. LoggerFactory builds zap
// loggers writing to stderr so the report on stdout stays machine readable.
package utils
