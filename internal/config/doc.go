// Package config loads and validates application configuration from
// environment variables (prefix QUIZGEN_) and an optional config file.
package config
