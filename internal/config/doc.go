// Package config provides centralized configuration management for the
// AgroNexus dashboard service.
//
// Configuration is loaded from environment variables (AGRO_ prefix) with an
// optional config.yaml overlay; environment values take precedence. All file
// paths resolve against the executable directory so that the binary behaves
// identically regardless of the working directory it is launched from.
package config
