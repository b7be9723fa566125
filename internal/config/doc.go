// Package config provides configuration management for moltyverse.
//
// Configuration is built in layers, later ones winning:
//
//  1. built-in defaults (GetDefaultConfig)
//  2. config.yaml in the configuration directory (default ~/.config/moltyverse,
//     overridable with --config-path)
//  3. MOLTYVERSE_* environment variables, including those from a .env file in
//     the working directory
//
// The result is validated before use. Run `moltyverse config env` for the
// list of environment variables.
package config
