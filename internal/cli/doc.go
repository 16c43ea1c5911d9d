// Package cli provides command-line interface setup and configuration
// for the rode application. It builds the cobra command tree, binds flags
// to viper keys and turns the merged configuration into typed settings.
package cli
