// Package config loads the voicedesk runtime configuration.
//
// Values are layered by viper: command-line flags win over environment
// variables, which win over an optional YAML file, which wins over the
// built-in defaults. Keys are kebab-case; the matching environment
// variable is the upper-cased key with dashes replaced by underscores, so
// retell-signing-secret is read from RETELL_SIGNING_SECRET.
package config
