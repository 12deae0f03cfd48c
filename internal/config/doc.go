// Package config loads, normalizes, and validates breathein's TOML
// configuration.
//
// Load resolves the config file (explicit path, ~/.config/breathein/config.toml,
// then ./breathein.toml), decodes it over Default(), expands ~ in every path,
// fills secrets from the environment (OPENAI_API_KEY, OPENROUTER_API_KEY,
// NTFY_TOPIC), and rejects unusable values with field-qualified errors.
//
// Derived file locations (usage JSON, upload CSV, slot database, locks,
// control socket) hang off the data and log directories so every command
// agrees on where state lives.
package config
