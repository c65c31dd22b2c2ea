// Package config loads typed configuration structs from environment
// variables (with optional .env support), caching each type once per
// process.
package config
