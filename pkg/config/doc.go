// Package config loads env-tagged configuration structs from the process
// environment, with optional .env support for local development. Parsed
// configs are cached per type so every caller observes the same snapshot.
package config
