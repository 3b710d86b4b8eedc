// Package config loads typed configuration structs from environment
// variables, with an optional .env file for local development. Each config
// type is parsed once per process and cached, so repeated loads of the same
// type are cheap and consistent.
package config
