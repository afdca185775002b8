// Package config loads nodelog settings from an optional CUE file and the
// environment, validated against an embedded CUE schema.
package config
