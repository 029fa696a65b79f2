// Package config provides configuration structures and utilities for uiscout.
// It holds crawl settings taken from CLI flags, per-host site settings
// loaded from a .uiscout YAML file, and XDG directory helpers.
package config
