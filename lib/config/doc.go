// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for procsingleton.
//
// Configuration is loaded from a single file specified by either the
// PROCSINGLETON_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no ~/.config discovery and no
// automatic file search. A binary given neither runs on [Default].
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${USER_DATA_DIR}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- profile location, retry policy, logging and metrics
//   - [Default] -- returns a Config with the stock notify policy
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other procsingleton packages.
package config
