// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for codescan.
//
// Precedence is ENV > file > defaults. The resulting AppConfig is built once
// at startup and treated as read-only by every other package.
package config
