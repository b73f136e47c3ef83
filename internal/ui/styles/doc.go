// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the parley color palette and lipgloss styles.
//
// Every color is an AdaptiveColor carrying a light and a dark variant;
// SetDarkMode flips which variant renders, which is how the persisted
// theme toggle works without rebuilding any style.
package styles
