// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by package tests: project trees
// on disk, working directory and environment changes that fail the test on
// error, and a controllable clock.
package testutil
