// SPDX-License-Identifier: MPL-2.0

// Package cache stores transform results by content-addressed key.
//
// TwoTier keeps a bounded in-memory LRU in front of a directory of JSON
// files named "<coarseTimestamp>-<key>". Disk writes happen in the
// background and never fail a caller; unreadable entries are deleted on
// read. Memory is the unbounded, non-persisted variant used when caching
// to disk is disabled.
package cache
