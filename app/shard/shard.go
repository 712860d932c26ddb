// Package shard deterministically partitions the video keyspace so that
// independent processes can drain disjoint subsets of the catalog without
// any coordination.
package shard

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
)

// ErrInvalidShard indicates an out-of-range shard index or a non-positive
// shard count.
var ErrInvalidShard = errors.New("invalid shard")

// Validate checks that shardIndex addresses a shard within a partition of
// shardCount shards.
func Validate(shardIndex, shardCount int) error {
	if shardCount < 1 {
		return fmt.Errorf("%w: shard count %d must be >= 1", ErrInvalidShard, shardCount)
	}
	if shardIndex < 0 || shardIndex >= shardCount {
		return fmt.Errorf("%w: shard index %d out of range [0, %d)", ErrInvalidShard, shardIndex, shardCount)
	}
	return nil
}

// Of maps a video id to its shard index. The mapping is SHA-256 of the id
// interpreted as a big-endian integer, modulo shardCount. SHA-256 is fixed
// here on purpose: shard membership must be identical across runs, processes
// and machines, so a seeded or platform-dependent hash would not do.
func Of(videoID string, shardCount int) int {
	sum := sha256.Sum256([]byte(videoID))
	var n big.Int
	n.SetBytes(sum[:])
	return int(n.Mod(&n, big.NewInt(int64(shardCount))).Int64())
}

// Prefix returns the two-character subdirectory for a video id. The fan-out
// keeps directory entry counts manageable with hundreds of thousands of
// files under one root.
func Prefix(videoID string) string {
	if len(videoID) < 2 {
		return videoID
	}
	return videoID[:2]
}

// Path returns the canonical artifact path root/id[:2]/id<ext> for a video.
// ext must include the leading dot.
func Path(root, videoID, ext string) string {
	return filepath.Join(root, Prefix(videoID), videoID+ext)
}
