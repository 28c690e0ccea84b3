// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package crc32ck implements the CRC-32 checksum helper used
// by the debug scene serializer (see scene.Serialize) to give
// each emitted line a short, stable tag for diffing between
// runs without hashing the full text.
package crc32ck

import "hash/crc32"

// table is the IEEE polynomial table, computed once.
var table = crc32.MakeTable(crc32.IEEE)

// Checksum returns the CRC-32/IEEE checksum of data.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, table)
}

// Updater accumulates a checksum across multiple writes, for
// callers that build up a serialized line incrementally.
type Updater struct {
	crc uint32
}

// Write folds data into the running checksum. It never
// returns an error.
func (u *Updater) Write(data []byte) (int, error) {
	u.crc = crc32.Update(u.crc, table, data)
	return len(data), nil
}

// Sum32 returns the checksum accumulated so far.
func (u *Updater) Sum32() uint32 { return u.crc }
