package hicluster

import "bytes"

// numSlots is the fixed number of hash slots the keyspace is partitioned
// into.
const numSlots = 16384

// noKeyCommands holds the first-argument tokens (compared byte-for-byte,
// case-sensitively, exactly as the reference implementation does) for
// which a command has no routable key and should go to a random endpoint.
var noKeyCommands = map[string]bool{
	"info":     true,
	"multi":    true,
	"exec":     true,
	"slaveof":  true,
	"config":   true,
	"shutdown": true,
}

// CRC16 computes the CRC-16/XMODEM checksum of data: polynomial 0x1021,
// initial value 0, no input/output reflection, no final xor. This is the
// hash cluster implementations use to map keys onto slots.
func CRC16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// hashtag returns the bytes that should actually be hashed for key: the
// substring strictly between the first '{' and the next '}' if one exists
// and is non-empty, otherwise the whole key.
func hashtag(key []byte) []byte {
	start := bytes.IndexByte(key, '{')
	if start < 0 {
		return key
	}
	end := bytes.IndexByte(key[start+1:], '}')
	if end < 0 {
		return key
	}
	if end == 0 {
		// "{}" - empty tag, hash the whole key.
		return key
	}
	return key[start+1 : start+1+end]
}

// slotOf returns the slot index in [0, numSlots) a key routes to.
func slotOf(key []byte) int {
	return int(CRC16(hashtag(key)) & 0x3FFF)
}

// SlotOf is the exported form of slotOf, for callers that want to compute
// routing information themselves (e.g. to pre-group keys by slot).
func SlotOf(key []byte) int {
	return slotOf(key)
}

// keyOf returns the key argument of a command's argv, and whether one
// exists. Commands whose first argument is in noKeyCommands have no
// routable key.
func keyOf(argv [][]byte) ([]byte, bool) {
	if len(argv) == 0 {
		return nil, false
	}
	if noKeyCommands[string(argv[0])] {
		return nil, false
	}
	if len(argv) < 2 {
		return nil, false
	}
	return argv[1], true
}
