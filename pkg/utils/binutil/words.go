package binutil

// ParseUint16 parses one big endian register out of a modbus payload.
func ParseUint16(buf []byte) uint16 {
	return uint16(buf[0])<<8 + uint16(buf[1])
}

// BytesToWords splits a register read payload into 16 bit words. Modbus
// payloads carry registers as big endian byte pairs.
func BytesToWords(buf []byte) []uint16 {
	words := make([]uint16, 0, len(buf)/2)
	for i := 0; i+1 < len(buf); i += 2 {
		words = append(words, ParseUint16(buf[i:i+2]))
	}
	return words
}

// ExpandBits unpacks the packed bit payload of a coil or discrete input read
// into one word per bit, least significant bit first.
func ExpandBits(buf []byte, count int) []uint16 {
	words := make([]uint16, count)
	for i := 0; i < count; i++ {
		if i>>3 >= len(buf) {
			break
		}
		if buf[i>>3]&(1<<(i&0x07)) > 0 {
			words[i] = 1
		}
	}
	return words
}

// AssembleUint32 builds a 32 bit value from two words. The first received
// word is most significant unless reversed.
func AssembleUint32(words []uint16, reversed bool) uint64 {
	if reversed {
		return uint64(words[1])<<16 | uint64(words[0])
	}
	return uint64(words[0])<<16 | uint64(words[1])
}

// AssembleUint64 builds a 64 bit value from four words. The first received
// word is most significant unless reversed.
func AssembleUint64(words []uint16, reversed bool) uint64 {
	if reversed {
		return uint64(words[3])<<48 | uint64(words[2])<<32 | uint64(words[1])<<16 | uint64(words[0])
	}
	return uint64(words[0])<<48 | uint64(words[1])<<32 | uint64(words[2])<<16 | uint64(words[3])
}
