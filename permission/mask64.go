package permission

import "encoding/binary"

// Mask64 is a 64-bit permission bitmask. Bit 63 is reserved for the root
// grant: a mask with the root bit set holds every registered permission.
type Mask64 uint64

const rootBit = 63

// MaskSize is the encoded size of a [Mask64] in bytes.
const MaskSize = 8

func (m *Mask64) Has(bit int) bool {
	if bit < 0 || bit >= 64 {
		return false
	}

	if (*m & (1 << rootBit)) != 0 {
		return true
	}

	return (*m & (1 << bit)) != 0
}

func (m *Mask64) Set(bit int) {
	if bit < 0 || bit >= 64 {
		return
	}
	*m |= (1 << bit)
}

func (m *Mask64) Clear(bit int) {
	if bit < 0 || bit >= 64 {
		return
	}
	*m &^= (1 << bit)
}

// Union returns the bitwise union of m and other.
func (m Mask64) Union(other Mask64) Mask64 {
	return m | other
}

// IsRoot reports whether the reserved root bit is set.
func (m Mask64) IsRoot() bool {
	return (m & (1 << rootBit)) != 0
}

func (m Mask64) Raw() uint64 {
	return uint64(m)
}

// EncodeMask serializes a mask for embedding in session blobs.
func EncodeMask(m Mask64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, uint64(m))
	return out
}

// DecodeMask is the inverse of [EncodeMask]. Short input yields a zero mask
// rather than an error so that a corrupt blob fails closed (no permissions).
func DecodeMask(data []byte) Mask64 {
	if len(data) != 8 {
		return 0
	}
	return Mask64(binary.BigEndian.Uint64(data))
}
