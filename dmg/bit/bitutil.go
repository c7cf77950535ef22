package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// Low returns the low (LSB) part of a 16 bit number.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) part of a 16 bit number.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet will check if the bit at the specified index is set to 1 or not.
func IsSet(index, byte uint8) bool {
	return ((byte >> index) & 1) == 1
}

// Set will return the passed byte with the bit at the specified index set to 1.
func Set(index, byte uint8) uint8 {
	return byte | (1 << index)
}

// Reset will return the passed byte with the bit at the specified index set to 0.
func Reset(index, byte uint8) uint8 {
	return byte & ((1 << index) ^ 0xFF)
}

// SetTo sets or resets the bit at index depending on the passed condition.
func SetTo(index, byte uint8, set bool) uint8 {
	if set {
		return Set(index, byte)
	}
	return Reset(index, byte)
}

// GetBitValue returns a byte set to the value of the bit at the specified index.
func GetBitValue(index, byte uint8) uint8 {
	if IsSet(index, byte) {
		return 1
	}

	return 0
}

// ExtractBits extracts bits from highBit to lowBit (inclusive)
// Example: ExtractBits(0b11010110, 6, 4) -> 0b101 (extracts bits 6, 5, 4)
func ExtractBits(value uint8, highBit, lowBit uint8) uint8 {
	shift := lowBit
	width := highBit - lowBit + 1
	mask := uint8((1 << width) - 1)
	return (value >> shift) & mask
}

// HalfCarryAdd reports a carry from bit 3 into bit 4 when adding a, b and carry.
func HalfCarryAdd(a, b, carry uint8) bool {
	return (a&0x0F)+(b&0x0F)+carry > 0x0F
}

// CarryAdd reports a carry out of bit 7 when adding a, b and carry.
func CarryAdd(a, b, carry uint8) bool {
	return uint16(a)+uint16(b)+uint16(carry) > 0xFF
}

// HalfBorrowSub reports a borrow from bit 4 into bit 3 when computing a - b - carry.
func HalfBorrowSub(a, b, carry uint8) bool {
	return int(a&0x0F)-int(b&0x0F)-int(carry) < 0
}

// BorrowSub reports a borrow out of bit 8 when computing a - b - carry.
func BorrowSub(a, b, carry uint8) bool {
	return int(a)-int(b)-int(carry) < 0
}

// HalfCarryAdd16 reports a carry from bit 11 into bit 12.
func HalfCarryAdd16(a, b uint16) bool {
	return (a&0x0FFF)+(b&0x0FFF) > 0x0FFF
}

// CarryAdd16 reports a carry out of bit 15.
func CarryAdd16(a, b uint16) bool {
	return uint32(a)+uint32(b) > 0xFFFF
}
