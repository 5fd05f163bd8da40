package knx

import (
	"encoding/binary"
	"fmt"
	"math"
)

// KNX Datapoint Type encoding constants.
const (
	// dpt5MaxValue is the maximum raw value for DPT5 (1-byte unsigned).
	dpt5MaxValue = 255

	// dpt9MaxExponent is the maximum exponent for DPT9 2-byte float.
	dpt9MaxExponent = 15

	// dpt9MantissaMask is the mask for extracting the mantissa from DPT9.
	dpt9MantissaMask = 0x07FF
)

// EncodeDPT1 encodes a boolean value to 1-bit KNX format.
func EncodeDPT1(value bool) []byte {
	if value {
		return []byte{0x01}
	}
	return []byte{0x00}
}

// DecodeDPT1 decodes a 1-bit KNX value to boolean.
func DecodeDPT1(data []byte) (bool, error) {
	if len(data) < 1 {
		return false, fmt.Errorf("%w: DPT1 requires 1 byte, got %d", ErrDecodingFailed, len(data))
	}
	return (data[0] & 0x01) != 0, nil
}

// EncodeDPT5 encodes a percentage (0-100) to 1-byte KNX format.
//
// DPT 5.001 scales 0-100% linearly onto 0-255. Rounding is
// half-away-from-zero, so 50% maps to 128 (round of 127.5).
func EncodeDPT5(percent float64) []byte {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	value := uint8(math.Round(percent * dpt5MaxValue / 100))
	return []byte{value}
}

// DecodeDPT5 decodes a 1-byte KNX value to a percentage (0-100).
func DecodeDPT5(data []byte) (float64, error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("%w: DPT5 requires 1 byte, got %d", ErrDecodingFailed, len(data))
	}
	return float64(data[0]) * 100 / dpt5MaxValue, nil
}

// EncodeDPT7 encodes a 16-bit unsigned value (DPT 7.x, big-endian).
func EncodeDPT7(value uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, value)
	return buf
}

// DecodeDPT7 decodes a 2-byte KNX value to a 16-bit unsigned integer.
func DecodeDPT7(data []byte) (uint16, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("%w: DPT7 requires 2 bytes, got %d", ErrDecodingFailed, len(data))
	}
	return binary.BigEndian.Uint16(data[0:2]), nil
}

// EncodeDPT9 encodes a float value to the KNX 2-byte floating point format.
//
// Format:
//
//	Byte 0: SEEE EMMM (sign, exponent, mantissa high)
//	Byte 1: MMMM MMMM (mantissa low)
//
// Value = (0.01 × mantissa) × 2^exponent
func EncodeDPT9(value float64) ([]byte, error) {
	if value < -671088.64 || value > 670760.96 {
		return nil, fmt.Errorf("%w: DPT9 value out of range: %.2f", ErrEncodingFailed, value)
	}

	var sign uint16
	if value < 0 {
		sign = 0x8000
		value = -value
	}

	exp := 0
	mantissa := value * 100

	for mantissa > 2047 {
		mantissa /= 2
		exp++
	}

	if exp > dpt9MaxExponent {
		return nil, fmt.Errorf("%w: DPT9 exponent overflow", ErrEncodingFailed)
	}

	m := int16(mantissa)
	if sign != 0 {
		m = -m
	}

	encoded := sign | (uint16(exp) << 11) | (uint16(m) & dpt9MantissaMask)
	return []byte{byte(encoded >> 8), byte(encoded)}, nil
}

// DecodeDPT9 decodes a KNX 2-byte floating point value.
//
// 0x7FFF is the KNX "invalid data" sentinel for all DPT 9.xxx types and
// decodes to an error; callers drop the telegram.
func DecodeDPT9(data []byte) (float64, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("%w: DPT9 requires 2 bytes, got %d", ErrDecodingFailed, len(data))
	}

	raw := uint16(data[0])<<8 | uint16(data[1])

	if raw == 0x7FFF {
		return 0, fmt.Errorf("%w: DPT9 invalid value 0x7FFF (sensor error or not available)", ErrDecodingFailed)
	}

	sign := (raw & 0x8000) != 0
	exp := (raw >> 11) & 0x0F
	mantissa := int16(raw & dpt9MantissaMask)

	if sign {
		mantissa |= -0x800 // sign extend
	}

	return float64(mantissa) * 0.01 * math.Pow(2, float64(exp)), nil
}

// PercentageToWire maps a 0-100 percentage onto the bus's native 0-255
// integer range: round(value × 255/100), half away from zero.
func PercentageToWire(percent float64) uint8 {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	return uint8(math.Round(percent * dpt5MaxValue / 100))
}
