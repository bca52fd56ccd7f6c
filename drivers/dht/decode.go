package dht

import (
	"strconv"

	"dhtcode-go/errcode"
)

// Protocol constants.
const (
	// FramePulses is the number of pulses carrying one 40-bit frame:
	// 40 (low, high) pairs.
	FramePulses = 80

	// HighThreshold separates the two high-pulse widths: a high pulse longer
	// than this many microseconds is a 1, anything else a 0.
	HighThreshold = 51

	frameBytes    = 5
	pulsesPerByte = 16
)

// Pulses is a captured pulse train in microseconds, alternating low/high and
// starting with a low pulse.
type Pulses []uint16

// Frame is one decoded transmission:
// [humidity hi, humidity lo, temperature hi, temperature lo, checksum].
type Frame [frameBytes]byte

// Classify maps one high-pulse duration to its bit value.
func Classify(high uint16) byte {
	if high > HighThreshold {
		return 1
	}
	return 0
}

// Bits classifies the high pulses of the first FramePulses pulses. Low pulses
// (even indices) are skipped, so bit i comes from p[2i+1].
func Bits(p Pulses) ([]byte, error) {
	if len(p) < FramePulses {
		return nil, &errcode.E{
			C:   errcode.InsufficientData,
			Op:  "dht.decode",
			Msg: "got " + strconv.Itoa(len(p)) + " of " + strconv.Itoa(FramePulses) + " pulses",
		}
	}
	bits := make([]byte, 0, FramePulses/2)
	for i := 1; i < FramePulses; i += 2 {
		bits = append(bits, Classify(p[i]))
	}
	return bits, nil
}

// PackByte packs bits most-significant first. Only the low bit of each
// element is used; at most 8 bits contribute.
func PackByte(bits []byte) byte {
	var b byte
	for _, bit := range bits {
		b = b<<1 | bit&1
	}
	return b
}

// Decode turns a pulse train into a frame. Each byte is built from one
// 16-pulse window of which the 8 high pulses carry data. The checksum is not
// verified here; see Frame.Verify.
func Decode(p Pulses) (Frame, error) {
	var f Frame
	bits, err := Bits(p)
	if err != nil {
		return f, err
	}
	const bitsPerByte = pulsesPerByte / 2
	for i := range f {
		f[i] = PackByte(bits[i*bitsPerByte : (i+1)*bitsPerByte])
	}
	return f, nil
}

// Checksum returns the modulo-256 sum of the four data bytes.
func (f Frame) Checksum() byte {
	return f[0] + f[1] + f[2] + f[3]
}

// Verify reports ChecksumMismatch when the transmitted checksum disagrees
// with the data bytes.
func (f Frame) Verify() error {
	if sum := f.Checksum(); sum != f[4] {
		return &errcode.E{
			C:   errcode.ChecksumMismatch,
			Op:  "dht.decode",
			Msg: "sum " + strconv.Itoa(int(sum)) + ", frame says " + strconv.Itoa(int(f[4])),
		}
	}
	return nil
}

// Humidity returns the raw 16-bit humidity word.
func (f Frame) Humidity() uint16 { return uint16(f[0])<<8 | uint16(f[1]) }

// Temperature returns the raw 16-bit temperature word.
func (f Frame) Temperature() uint16 { return uint16(f[2])<<8 | uint16(f[3]) }
