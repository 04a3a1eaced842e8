package transport

// Checksum is the Robofocus frame checksum: the unsigned arithmetic
// sum of the first eight bytes, modulo 256. Unlike the teacher
// firmware's CRC16 (Klipper's polynomial, tuned for its own framing),
// Robofocus hardware defines checksum this simply; there is nothing to
// port beyond the one-line reduction.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum += c
	}
	return sum
}
