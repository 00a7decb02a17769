// Package ansi strips ANSI escape sequences. tsout's prefixes carry raw
// color codes, so tests (and anything that wants the logical line text)
// need a way to recover the uncolored bytes.
package ansi

// StripBytes removes ANSI escape sequences from b, returning a new slice.
// CSI sequences (ESC '[' ... final byte in 0x40-0x7e) are removed whole;
// any other ESC is dropped along with the byte that follows it.
func StripBytes(b []byte) []byte {
	out := make([]byte, 0, len(b))

	for i := 0; i < len(b); i++ {
		if b[i] != 0x1b {
			out = append(out, b[i])
			continue
		}

		if i+1 < len(b) && b[i+1] == '[' {
			i++
			for i+1 < len(b) {
				i++
				if b[i] >= 0x40 && b[i] <= 0x7e {
					break
				}
			}

			continue
		}

		i++ // two-byte escape, e.g. ESC c
	}

	return out
}

// Strip removes ANSI escape sequences from a string.
func Strip(s string) string {
	return string(StripBytes([]byte(s)))
}
