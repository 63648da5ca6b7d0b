package io

// SegmentList is an ordered sequence of byte ranges read from the
// transport. The segments are views over the client's fill buffers so a
// read never forces a copy into one contiguous buffer; consumers that
// need contiguous data call Bytes.
type SegmentList [][]byte

// Len returns the total number of bytes across all segments.
func (s SegmentList) Len() int {
	n := 0
	for _, segment := range s {
		n += len(segment)
	}
	return n
}

// Bytes flattens the segment list into a single copied buffer.
func (s SegmentList) Bytes() []byte {
	buf := make([]byte, 0, s.Len())
	for _, segment := range s {
		buf = append(buf, segment...)
	}
	return buf
}

// String returns the flattened content as text.
func (s SegmentList) String() string {
	return string(s.Bytes())
}

// EndsWith reports whether the segment list ends with the given byte
// sequence, walking backwards across segment boundaries.
func (s SegmentList) EndsWith(sequence []byte) bool {
	state := len(sequence) - 1

	for i := len(s) - 1; i >= 0 && state >= 0; i-- {
		for j := len(s[i]) - 1; j >= 0 && state >= 0; j-- {
			if s[i][j] != sequence[state] {
				return false
			}
			state--
		}
	}

	return state < 0
}

// TrimEnd removes exactly count bytes from the end of the list,
// dropping trailing segments that are consumed entirely and shortening
// the last partially consumed one. The segment views themselves are
// never mutated.
func (s SegmentList) TrimEnd(count int) SegmentList {
	trimmed := make(SegmentList, len(s))
	copy(trimmed, s)

	remaining := count
	for i := len(trimmed) - 1; i >= 0 && remaining > 0; i-- {
		n := min(remaining, len(trimmed[i]))

		if n == len(trimmed[i]) {
			trimmed = trimmed[:i]
		} else {
			trimmed[i] = trimmed[i][:len(trimmed[i])-n]
		}

		remaining -= n
	}

	return trimmed
}

// trimSequence removes the byte sequence from the end of the list when
// present, and returns the list unchanged when it is not.
func (s SegmentList) trimSequence(sequence []byte) SegmentList {
	if s.EndsWith(sequence) {
		return s.TrimEnd(len(sequence))
	}
	return s
}

// unstuff removes the dot-stuffing from a message body. Every
// occurrence of the 4-byte pattern CR LF '.' '.' is dropped from the
// output in its entirety and the scan resumes immediately after the
// match. The pattern may span segment boundaries.
func unstuff(segments SegmentList) SegmentList {
	sequence := []byte{13, 10, 46, 46}

	var out SegmentList

	// emitSeg/emitOff mark where the next output range begins.
	emitSeg, emitOff := 0, 0

	// emit appends the bytes in [emit, (toSeg,toOff)) to the output.
	emit := func(toSeg, toOff int) {
		for i := emitSeg; i <= toSeg && i < len(segments); i++ {
			lo := 0
			if i == emitSeg {
				lo = emitOff
			}
			hi := len(segments[i])
			if i == toSeg {
				hi = toOff
			}
			if hi > lo {
				out = append(out, segments[i][lo:hi])
			}
		}
	}

	state := 0
	for si, segment := range segments {
		for i, b := range segment {
			if b == sequence[state] {
				state++
				if state == len(sequence) {
					startSeg, startOff := rewind(segments, si, i, len(sequence)-1)
					emit(startSeg, startOff)
					emitSeg, emitOff = si, i+1
					state = 0
				}
				continue
			}
			if b == sequence[0] {
				state = 1
			} else {
				state = 0
			}
		}
	}

	if len(segments) > 0 {
		last := len(segments) - 1
		emit(last, len(segments[last]))
	}

	return out
}

// rewind steps count positions backwards from (seg, off), skipping
// empty segments.
func rewind(segments SegmentList, seg, off, count int) (int, int) {
	for count > 0 {
		if off >= count {
			return seg, off - count
		}
		count -= off
		seg--
		for seg >= 0 && len(segments[seg]) == 0 {
			seg--
		}
		if seg < 0 {
			return 0, 0
		}
		off = len(segments[seg])
	}
	return seg, off
}
