package wmr

const markerByte = 0xFF

type framerState int

const (
	awaitingMarker framerState = iota
	haveFlags
	haveType
	accumulatingData
)

// Framer reassembles frames from the raw byte stream sent by the bridge. Frames are
// introduced by two 0xFF marker bytes and their length is implied by the message
// type, so a corrupted byte only ever costs the frame it landed in: the state machine
// drops back to marker scanning and never has to search backwards.
//
// A Framer is not safe for concurrent use.
type Framer struct {
	state     framerState
	markers   int
	remaining int
	buf       []byte
}

// NewFramer returns a Framer waiting for the first frame marker
func NewFramer() *Framer {
	return &Framer{buf: make([]byte, 0, 64)}
}

// Reset discards any partially assembled frame
func (f *Framer) Reset() {
	f.state = awaitingMarker
	f.markers = 0
	f.remaining = 0
	f.buf = f.buf[:0]
}

// Feed consumes a chunk of the stream and returns every frame completed by it, in
// stream order. Each frame holds flags, type, payload and the two checksum bytes;
// the marker is not included. Partial frames carry over to the next call.
func (f *Framer) Feed(chunk []byte) [][]byte {
	var frames [][]byte

	for _, b := range chunk {
		switch f.state {
		case awaitingMarker:
			if b != markerByte {
				f.markers = 0
				continue
			}
			f.markers++
			if f.markers == 2 {
				f.markers = 0
				f.buf = f.buf[:0]
				f.state = haveFlags
			}

		case haveFlags:
			f.buf = append(f.buf, b)
			f.state = haveType

		case haveType:
			length := FrameLength(MessageType(b))
			if length < 0 {
				f.Reset()
				continue
			}
			f.buf = append(f.buf, b)
			f.remaining = length - 2
			f.state = accumulatingData

		case accumulatingData:
			f.buf = append(f.buf, b)
			f.remaining--
			if f.remaining == 0 {
				frame := make([]byte, len(f.buf))
				copy(frame, f.buf)
				frames = append(frames, frame)
				f.Reset()
			}
		}
	}

	return frames
}
