package wmr

import (
	"bytes"
	"testing"
)

func uvFrame(level byte) []byte {
	return EncodeFrame(0x00, TypeUV, []byte{0x00, level})
}

func TestFramerExtractsFrames(t *testing.T) {
	uv := uvFrame(5)
	pressure := EncodeFrame(0x00, TypeAirPressure, []byte{0xF5, 0x33, 0xF9, 0x03})

	tests := []struct {
		name   string
		chunks [][]byte
		want   [][]byte
	}{
		{
			name:   "single frame",
			chunks: [][]byte{uv},
			want:   [][]byte{uv[2:]},
		},
		{
			name:   "junk before marker",
			chunks: [][]byte{append([]byte{0x01, 0x02, 0xFF, 0x13, 0x00}, uv...)},
			want:   [][]byte{uv[2:]},
		},
		{
			name:   "two frames back to back",
			chunks: [][]byte{append(append([]byte{}, uv...), pressure...)},
			want:   [][]byte{uv[2:], pressure[2:]},
		},
		{
			name:   "frame split across reads",
			chunks: [][]byte{pressure[:3], pressure[3:5], pressure[5:]},
			want:   [][]byte{pressure[2:]},
		},
		{
			name:   "unknown type resynchronizes",
			chunks: [][]byte{append([]byte{0xFF, 0xFF, 0x00, 0x99, 0x12, 0x34}, uv...)},
			want:   [][]byte{uv[2:]},
		},
		{
			name:   "lone marker byte is not a frame start",
			chunks: [][]byte{append([]byte{0xFF, 0x00, 0x47}, uv...)},
			want:   [][]byte{uv[2:]},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFramer()
			var got [][]byte
			for _, c := range tt.chunks {
				got = append(got, f.Feed(c)...)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("got %d frames, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !bytes.Equal(got[i], tt.want[i]) {
					t.Errorf("frame %d = % x, want % x", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFramerPayloadMatchesInput(t *testing.T) {
	payload := []byte{0x01, 0x90, 0x01, 0x37, 0x64, 0x00, 0x00, 0x20}
	wire := EncodeFrame(0x40, TypeTempHumidity, payload)
	stream := append([]byte{0x42, 0x00, 0xFE}, wire...)

	frames := NewFramer().Feed(stream)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}

	raw := frames[0]
	if len(raw) != FrameLength(TypeTempHumidity) {
		t.Fatalf("frame length = %d, want %d", len(raw), FrameLength(TypeTempHumidity))
	}
	if got := raw[2 : len(raw)-2]; !bytes.Equal(got, payload) {
		t.Errorf("payload = % x, want % x", got, payload)
	}
}

func TestFramerResetDropsPartialFrame(t *testing.T) {
	uv := uvFrame(3)
	f := NewFramer()

	if frames := f.Feed(uv[:4]); len(frames) != 0 {
		t.Fatalf("partial feed produced %d frames", len(frames))
	}
	f.Reset()

	frames := f.Feed(uv)
	if len(frames) != 1 || !bytes.Equal(frames[0], uv[2:]) {
		t.Errorf("after reset got %x, want one frame % x", frames, uv[2:])
	}
}

func TestFramerOutputIsNotAliased(t *testing.T) {
	f := NewFramer()
	first := f.Feed(uvFrame(1))
	second := f.Feed(uvFrame(9))

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one frame per feed, got %d and %d", len(first), len(second))
	}
	if first[0][3] != 1 {
		t.Errorf("first frame was overwritten by the second: % x", first[0])
	}
}
