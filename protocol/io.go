package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf8"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxStringLength is the longest string a packet may carry.
const MaxStringLength = 256

var errShort = errors.New("unexpected end of packet")

// Reader reads little endian values from a packet payload. The first error encountered is kept and
// every read after it returns a zero value.
type Reader struct {
	buf []byte
	err error
}

// NewReader creates a Reader over dat.
func NewReader(dat []byte) *Reader {
	return &Reader{buf: dat}
}

// Err returns the first error encountered while reading.
func (r *Reader) Err() error {
	return r.err
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf)
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = errShort
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

// Bool ...
func (r *Reader) Bool() bool {
	b := r.next(1)
	return b != nil && b[0] == 1
}

// Uint32 ...
func (r *Reader) Uint32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Float32 ...
func (r *Reader) Float32() float32 {
	return math.Float32frombits(r.Uint32())
}

// Vec3 ...
func (r *Reader) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{r.Float32(), r.Float32(), r.Float32()}
}

// String reads a string prefixed with its length as a uint16.
func (r *Reader) String() string {
	b := r.next(2)
	if b == nil {
		return ""
	}
	l := int(binary.LittleEndian.Uint16(b))
	if l > MaxStringLength {
		r.err = errors.New("string exceeds maximum length")
		return ""
	}
	return string(r.next(l))
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
		return
	}
	buf.WriteByte(0)
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func writeFloat32(buf *bytes.Buffer, v float32) {
	writeUint32(buf, math.Float32bits(v))
}

func writeVec3(buf *bytes.Buffer, v mgl32.Vec3) {
	writeFloat32(buf, v[0])
	writeFloat32(buf, v[1])
	writeFloat32(buf, v[2])
}

func writeString(buf *bytes.Buffer, s string) {
	if len(s) > MaxStringLength {
		// Never split a rune.
		n := MaxStringLength
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}
	buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(len(s))))
	buf.WriteString(s)
}
