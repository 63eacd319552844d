package protocol

import (
	"bytes"

	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/internal"
	"github.com/oomph-ac/reckon/oerror"
)

const (
	_ = iota
	IDLogin
	IDReport
	IDCorrection
	IDWarning
	IDDisconnect
)

// MaxPacketSize is the largest packet Decode accepts.
const MaxPacketSize = 1024

// Packet is a message exchanged between a client and the server.
type Packet interface {
	ID() byte
	// Marshal writes the payload of the packet, without its ID, to buf.
	Marshal(buf *bytes.Buffer)
	// Unmarshal reads the payload of the packet from r.
	Unmarshal(r *Reader)
}

// Encode returns the wire form of a packet: its ID followed by its payload.
func Encode(pk Packet) []byte {
	buf := internal.BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer internal.BufferPool.Put(buf)

	buf.WriteByte(pk.ID())
	pk.Marshal(buf)
	return bytes.Clone(buf.Bytes())
}

// Decode decodes a single packet from dat.
func Decode(dat []byte) (Packet, error) {
	if len(dat) == 0 {
		return nil, oerror.New("empty packet")
	}
	if len(dat) > MaxPacketSize {
		return nil, oerror.New("packet too large: %d bytes", len(dat))
	}

	var pk Packet
	switch id := dat[0]; id {
	case IDLogin:
		pk = &Login{}
	case IDReport:
		pk = &Report{}
	case IDCorrection:
		pk = &Correction{}
	case IDWarning:
		pk = &Warning{}
	case IDDisconnect:
		pk = &Disconnect{}
	default:
		return nil, oerror.New(game.ErrorUnknownPacket, id)
	}

	r := NewReader(dat[1:])
	pk.Unmarshal(r)
	if err := r.Err(); err != nil {
		return nil, oerror.New("error decoding packet %d: %v", pk.ID(), err)
	}
	if r.Len() != 0 {
		return nil, oerror.New("%d trailing bytes after packet %d", r.Len(), pk.ID())
	}
	return pk, nil
}
