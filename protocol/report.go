package protocol

import (
	"bytes"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/movement"
	"github.com/oomph-ac/reckon/world"
)

// Login is the first packet a client sends. Name identifies the entity of the client to everyone else.
type Login struct {
	Name string
}

func (*Login) ID() byte {
	return IDLogin
}

func (pk *Login) Marshal(buf *bytes.Buffer) {
	writeString(buf, pk.Name)
}

func (pk *Login) Unmarshal(r *Reader) {
	pk.Name = r.String()
}

// Report is a dead reckoning update of an entity. Clients send reports of their own entity with an
// empty Entity; the server relays accepted reports to other clients with Entity set to the reporter.
type Report struct {
	Entity string
	// Soft is true if the receiver should blend towards the report instead of snapping to it.
	Soft bool

	OnGround        bool
	Position        mgl32.Vec3
	Sector          string
	Yaw             float32
	BodyVelocity    mgl32.Vec3
	WorldVelocity   mgl32.Vec3
	AngularVelocity float32
}

// NewReport creates a report of the snapshot passed.
func NewReport(entity string, snap movement.Snapshot, soft bool) *Report {
	return &Report{
		Entity:          entity,
		Soft:            soft,
		OnGround:        snap.OnGround,
		Position:        snap.Position,
		Sector:          snap.SectorName,
		Yaw:             snap.Yaw,
		BodyVelocity:    snap.BodyVelocity,
		WorldVelocity:   snap.WorldVelocity,
		AngularVelocity: snap.AngularVelocity,
	}
}

// Snapshot converts the report into a snapshot received at the time passed.
func (pk *Report) Snapshot(received time.Time) movement.Snapshot {
	return movement.Snapshot{
		OnGround:        pk.OnGround,
		Position:        pk.Position,
		Yaw:             pk.Yaw,
		Sector:          world.IDFromName(pk.Sector),
		SectorName:      pk.Sector,
		BodyVelocity:    pk.BodyVelocity,
		WorldVelocity:   pk.WorldVelocity,
		AngularVelocity: pk.AngularVelocity,
		Received:        received,
	}
}

func (*Report) ID() byte {
	return IDReport
}

func (pk *Report) Marshal(buf *bytes.Buffer) {
	writeString(buf, pk.Entity)
	writeBool(buf, pk.Soft)
	writeBool(buf, pk.OnGround)
	writeVec3(buf, pk.Position)
	writeString(buf, pk.Sector)
	writeFloat32(buf, pk.Yaw)
	writeVec3(buf, pk.BodyVelocity)
	writeVec3(buf, pk.WorldVelocity)
	writeFloat32(buf, pk.AngularVelocity)
}

func (pk *Report) Unmarshal(r *Reader) {
	pk.Entity = r.String()
	pk.Soft = r.Bool()
	pk.OnGround = r.Bool()
	pk.Position = r.Vec3()
	pk.Sector = r.String()
	pk.Yaw = r.Float32()
	pk.BodyVelocity = r.Vec3()
	pk.WorldVelocity = r.Vec3()
	pk.AngularVelocity = r.Float32()
}

// Correction is sent by the server to move a client back to an authoritative state, either after a
// rejected report or because the server moved the client.
type Correction struct {
	Report
}

func (*Correction) ID() byte {
	return IDCorrection
}

// Warning tells a client it was flagged Count times.
type Warning struct {
	Message string
	Count   uint32
}

func (*Warning) ID() byte {
	return IDWarning
}

func (pk *Warning) Marshal(buf *bytes.Buffer) {
	writeString(buf, pk.Message)
	writeUint32(buf, pk.Count)
}

func (pk *Warning) Unmarshal(r *Reader) {
	pk.Message = r.String()
	pk.Count = r.Uint32()
}

// Disconnect is sent right before the server closes the connection of a client.
type Disconnect struct {
	Reason string
}

func (*Disconnect) ID() byte {
	return IDDisconnect
}

func (pk *Disconnect) Marshal(buf *bytes.Buffer) {
	writeString(buf, pk.Reason)
}

func (pk *Disconnect) Unmarshal(r *Reader) {
	pk.Reason = r.String()
}
