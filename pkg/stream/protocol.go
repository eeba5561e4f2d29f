package stream

import "github.com/chazu/voxgrid/pkg/grid"

// Message types.
const (
	TypeSnapshot = "SNAPSHOT"
	TypeUpdate   = "UPDATE"
	TypeDelta    = "DELTA"
	TypeError    = "ERROR"
)

// Envelope is decoded first to dispatch on Type.
type Envelope struct {
	Type string `json:"type"`
}

// SnapshotMsg carries the full mesh. It is the first message on every
// connection and is re-sent to everyone after a rebuild.
type SnapshotMsg struct {
	Type      string    `json:"type"`
	Session   string    `json:"session"`
	Shape     [3]int    `json:"shape"`
	Scale     float32   `json:"scale"`
	Palette   []string  `json:"palette"`
	Positions []float32 `json:"positions"`
	Colors    []float32 `json:"colors"`
	Indices   []uint32  `json:"indices"`
}

// UpdateMsg asks the server to set materials. Coords and Materials pair up
// by position.
type UpdateMsg struct {
	Type      string          `json:"type"`
	Coords    [][3]int        `json:"coords"`
	Materials []grid.Material `json:"materials"`
}

// DeltaMsg reports the buffer changes caused by one UPDATE.
type DeltaMsg struct {
	Type      string   `json:"type"`
	Recolored int      `json:"recolored"`
	Emitted   int      `json:"emitted"`
	Skipped   int      `json:"skipped"`
	Changes   []Change `json:"changes"`
}

// Change is one cube's new data. Recolor changes carry only Colors; emit
// changes carry the cube's 8 positions, 8 colours and 36 indices, to be
// appended at vertex Base.
type Change struct {
	Kind      string    `json:"kind"`
	Base      uint32    `json:"base"`
	Positions []float32 `json:"positions,omitempty"`
	Colors    []float32 `json:"colors"`
	Indices   []uint32  `json:"indices,omitempty"`
}

// ErrorMsg is sent to the client whose UPDATE was rejected.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
