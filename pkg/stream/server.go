// Package stream serves a live voxmesh over websockets. Each client gets a
// full snapshot on connect, may send UPDATE batches, and receives a DELTA
// for every batch applied by any client.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/chazu/voxgrid/pkg/grid"
	"github.com/chazu/voxgrid/pkg/kernel"
	"github.com/chazu/voxgrid/pkg/voxmesh"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrBatchTooLarge is returned for UPDATE batches over the configured limit.
var ErrBatchTooLarge = errors.New("stream: update batch too large")

const (
	writeWait = 5 * time.Second
	readWait  = 60 * time.Second
	outQueue  = 256

	// editBytes bounds the JSON size of one coordinate and its material.
	editBytes  = 64
	msgBase    = 4 << 10
	maxMessage = 64 << 20 // limit when batches are unbounded
)

// readLimit is the largest inbound frame accepted for a batch limit.
func readLimit(maxBatch int) int64 {
	if maxBatch <= 0 || maxBatch > (maxMessage-msgBase)/editBytes {
		return maxMessage
	}
	return int64(msgBase + maxBatch*editBytes)
}

type client struct {
	id  string
	out chan []byte
}

// Server owns a voxmesh and fans its changes out to connected clients.
type Server struct {
	log      *log.Logger
	upgrader websocket.Upgrader
	maxBatch int

	mu      sync.Mutex // guards mesh, pending and clients
	mesh    *voxmesh.Mesh
	pending []voxmesh.Change
	clients map[string]*client
}

// NewServer wraps m. The server takes ownership: m must not be used
// elsewhere afterwards. maxBatch <= 0 means no limit.
func NewServer(m *voxmesh.Mesh, maxBatch int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		log:      logger,
		maxBatch: maxBatch,
		mesh:     m,
		clients:  make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	m.OnChange(func(ch voxmesh.Change) {
		s.pending = append(s.pending, ch)
	})
	return s
}

// Clients returns the number of connected sessions.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Apply runs one update batch and broadcasts the resulting delta.
func (s *Server) Apply(coords []grid.Coord, mats []grid.Material) (voxmesh.UpdateStats, error) {
	if s.maxBatch > 0 && len(coords) > s.maxBatch {
		return voxmesh.UpdateStats{}, fmt.Errorf("%w: %d edits, limit %d", ErrBatchTooLarge, len(coords), s.maxBatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = s.pending[:0]
	st, err := s.mesh.UpdateManyStats(coords, mats)
	if err != nil {
		return st, err
	}
	msg := s.deltaLocked(st)
	s.broadcastLocked(msg)
	return st, nil
}

// Rebuild replaces the mesh contents and sends every client a new snapshot.
func (s *Server) Rebuild(values []grid.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mesh.Build(values); err != nil {
		return err
	}
	s.pending = s.pending[:0]
	for _, c := range s.clients {
		s.sendLocked(c, s.snapshotLocked(c.id))
	}
	return nil
}

// Dense returns the shape and a dense copy of the current voxel values.
func (s *Server) Dense() (grid.Shape, []grid.Material) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mesh.Shape(), s.mesh.Dense()
}

func (s *Server) deltaLocked(st voxmesh.UpdateStats) []byte {
	b, _ := json.Marshal(NewDelta(s.mesh.Geometry(), st, s.pending))
	return b
}

// NewDelta describes changes against the buffers of g. The returned
// message aliases g's slices and must be encoded before g is next mutated.
func NewDelta(g *kernel.Mesh, st voxmesh.UpdateStats, changes []voxmesh.Change) DeltaMsg {
	msg := DeltaMsg{
		Type:      TypeDelta,
		Recolored: st.Recolored,
		Emitted:   st.Emitted,
		Skipped:   st.Skipped,
		Changes:   make([]Change, 0, len(changes)),
	}
	for _, ch := range changes {
		if ch.Kind == voxmesh.ChangeReset {
			continue
		}
		msg.Changes = append(msg.Changes, cubeChange(g, ch))
	}
	return msg
}

// cubeChange slices the buffers of the cube at ch.Base. Cubes are appended
// with their triangles, so cube n owns triangles [12n, 12n+12).
func cubeChange(g *kernel.Mesh, ch voxmesh.Change) Change {
	const nv, nt = kernel.CubeVertices, kernel.CubeTriangleN
	base := int(ch.Base)
	out := Change{
		Kind:   ch.Kind.String(),
		Base:   ch.Base,
		Colors: g.Colors[base*4 : (base+nv)*4],
	}
	if ch.Kind == voxmesh.ChangeEmit {
		cube := base / nv
		out.Positions = g.Positions[base*3 : (base+nv)*3]
		out.Indices = g.Indices[cube*nt*3 : (cube+1)*nt*3]
	}
	return out
}

func (s *Server) snapshotLocked(session string) []byte {
	g := s.mesh.Geometry()
	shape := s.mesh.Shape()
	pal := s.mesh.Palette().Colors()
	hex := make([]string, len(pal))
	for i, c := range pal {
		hex[i] = c.Hex()
	}
	b, _ := json.Marshal(SnapshotMsg{
		Type:      TypeSnapshot,
		Session:   session,
		Shape:     [3]int{shape.X, shape.Y, shape.Z},
		Scale:     s.mesh.Scale(),
		Palette:   hex,
		Positions: g.Positions,
		Colors:    g.Colors,
		Indices:   g.Indices,
	})
	return b
}

// sendLocked queues b for c. A client whose queue is full is dropped; its
// writer closes the connection.
func (s *Server) sendLocked(c *client, b []byte) {
	select {
	case c.out <- b:
	default:
		s.log.Printf("[stream] session %s too slow, dropping", c.id)
		delete(s.clients, c.id)
		close(c.out)
	}
}

func (s *Server) broadcastLocked(b []byte) {
	for _, c := range s.clients {
		s.sendLocked(c, b)
	}
}

// Handler upgrades the request and serves one client session.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Printf("[stream] upgrade: %v", err)
			return
		}
		defer conn.Close()
		conn.SetReadLimit(readLimit(s.maxBatch))

		c := &client{id: uuid.NewString(), out: make(chan []byte, outQueue)}
		s.mu.Lock()
		c.out <- s.snapshotLocked(c.id)
		s.clients[c.id] = c
		s.mu.Unlock()
		s.log.Printf("[stream] session %s connected from %s", c.id, r.RemoteAddr)

		writeErr := make(chan error, 1)
		go func() {
			defer conn.Close()
			for b := range c.out {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					writeErr <- err
					return
				}
			}
			writeErr <- nil
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if err := s.handleMessage(raw); err != nil {
				s.reply(c, err)
			}
		}

		s.mu.Lock()
		if _, ok := s.clients[c.id]; ok {
			delete(s.clients, c.id)
			close(c.out)
		}
		s.mu.Unlock()
		s.log.Printf("[stream] session %s closed", c.id)

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) handleMessage(raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("bad message: %w", err)
	}
	switch env.Type {
	case TypeUpdate:
		var msg UpdateMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return fmt.Errorf("bad UPDATE: %w", err)
		}
		coords := make([]grid.Coord, len(msg.Coords))
		for i, c := range msg.Coords {
			coords[i] = grid.C(c[0], c[1], c[2])
		}
		_, err := s.Apply(coords, msg.Materials)
		return err
	default:
		return fmt.Errorf("unknown message type %q", env.Type)
	}
}

func (s *Server) reply(c *client, err error) {
	b, _ := json.Marshal(ErrorMsg{Type: TypeError, Message: err.Error()})
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.id]; ok {
		s.sendLocked(c, b)
	}
}
