package main

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/chazu/voxgrid/pkg/config"
	"github.com/chazu/voxgrid/pkg/engine"
	"github.com/chazu/voxgrid/pkg/grid"
	"github.com/chazu/voxgrid/pkg/kernel"
	"github.com/chazu/voxgrid/pkg/kernel/sdfx"
	"github.com/chazu/voxgrid/pkg/stream"
	"github.com/chazu/voxgrid/pkg/tessellate"
	"github.com/chazu/voxgrid/pkg/voxmesh"
	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// EventMeshChanged is emitted to the frontend after every applied Update,
// with the handle and a stream.DeltaMsg as payload.
const EventMeshChanged = "mesh:changed"

// session is one evaluated scene kept alive for incremental edits.
type session struct {
	mesh    *voxmesh.Mesh
	pending []voxmesh.Change
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	engine *engine.Engine
	cfg    config.Config

	mu       sync.Mutex // guards sessions and every session's mesh
	sessions map[string]*session
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Handle    string    `json:"handle"`
	Positions []float32 `json:"positions"`
	Colors    []float32 `json:"colors"`
	Indices   []uint32  `json:"indices"`
	Usage     string    `json:"usage"`
	Voxels    int       `json:"voxels"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes []MeshData      `json:"meshes"`
	Errors []EvalErrorData `json:"errors"`
}

// Edit sets one voxel.
type Edit struct {
	X        int           `json:"x"`
	Y        int           `json:"y"`
	Z        int           `json:"z"`
	Material grid.Material `json:"material"`
}

// UpdateResult reports what an Update did.
type UpdateResult struct {
	Recolored int    `json:"recolored"`
	Emitted   int    `json:"emitted"`
	Skipped   int    `json:"skipped"`
	Error     string `json:"error,omitempty"`
}

// NewApp creates a new App with the default configuration.
func NewApp() *App {
	return NewAppWithConfig(config.Defaults())
}

// NewAppWithConfig creates a new App using cfg.
func NewAppWithConfig(cfg config.Config) *App {
	eng := engine.NewEngine()
	eng.SetTimeout(cfg.EvalTimeout)
	return &App{
		engine:   eng,
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can emit runtime events later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// meshData copies the buffers of g; the result is encoded after the lock
// is released.
func meshData(handle string, g *kernel.Mesh, voxels int) MeshData {
	return MeshData{
		Handle:    handle,
		Positions: slices.Clone(g.Positions),
		Colors:    slices.Clone(g.Colors),
		Indices:   slices.Clone(g.Indices),
		Usage:     g.Usage.String(),
		Voxels:    voxels,
	}
}

// Evaluate takes Lisp source and returns mesh data + errors.
// This is the primary binding called by the frontend editor. A successful
// evaluation registers a session whose handle is used by Update.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes: []MeshData{},
		Errors: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a scene.
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the frontend format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	if s.IsEmpty() {
		return result
	}

	// Step 3: Build the per-voxel mesh.
	m, err := s.Mesh()
	if err != nil {
		log.Printf("Mesh build error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "mesh build failed: " + err.Error()})
		return result
	}

	// Step 4: Register the session and hand its buffers to the frontend.
	handle := uuid.NewString()
	sess := &session{mesh: m}
	m.OnChange(func(ch voxmesh.Change) {
		sess.pending = append(sess.pending, ch)
	})

	a.mu.Lock()
	a.sessions[handle] = sess
	md := meshData(handle, m.Geometry(), m.Len())
	a.mu.Unlock()

	log.Printf("Evaluate: session %s, %v grid, %d voxels", handle, s.Shape, m.Len())
	result.Meshes = append(result.Meshes, md)
	return result
}

func (a *App) sessionLocked(handle string) (*session, error) {
	sess, ok := a.sessions[handle]
	if !ok {
		return nil, fmt.Errorf("unknown mesh handle %q", handle)
	}
	return sess, nil
}

// Update applies edits to a session's mesh in order. Existing voxels are
// recoloured in place and new ones appended; material 0 is ignored. The
// change set is pushed to the frontend as an EventMeshChanged event.
func (a *App) Update(handle string, edits []Edit) UpdateResult {
	coords := make([]grid.Coord, len(edits))
	mats := make([]grid.Material, len(edits))
	for i, e := range edits {
		coords[i] = grid.C(e.X, e.Y, e.Z)
		mats[i] = e.Material
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.sessionLocked(handle)
	if err != nil {
		return UpdateResult{Error: err.Error()}
	}
	sess.pending = sess.pending[:0]
	st, err := sess.mesh.UpdateManyStats(coords, mats)
	if err != nil {
		return UpdateResult{Error: err.Error()}
	}
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, EventMeshChanged, handle, stream.NewDelta(sess.mesh.Geometry(), st, sess.pending))
	}
	return UpdateResult{Recolored: st.Recolored, Emitted: st.Emitted, Skipped: st.Skipped}
}

// Mesh returns the current buffers of a session.
func (a *App) Mesh(handle string) (MeshData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, err := a.sessionLocked(handle)
	if err != nil {
		return MeshData{}, err
	}
	return meshData(handle, sess.mesh.Geometry(), sess.mesh.Len()), nil
}

// Dense returns the static shared-vertex rendition of a session, coloured
// by the configured altitude gradient.
func (a *App) Dense(handle string) (MeshData, error) {
	lo, hi, err := a.cfg.GradientColors()
	if err != nil {
		return MeshData{}, err
	}
	a.mu.Lock()
	sess, err := a.sessionLocked(handle)
	if err != nil {
		a.mu.Unlock()
		return MeshData{}, err
	}
	occ := sess.mesh.Occupancy()
	scale := sess.mesh.Scale()
	a.mu.Unlock()

	m, err := tessellate.ConvertOccupancy(occ, scale, lo, hi, tessellate.WithName(handle))
	if err != nil {
		return MeshData{}, err
	}
	return meshData(handle, m, occ.Count()), nil
}

// ExportSTL writes a session's per-voxel mesh to an STL file.
func (a *App) ExportSTL(handle, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, err := a.sessionLocked(handle)
	if err != nil {
		return err
	}
	if err := sdfx.SaveSTL(path, sess.mesh.Geometry()); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	log.Printf("ExportSTL: session %s -> %s", handle, path)
	return nil
}

// Close drops a session.
func (a *App) Close(handle string) {
	a.mu.Lock()
	delete(a.sessions, handle)
	a.mu.Unlock()
}
