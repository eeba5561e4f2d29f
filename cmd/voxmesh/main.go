// Command voxmesh builds a mesh from a grid file or a scene script, logs its
// size and optionally exports it as STL or re-encodes the grid.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/chazu/voxgrid/pkg/config"
	"github.com/chazu/voxgrid/pkg/engine"
	"github.com/chazu/voxgrid/pkg/gridio"
	"github.com/chazu/voxgrid/pkg/kernel"
	"github.com/chazu/voxgrid/pkg/kernel/sdfx"
	"github.com/chazu/voxgrid/pkg/load"
	"github.com/chazu/voxgrid/pkg/scene"
	"github.com/chazu/voxgrid/pkg/tessellate"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "config file (optional)")
		gridPath = flag.String("grid", "", "grid file to load")
		script   = flag.String("script", "", "scene script to evaluate")
		shared   = flag.Bool("shared", false, "build the static shared-vertex mesh instead of one cube per voxel")
		stlPath  = flag.String("stl", "", "write the mesh to this STL file")
		outPath  = flag.String("out", "", "write the scene to this grid file")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[voxmesh] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := load.Config(*cfgPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	eng := engine.NewEngine()
	eng.SetTimeout(cfg.EvalTimeout)

	s, err := load.Scene(cfg, eng, load.Source{Grid: *gridPath, Script: *script})
	if err != nil {
		logger.Fatalf("%v", err)
	}
	logger.Printf("scene: %v grid, scale %g, %d voxels, %d materials", s.Shape, s.Scale, s.Count(), s.Palette.Len())

	m, err := buildMesh(s, *shared, cfg, logger)
	if err != nil {
		logger.Fatalf("build: %v", err)
	}
	lo, hi := m.Bounds()
	logger.Printf("mesh: %s, %d vertices, %d triangles, bounds %v..%v", m.Usage, m.VertexCount(), m.TriangleCount(), lo, hi)

	if *stlPath != "" {
		if err := sdfx.SaveSTL(*stlPath, m); err != nil {
			logger.Fatalf("%v", err)
		}
		logger.Printf("wrote %s", *stlPath)
	}
	if *outPath != "" {
		if err := gridio.WriteFile(*outPath, s.Shape, s.Values); err != nil {
			logger.Fatalf("write grid: %v", err)
		}
		logger.Printf("wrote %s", *outPath)
	}
}

func buildMesh(s *scene.Scene, shared bool, cfg config.Config, logger *log.Logger) (*kernel.Mesh, error) {
	if !shared {
		vm, err := s.Mesh()
		if err != nil {
			return nil, err
		}
		return vm.Geometry(), nil
	}
	lo, hi, err := cfg.GradientColors()
	if err != nil {
		return nil, err
	}
	return tessellate.ConvertOccupancy(s.Occupancy(), s.Scale, lo, hi, tessellate.WithLogger(logger))
}
