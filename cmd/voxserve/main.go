// Command voxserve loads a scene and serves it as a live mesh over a
// websocket. Clients receive a snapshot, may send voxel edits, and see
// every applied edit as a delta.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chazu/voxgrid/pkg/engine"
	"github.com/chazu/voxgrid/pkg/gridio"
	"github.com/chazu/voxgrid/pkg/load"
	"github.com/chazu/voxgrid/pkg/stream"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "config file (optional)")
		addr     = flag.String("addr", "", "http listen address (default: stream.addr from config)")
		gridPath = flag.String("grid", "", "grid file to serve")
		script   = flag.String("script", "", "scene script to serve")
		savePath = flag.String("save", "", "write the edited grid here on shutdown")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[voxserve] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := load.Config(*cfgPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Stream.Addr = *addr
	}
	eng := engine.NewEngine()
	eng.SetTimeout(cfg.EvalTimeout)

	s, err := load.Scene(cfg, eng, load.Source{Grid: *gridPath, Script: *script})
	if err != nil {
		logger.Fatalf("%v", err)
	}
	m, err := s.Mesh()
	if err != nil {
		logger.Fatalf("build: %v", err)
	}
	logger.Printf("serving %v grid, %d voxels, %d vertices", s.Shape, m.Len(), m.Geometry().VertexCount())

	srvStream := stream.NewServer(m, cfg.Stream.MaxBatch, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srvStream.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              cfg.Stream.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", cfg.Stream.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	if *savePath != "" {
		shape, values := srvStream.Dense()
		if err := gridio.WriteFile(*savePath, shape, values); err != nil {
			logger.Fatalf("save: %v", err)
		}
		logger.Printf("saved %s", *savePath)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
