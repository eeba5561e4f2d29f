package main

import (
	"embed"
	"flag"
	"log"
	"os"

	"github.com/chazu/voxgrid/pkg/config"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfgPath := flag.String("config", "voxgrid.yaml", "config file; missing file means defaults")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("config: %v", err)
		}
		cfg = config.Defaults()
	}

	app := NewAppWithConfig(cfg)

	err = wails.Run(&options.App{
		Title:  "voxgrid",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
