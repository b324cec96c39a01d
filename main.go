package main

import (
	"embed"
	"log"

	"github.com/chazu/luxframe/pkg/config"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var frontend embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	app := NewApp(cfg)

	err = wails.Run(&options.App{
		Title:  "Luxframe",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: frontend,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatalf("wails: %v", err)
	}
}
