package main

import (
	"embed"
	"io/fs"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	dist, err := fs.Sub(assets, "frontend/dist")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load frontend assets")
	}

	app := NewApp()
	err = wails.Run(&options.App{
		Title:       "Report a Scam Call",
		Width:       1024,
		Height:      768,
		AssetServer: &assetserver.Options{Assets: dist},
		OnStartup:   app.startup,
		OnShutdown:  app.shutdown,
		Bind:        []interface{}{app},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to run app")
	}
}
