package main

import (
	"context"
	"log"
	"net/http"

	"atlas/internal/alog"
	"atlas/internal/atlas"
	"atlas/internal/atlashttp"
	"atlas/internal/config"
	"atlas/internal/db"
	"atlas/internal/gazetteer"
	"atlas/internal/remote"
)

// main is the atlas daemon entrypoint.
func main() {
	if err := run(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()

	gz := gazetteer.NewStore(cfg.GazetteerDir)
	if err := gz.Reload(); err != nil {
		return err
	}

	var store *db.Store
	if cfg.DatabaseURL != "" {
		var err error
		store, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
	} else {
		alog.Warn("DATABASE_URL not set; serving with local search disabled")
	}

	var adapters []remote.Adapter
	if cfg.DBRemote {
		adapters = append(adapters,
			remote.NewGeoNamesAdapter("http://api.geonames.org", cfg.GeoNamesUsername, gz.Current()),
			remote.NewGettyAdapter(cfg.GettyBaseURL, gz.Current()),
		)
	}
	registry := remote.NewRegistry(adapters...)

	orchestrator := atlas.New(gz, store, registry)
	handler := atlashttp.NewHandler(orchestrator)

	mux := http.NewServeMux()
	mux.Handle("/atlas/", handler)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	addr := ":" + cfg.Port
	alog.Infof("listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
