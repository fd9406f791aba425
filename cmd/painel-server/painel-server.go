package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/wilsonalvesmartins/grapaz/db"
	"github.com/wilsonalvesmartins/grapaz/db/migrations"
	"github.com/wilsonalvesmartins/grapaz/internal/handlers"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// .env é opcional, útil só em desenvolvimento
	_ = godotenv.Load()

	// DATA_DIR é montado como volume no deploy para os dados sobreviverem
	// ao ciclo de vida do container
	dataDir := envOr("DATA_DIR", "data")
	uploadDir := filepath.Join(dataDir, "uploads")
	for _, dir := range []string{dataDir, uploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Cannot create directory %s: %v", dir, err)
		}
	}

	dbPath := filepath.Join(dataDir, "grapaz.db")
	log.Printf("Using database %s, uploads in %s", dbPath, uploadDir)

	dbConn, err := sqlx.Connect("sqlite", "file:"+dbPath)
	if err != nil {
		log.Fatalf("Cannot open database: %v", err)
	}
	defer dbConn.Close()

	migrations.Run(dbConn.DB)

	store := db.NewStorage(dbConn)
	h := handlers.NewHandler(store, uploadDir, envOr("STATIC_DIR", "dist"), handlers.Credentials{
		Username: envOr("PAINEL_USER", "administrador"),
		Password: envOr("PAINEL_PASS", "grapaz2026"),
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		r.Post("/login", h.LoginHandler)
		r.Get("/modalidades", h.ModalidadesHandler)
		// pregões
		r.Get("/bids", h.ListBidsHandler)
		r.Post("/bids", h.SaveBidHandler)
		r.Get("/bids/stats", h.StatsHandler)
		r.Get("/bids/by-city", h.BidsByCityHandler)
		r.Put("/bids/{id}", h.UpdateBidHandler)
		r.Delete("/bids/{id}", h.DeleteBidHandler)
		// arquivos
		r.Post("/upload", h.UploadHandler)
		r.Get("/files", h.ListFilesHandler)
		r.Delete("/files/{id}", h.DeleteFileHandler)
		r.Get("/download/{filename}", h.DownloadHandler)
	})

	// qualquer outra rota cai no bundle do front
	r.NotFound(h.SPAHandler)

	serverAddr := envOr("SERVER_ADDRESS", "0.0.0.0:8080")
	log.Printf("Starting server on %s", serverAddr)
	log.Fatal(http.ListenAndServe(serverAddr, r))
}
