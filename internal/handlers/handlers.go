package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/wilsonalvesmartins/grapaz/models"
)

// Credentials é o par de acesso do painel, carregado do ambiente na
// inicialização em vez de constante no código.
type Credentials struct {
	Username string
	Password string
}

// Handler agrupa os handlers HTTP do painel em cima do Storage injetado.
type Handler struct {
	Store     StorageInterface
	UploadDir string
	StaticDir string
	Creds     Credentials
}

// NewHandler cria um novo Handler
func NewHandler(store StorageInterface, uploadDir, staticDir string, creds Credentials) *Handler {
	return &Handler{Store: store, UploadDir: uploadDir, StaticDir: staticDir, Creds: creds}
}

// PingHandler responde "ok" para verificação do servidor
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError emits the {"error": message} body the API contract promises.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// LoginHandler valida o par usuário/senha configurado no ambiente.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	if in.Username != h.Creds.Username || in.Password != h.Creds.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeSuccess(w)
}

// ModalidadesHandler retorna as modalidades sugeridas pelo formulário.
func (h *Handler) ModalidadesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ModalidadeSuggestions)
}

// SPAHandler serve o bundle estático e devolve index.html para qualquer rota
// desconhecida, como o servidor original fazia para o front React.
func (h *Handler) SPAHandler(w http.ResponseWriter, r *http.Request) {
	requested := filepath.Join(h.StaticDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(requested); err == nil && !info.IsDir() {
		http.ServeFile(w, r, requested)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.StaticDir, "index.html"))
}
