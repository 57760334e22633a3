package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func muxVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// CORS sets permissive CORS headers and short-circuits preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter wires the HTTP surface onto a gorilla/mux router.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(CORS)

	g := r.PathPrefix("/api/game").Subrouter()
	g.HandleFunc("/create", h.CreateGame).Methods(http.MethodPost, http.MethodOptions)
	g.HandleFunc("/join", h.JoinGame).Methods(http.MethodPost, http.MethodOptions)
	g.HandleFunc("/{roomCode}", h.GetGame).Methods(http.MethodGet, http.MethodOptions)
	g.HandleFunc("/{roomCode}", h.DeleteGame).Methods(http.MethodDelete)
	g.HandleFunc("/{roomCode}/play", h.PlayCard).Methods(http.MethodPost, http.MethodOptions)
	g.HandleFunc("/{roomCode}/color", h.PickColor).Methods(http.MethodPost, http.MethodOptions)
	g.HandleFunc("/{roomCode}/submit-proof", h.SubmitProof).Methods(http.MethodPost, http.MethodOptions)
	g.HandleFunc("/{roomCode}/skip-proof", h.SkipProof).Methods(http.MethodPost, http.MethodOptions)
	g.HandleFunc("/{roomCode}/verify", h.VerifyTask).Methods(http.MethodPost, http.MethodOptions)
	g.HandleFunc("/{roomCode}/draw", h.DrawCard).Methods(http.MethodPost, http.MethodOptions)
	g.HandleFunc("/{roomCode}/add-to-hand", h.AddToHand).Methods(http.MethodPost, http.MethodOptions)
	g.HandleFunc("/{roomCode}/chat", h.PostChat).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/api/upload/media", h.UploadMedia).Methods(http.MethodPost, http.MethodOptions)

	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.Config.UploadDir))))

	return r
}
