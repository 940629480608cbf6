// Package server exposes the client's state as a small local JSON API, so a
// view layer in another process can drive it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/amonks/artsy/app"
	"github.com/amonks/artsy/artsy"
	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Run serves the API on addr until ctx is done.
func Run(ctx context.Context, a *app.App, addr string) error {
	srv := http.Server{
		Addr:              addr,
		Handler:           Handler(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error)
	go func() { errs <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("serving")

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Handler routes requests to a.
func Handler(a *app.App) http.Handler {
	h := &handler{app: a, now: time.Now}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.session)
		r.Post("/signin", h.signIn)
		r.Post("/signout", h.signOut)
	})
	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", h.favorites)
		r.Post("/{id}/toggle", h.toggle)
	})
	r.Get("/search", h.search)
	r.Delete("/search", h.clearSearch)
	r.Get("/artists/{id}", h.artist)
	r.Get("/artworks/{id}/genes", h.genes)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", chimw.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

type handler struct {
	app *app.App
	now func() time.Time
}

type sessionResponse struct {
	State       string     `json:"state"`
	User        *data.User `json:"user,omitempty"`
	Message     string     `json:"message,omitempty"`
	LoggedIn    bool       `json:"loggedIn"`
	TokenExpiry *time.Time `json:"tokenExpiry,omitempty"`
}

func (h *handler) sessionResponse() sessionResponse {
	resp := sessionResponse{LoggedIn: h.app.Favorites.IsLoggedIn()}
	switch s := h.app.Session.State().(type) {
	case session.Idle:
		resp.State = "idle"
	case session.Loading:
		resp.State = "loading"
	case session.Success:
		resp.State = "success"
		resp.User = &s.User
	case session.Error:
		resp.State = "error"
		resp.Message = s.Message
	}
	if exp, ok := h.app.Tokens.Expiry(); ok {
		resp.TokenExpiry = &exp
	}
	return resp
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionResponse())
}

func (h *handler) signIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}

	status := http.StatusOK
	if err := h.app.SignIn(r.Context(), body.Email, body.Password); err != nil {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, h.sessionResponse())
}

func (h *handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.app.SignOut(r.Context()); err != nil {
		log.Warn().Err(err).Msg("signout")
	}
	writeJSON(w, http.StatusOK, h.sessionResponse())
}

type artistResponse struct {
	data.Artist
	AddedAgo  string `json:"addedAgo,omitempty"`
	Favorited bool   `json:"favorited"`
}

func (h *handler) artists(artists []data.Artist) []artistResponse {
	out := make([]artistResponse, len(artists))
	for i, artist := range artists {
		out[i] = artistResponse{
			Artist:    artist,
			AddedAgo:  artist.AddedAgo(h.now()),
			Favorited: h.app.Favorites.IsFavorited(artist.ID),
		}
	}
	return out
}

// favorites serves the cached list. With ?reload=true it reloads first; a
// failed reload still serves the cached list, with a 502.
func (h *handler) favorites(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if r.URL.Query().Get("reload") == "true" {
		if err := h.app.Favorites.Load(r.Context()); err != nil {
			status = http.StatusBadGateway
		}
	}
	writeJSON(w, status, map[string]any{"artists": h.artists(h.app.Favorites.Artists())})
}

func (h *handler) toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	artist, ok := h.app.Favorites.Get(id)
	if !ok {
		fetched, err := h.app.Client.Artist(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		artist = *fetched
	}

	status := http.StatusOK
	if err := h.app.Favorites.Toggle(r.Context(), artist); err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]any{"favorited": h.app.Favorites.IsFavorited(id)})
}

// search feeds ?q= to the search controller, if given, and serves whatever
// results it holds. Results for a new query arrive after the debounce.
func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	if q, ok := r.URL.Query()["q"]; ok {
		h.app.Search.OnQueryChange(q[0])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   h.app.Search.Query(),
		"results": h.artists(h.app.Search.Results()),
	})
}

func (h *handler) clearSearch(w http.ResponseWriter, r *http.Request) {
	h.app.Search.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) artist(w http.ResponseWriter, r *http.Request) {
	detail, err := h.app.Detail.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"artist":   artistResponse{Artist: detail.Artist, AddedAgo: detail.Artist.AddedAgo(h.now()), Favorited: detail.Favorited},
		"artworks": detail.Artworks,
		"similar":  h.artists(detail.Similar),
	})
}

func (h *handler) genes(w http.ResponseWriter, r *http.Request) {
	genes := h.app.Detail.Genes(r.Context(), chi.URLParam(r, "id"))
	if genes == nil {
		genes = []data.Gene{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"genes": genes})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, artsy.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, artsy.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "not signed in")
	default:
		writeMessage(w, http.StatusBadGateway, err.Error())
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("error writing response")
	}
}
