// Package artsytest runs an in-memory stand-in for the remote catalog service,
// for tests. It speaks the same paths, bodies and cookies as the real thing,
// counts calls per route, and can be told to fail.
package artsytest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amonks/artsy/data"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Route names, for Fail and Calls.
const (
	SignUp     = "signup"
	SignIn     = "signin"
	Me         = "me"
	SignOut    = "signout"
	Delete     = "delete"
	Search     = "search"
	Favorites  = "favorites"
	Artist     = "artist"
	Artworks   = "artworks"
	Genes      = "genes"
	Favorite   = "favorite"
	Unfavorite = "unfavorite"
	Remove     = "remove"
	Similar    = "similar"
)

type account struct {
	user      data.User
	password  string
	favorites []data.Favorite
}

type failure struct {
	status    int
	remaining int
}

// Server is a fake catalog service. Its zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	accounts    map[string]*account
	sessions    map[string]string
	artists     map[string]data.Artist
	artworks    map[string][]data.Artwork
	genes       map[string][]data.Gene
	similar     map[string][]string
	failures    map[string]failure
	calls       map[string]int
	searches    []string
	searchDelay map[string]time.Duration
	holds       map[string]chan struct{}
	legacy      bool
}

// New starts a Server and stops it when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		accounts:    map[string]*account{},
		sessions:    map[string]string{},
		artists:     map[string]data.Artist{},
		artworks:    map[string][]data.Artwork{},
		genes:       map[string][]data.Gene{},
		similar:     map[string][]string{},
		failures:    map[string]failure{},
		calls:       map[string]int{},
		searchDelay: map[string]time.Duration{},
		holds:       map[string]chan struct{}{},
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/user/signup", s.route(SignUp, s.handleSignUp))
		r.Post("/user/signin", s.route(SignIn, s.handleSignIn))
		r.Get("/user/me", s.route(Me, s.authed(s.handleMe)))
		r.Post("/user/signout", s.route(SignOut, s.handleSignOut))
		r.Delete("/user/delete", s.route(Delete, s.authed(s.handleDelete)))
		r.Get("/artsy/search", s.route(Search, s.handleSearch))
		r.Get("/artsy/favorites", s.route(Favorites, s.authed(s.handleFavorites)))
		r.Get("/artsy/artists/{id}", s.route(Artist, s.handleArtist))
		r.Get("/artsy/artists/similar/{id}", s.route(Similar, s.handleSimilar))
		r.Get("/artsy/artworks/{id}", s.route(Artworks, s.handleArtworks))
		r.Get("/artsy/genes", s.route(Genes, s.handleGenes))
		r.Post("/artsy/artist/{id}", s.route(Favorite, s.authed(s.handleFavorite)))
		r.Delete("/artsy/delete/{id}", s.route(Unfavorite, s.authed(s.handleUnfavorite)))
		r.Delete("/artsy/favorite", s.route(Remove, s.authed(s.handleRemove)))
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the origin to hand to artsy.New.
func (s *Server) BaseURL() string {
	return s.URL + "/api/"
}

// AddUser creates an account that can sign in.
func (s *Server) AddUser(fullName, email, password string) data.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := data.User{ID: randomHex(12), FullName: fullName, Email: email}
	s.accounts[email] = &account{user: user, password: password}
	return user
}

// AddArtist puts an artist in the catalog.
func (s *Server) AddArtist(artist data.Artist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artists[artist.ID] = artist
}

// AddArtworks attaches artworks to an artist.
func (s *Server) AddArtworks(artistID string, artworks ...data.Artwork) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artworks[artistID] = append(s.artworks[artistID], artworks...)
}

// AddGenes attaches genes to an artwork.
func (s *Server) AddGenes(artworkID string, genes ...data.Gene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genes[artworkID] = append(s.genes[artworkID], genes...)
}

// AddSimilar records artists similar to artistID.
func (s *Server) AddSimilar(artistID string, similarIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.similar[artistID] = append(s.similar[artistID], similarIDs...)
}

// SetFavorites replaces an account's favorites.
func (s *Server) SetFavorites(email string, favorites ...data.Favorite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email].favorites = favorites
}

// FavoriteIDs lists the artist ids an account has favorited.
func (s *Server) FavoriteIDs(email string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	if acct, ok := s.accounts[email]; ok {
		for _, fav := range acct.favorites {
			ids = append(ids, fav.ArtistID)
		}
	}
	return ids
}

// Fail makes every call to route answer with status until Heal. A status of
// 429 is sent with "Retry-After: 0".
func (s *Server) Fail(route string, status int) {
	s.FailTimes(route, status, -1)
}

// FailTimes makes the next n calls to route answer with status.
func (s *Server) FailTimes(route string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, remaining: n}
}

// Heal undoes Fail.
func (s *Server) Heal(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// LegacyUnfavorite makes artsy/delete/{id} answer 404, as older deployments
// without that endpoint do.
func (s *Server) LegacyUnfavorite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legacy = true
}

// DelaySearch holds the response to a search for query for d.
func (s *Server) DelaySearch(query string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchDelay[query] = d
}

// Hold makes calls to route wait, after being counted, until the returned
// function is called.
func (s *Server) Hold(route string) (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{})
	s.holds[route] = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, route)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// ExpireSessions forgets every issued token, as if they all timed out.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = map[string]string{}
}

// Calls counts the requests a route has received, failed or not.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Searches lists every search query received, in order.
func (s *Server) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

func (s *Server) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[name]++
		hold := s.holds[name]
		fail, failing := s.failures[name]
		if failing && fail.remaining > 0 {
			fail.remaining--
			if fail.remaining == 0 {
				delete(s.failures, name)
			} else {
				s.failures[name] = fail
			}
		}
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			if fail.status == http.StatusTooManyRequests {
				w.Header().Set("Retry-After", "0")
			}
			writeJSON(w, fail.status, map[string]string{"message": http.StatusText(fail.status)})
			return
		}
		h(w, r)
	}
}

type authedHandler func(w http.ResponseWriter, r *http.Request, acct *account)

// authed resolves the session from the Cookie header. Either token is
// enough.
func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		acct := s.session(r)
		s.mu.Unlock()

		if acct == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authenticated"})
			return
		}
		h(w, r, acct)
	}
}

// session must be called with mu held.
func (s *Server) session(r *http.Request) *account {
	for _, kind := range data.Kinds {
		cookie, err := r.Cookie(string(kind))
		if err != nil {
			continue
		}
		if email, ok := s.sessions[cookie.Value]; ok {
			return s.accounts[email]
		}
	}
	return nil
}

// startSession must be called with mu held.
func (s *Server) startSession(w http.ResponseWriter, acct *account) {
	artsyToken := randomHex(16)
	jwtToken, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": acct.user.ID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("artsytest"))

	s.sessions[artsyToken] = acct.user.Email
	s.sessions[jwtToken] = acct.user.Email

	w.Header().Add("Set-Cookie", "artsyToken="+artsyToken+"; Path=/; HttpOnly; SameSite=None; Secure")
	w.Header().Add("Set-Cookie", "jwtToken="+jwtToken+"; Path=/; Max-Age=3600; HttpOnly")
	w.Header().Add("Set-Cookie", "GAESA="+randomHex(8)+"; Path=/; Max-Age=3600")
}

func (s *Server) user(acct *account) data.User {
	user := acct.user
	user.Favorites = append([]data.Favorite{}, acct.favorites...)
	return user
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName        string `json:"fullName"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ProfileImageURL string `json:"profileImageURL"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": []string{"Invalid body"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[body.Email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "User with this email already exists."})
		return
	}
	acct := &account{
		user: data.User{
			ID:              randomHex(12),
			FullName:        body.FullName,
			Email:           body.Email,
			ProfileImageURL: body.ProfileImageURL,
		},
		password: body.Password,
	}
	s.accounts[body.Email] = acct
	s.startSession(w, acct)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User registered", "user": s.user(acct)})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[body.Email]
	if !ok || acct.password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Password is incorrect."})
		return
	}
	s.startSession(w, acct)
	writeJSON(w, http.StatusOK, map[string]any{"user": s.user(acct)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, acct *account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"user": s.user(acct)})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, kind := range data.Kinds {
		if cookie, err := r.Cookie(string(kind)); err == nil {
			delete(s.sessions, cookie.Value)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, acct *account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, acct.user.Email)
	for token, email := range s.sessions {
		if email == acct.user.Email {
			delete(s.sessions, token)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	s.mu.Lock()
	s.searches = append(s.searches, query)
	delay := s.searchDelay[query]
	var results []map[string]any
	for _, artist := range s.sortedArtists() {
		if !strings.Contains(strings.ToLower(artist.Name), strings.ToLower(query)) {
			continue
		}
		results = append(results, map[string]any{
			"type":  "artist",
			"title": artist.Name,
			"_links": map[string]any{
				"self":      map[string]string{"href": "https://api.artsy.net/api/artists/" + artist.ID},
				"permalink": map[string]string{"href": "https://www.artsy.net/artist/" + artist.ID},
				"thumbnail": map[string]string{"href": artist.ImageURL},
			},
		})
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"_embedded": map[string]any{"results": results}})
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request, acct *account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"favorites": append([]data.Favorite{}, acct.favorites...)})
}

func (s *Server) handleArtist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	artist, ok := s.artists[chi.URLParam(r, "id")]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Artist not found"})
		return
	}
	writeJSON(w, http.StatusOK, artistJSON(artist))
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	artists := []map[string]any{}
	for _, id := range s.similar[chi.URLParam(r, "id")] {
		if artist, ok := s.artists[id]; ok {
			artists = append(artists, artistJSON(artist))
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"_embedded": map[string]any{"artists": artists}})
}

func (s *Server) handleArtworks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	artworks := []map[string]any{}
	for _, artwork := range s.artworks[chi.URLParam(r, "id")] {
		artworks = append(artworks, map[string]any{
			"id":     artwork.ID,
			"title":  artwork.Title,
			"date":   artwork.Date,
			"_links": map[string]any{"thumbnail": map[string]string{"href": artwork.ImageURL}},
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"_embedded": map[string]any{"artworks": artworks}})
}

func (s *Server) handleGenes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	genes := []map[string]any{}
	for _, gene := range s.genes[r.URL.Query().Get("artwork_id")] {
		genes = append(genes, map[string]any{
			"id":          gene.ID,
			"name":        gene.Name,
			"description": gene.Description,
			"_links":      map[string]any{"thumbnail": map[string]string{"href": gene.ThumbnailURL}},
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"_embedded": map[string]any{"genes": genes}})
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request, acct *account) {
	var body struct {
		ArtistName     string `json:"artistName"`
		ArtistImageURL string `json:"artistImageURL"`
		BirthYear      *int   `json:"birthYear"`
		DeathYear      *int   `json:"deathYear"`
		Nationality    string `json:"nationality"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid body"})
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fav := range acct.favorites {
		if fav.ArtistID == id {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Already favorited"})
			return
		}
	}
	acct.favorites = append(acct.favorites, data.Favorite{
		ArtistID:       id,
		ArtistName:     body.ArtistName,
		ArtistImageURL: body.ArtistImageURL,
		BirthYear:      body.BirthYear,
		DeathYear:      body.DeathYear,
		Nationality:    body.Nationality,
		FavoritedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	})
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Favorited"})
}

func (s *Server) handleUnfavorite(w http.ResponseWriter, r *http.Request, acct *account) {
	s.mu.Lock()
	legacy := s.legacy
	s.mu.Unlock()

	if legacy {
		http.NotFound(w, r)
		return
	}
	s.unfavorite(w, acct, chi.URLParam(r, "id"))
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request, acct *account) {
	var body struct {
		ArtistID string `json:"artistId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ArtistID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "artistId is required"})
		return
	}
	s.unfavorite(w, acct, body.ArtistID)
}

func (s *Server) unfavorite(w http.ResponseWriter, acct *account, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, fav := range acct.favorites {
		if fav.ArtistID == id {
			acct.favorites = append(acct.favorites[:i], acct.favorites[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Removed"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Favorite not found"})
}

// sortedArtists must be called with mu held.
func (s *Server) sortedArtists() []data.Artist {
	artists := make([]data.Artist, 0, len(s.artists))
	for _, artist := range s.artists {
		artists = append(artists, artist)
	}
	slices.SortFunc(artists, func(a, b data.Artist) int {
		return strings.Compare(a.Name, b.Name)
	})
	return artists
}

func artistJSON(artist data.Artist) map[string]any {
	return map[string]any{
		"id":          artist.ID,
		"name":        artist.Name,
		"nationality": artist.Nationality,
		"biography":   artist.Biography,
		"birthday":    artist.Birthday,
		"deathday":    artist.Deathday,
		"_links":      map[string]any{"thumbnail": map[string]string{"href": artist.ImageURL}},
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
