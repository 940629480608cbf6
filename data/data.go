// Package data holds the plain types shared by the client: what the remote
// service tells us about users, artists, artworks and genes, and the two
// session credentials we keep on disk.
package data

// Kind names one of the two session credentials issued by the remote service.
//
// The string value is also the cookie name used on the wire, both in the
// Set-Cookie headers of a signin/signup response and in the Cookie header we
// send back.
type Kind string

const (
	// ArtsyToken is the primary session credential.
	ArtsyToken Kind = "artsyToken"

	// JWTToken is the secondary session credential.
	JWTToken Kind = "jwtToken"
)

// Kinds lists every credential kind, in the order they are sent.
var Kinds = []Kind{ArtsyToken, JWTToken}

// User is the signed-in account, as returned by signin, signup and user/me.
// It is replaced wholesale on every fetch.
type User struct {
	ID              string     `json:"id"`
	FullName        string     `json:"fullName"`
	Email           string     `json:"email"`
	ProfileImageURL string     `json:"profileImageURL,omitempty"`
	Favorites       []Favorite `json:"favorites"`
}
