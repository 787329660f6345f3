package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/forkreel/forkreel/internal/session"
)

var errNoSession = errors.New("no valid session")

// sessionToken extracts the bearer token identifying a remix session.
func sessionToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		// SSE and WebSocket clients can't set headers; fall back to query.
		if token = r.URL.Query().Get("token"); token == "" {
			return "", errNoSession
		}
	}
	return token, nil
}

// sessionFromRequest loads the session state for the request's token.
func sessionFromRequest(r *http.Request, store Store) (*session.State, error) {
	token, err := sessionToken(r)
	if err != nil {
		return nil, err
	}
	st, err := store.SessionFromToken(r.Context(), token)
	if errors.Is(err, ErrNotFound) {
		return nil, errNoSession
	}
	return st, err
}
