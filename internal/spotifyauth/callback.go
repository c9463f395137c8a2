package spotifyauth

import (
	"fmt"
	"html"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

type callbackResult struct {
	token *oauth2.Token
	err   error
}

const callbackPage = `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
<h1>%s</h1>
<p>%s</p>
</body>
</html>`

// callbackRouter handles Spotify's redirect. Only the first callback is
// delivered to results.
func (a *Authenticator) callbackRouter(path, state string, results chan<- callbackResult) http.Handler {
	if path == "" {
		path = "/"
	}

	r := chi.NewRouter()
	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		token, err := a.auth.Token(req.Context(), state, req)

		select {
		case results <- callbackResult{token: token, err: err}:
		default:
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err != nil {
			a.logger.Warn().Err(err).Msg("Spotify authorization failed")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, callbackPage, "Authentication Failed", "Authentication Failed", html.EscapeString(err.Error()))
			return
		}
		fmt.Fprintf(w, callbackPage, "Authentication Successful", "Authentication Successful",
			"You can close this window and return to the terminal.")
	})
	return r
}
