package signal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"git.home.luguber.info/inful/focusd/internal/config"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
)

// LoadOAuthConfig reads a Google OAuth client JSON and scopes it to read-only calendar access.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	if credentialsFile == "" {
		return nil, ferrors.AuthError("signal.credentials_file is not set").Build()
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, ferrors.AuthError("failed to read OAuth client credentials").
			WithCause(err).
			WithContext("path", credentialsFile).
			Build()
	}
	cfg, err := google.ConfigFromJSON(data, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, ferrors.AuthError("invalid OAuth client credentials").WithCause(err).Build()
	}
	return cfg, nil
}

// LoadToken reads a previously saved OAuth token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.AuthError("no calendar token; run 'focusd auth' first").
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.AuthError("failed to read token").WithCause(err).Build()
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, ferrors.AuthError("corrupt token file").WithCause(err).WithContext("path", path).Build()
	}
	return &tok, nil
}

// SaveToken writes tok to path via a temp file and rename.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return ferrors.InternalError("failed to encode token").WithCause(err).Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return ferrors.StorageError("failed to create token directory").WithCause(err).Build()
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return ferrors.StorageError("failed to write token").WithCause(err).Build()
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return ferrors.StorageError("failed to replace token file").WithCause(err).Build()
	}
	return nil
}

// savingTokenSource persists refreshed tokens so restarts do not lose them.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		_ = SaveToken(s.path, tok)
	}
	return tok, nil
}

// Connector turns stored credentials into a verified GoogleCalendar.
type Connector struct {
	Signal config.SignalConfig
	// Options are passed through to the calendar client (tests point it at a fake endpoint).
	Options []option.ClientOption
}

// Connect loads the client config and token, builds the calendar client and probes it.
func (c Connector) Connect(ctx context.Context) (*GoogleCalendar, error) {
	oc, err := LoadOAuthConfig(c.Signal.CredentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(c.Signal.TokenFile)
	if err != nil {
		return nil, err
	}
	ts := &savingTokenSource{
		base: oc.TokenSource(context.Background(), tok),
		path: c.Signal.TokenFile,
		last: tok.AccessToken,
	}
	cal, err := NewGoogleCalendar(ctx, oauth2.ReuseTokenSource(tok, ts), c.Signal.CalendarID, c.Signal.Timeout, c.Options...)
	if err != nil {
		return nil, err
	}
	if err := cal.Probe(ctx); err != nil {
		return nil, ferrors.AuthError("calendar credentials rejected").WithCause(err).Build()
	}
	return cal, nil
}

// LoopbackFlow runs the installed-app OAuth flow: it listens on a loopback port,
// prints the consent URL to out and exchanges the returned code.
func LoopbackFlow(ctx context.Context, oc *oauth2.Config, out io.Writer) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, ferrors.NetworkError("failed to open loopback listener").WithCause(err).Build()
	}
	defer ln.Close()

	cfg := *oc
	cfg.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr().String())
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	codes := make(chan string, 1)
	errs := make(chan error, 1)
	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/callback" {
				http.NotFound(w, r)
				return
			}
			q := r.URL.Query()
			if q.Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				trySend[error](errs, ferrors.AuthError("OAuth state mismatch").Build())
				return
			}
			if e := q.Get("error"); e != "" {
				http.Error(w, e, http.StatusBadRequest)
				trySend[error](errs, ferrors.AuthError("authorization denied: "+e).Build())
				return
			}
			_, _ = io.WriteString(w, "focusd is connected to your calendar. You can close this tab.")
			trySend(codes, q.Get("code"))
		}),
	}
	go func() { _ = srv.Serve(ln) }()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	fmt.Fprintf(out, "Open this URL in your browser to authorize focusd:\n\n  %s\n\n",
		cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errs:
		return nil, err
	case code := <-codes:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, ferrors.AuthError("token exchange failed").WithCause(err).Build()
		}
		return tok, nil
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", ferrors.InternalError("failed to generate OAuth state").WithCause(err).Build()
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func trySend[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}
