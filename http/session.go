package http

import (
	"context"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"howett.net/vellum"
)

const (
	sessionCookieName = "session"
	sessionUserKey    = "uid"
)

type sessionContextKey struct{}

// SessionUserService resolves the requesting user from the session
// cookie. It only reads: issuing sessions is the login surface's
// concern, which lives outside this service.
type SessionUserService struct {
	store sessions.Store
}

func NewSessionUserService(authenticationKey []byte) *SessionUserService {
	if len(authenticationKey) == 0 {
		authenticationKey = securecookie.GenerateRandomKey(32)
	}
	return &SessionUserService{
		store: sessions.NewCookieStore(authenticationKey),
	}
}

// Middleware attaches the resolved user ID, if any, to the request
// context.
func (us *SessionUserService) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid := us.userForRequest(r); uid != nil {
			r = r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, uid))
		}
		next.ServeHTTP(w, r)
	})
}

func (us *SessionUserService) userForRequest(r *http.Request) *vellum.UserID {
	session, err := us.store.Get(r, sessionCookieName)
	if err != nil {
		// A bad or stale cookie is an anonymous request.
		return nil
	}
	raw, ok := session.Values[sessionUserKey].(string)
	if !ok {
		return nil
	}
	uid, err := vellum.UserIDFromString(raw)
	if err != nil {
		return nil
	}
	return &uid
}

// RequestUser returns the user attached by Middleware, or nil for an
// anonymous request.
func RequestUser(r *http.Request) *vellum.UserID {
	uid, _ := r.Context().Value(sessionContextKey{}).(*vellum.UserID)
	return uid
}
