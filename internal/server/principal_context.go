package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/maherrera/church-records/internal/routing"
)

type Principal struct {
	UserID string
	Email  string
	Name   string
}

type principalContextKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func currentPrincipal(ctx context.Context) (Principal, bool) {
	v := ctx.Value(principalContextKey{})
	if v == nil {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// withSession resolves the sid cookie into a principal. An absent,
// expired or revoked session leaves the request anonymous; route gates
// decide what anonymous may reach. Store failures are answered with an
// error, never by demoting the caller to anonymous.
func withSession(classifier *routing.Classifier, sessions sessionStore, users userStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(r.URL.Path)
		}
		sid, ok := readSID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		sess, ok, err := sessions.Lookup(r.Context(), sid)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		u, err := users.GetByID(r.Context(), sess.UserID)
		if errors.Is(err, errUserNotFound) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		ctx := withPrincipal(r.Context(), Principal{UserID: u.ID, Email: u.Email, Name: u.Name})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
