package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/maherrera/church-records/internal/routing"
	profileports "github.com/maherrera/church-records/modules/profile/domain/ports"
	"github.com/maherrera/church-records/pkg/authz"
)

func loadAuthorizer() (*authz.Authorizer, error) {
	modelPath := os.Getenv("AUTHZ_MODEL_PATH")
	if modelPath == "" {
		p, err := defaultAuthzModelPath()
		if err != nil {
			return nil, err
		}
		modelPath = p
	}

	policyPath := os.Getenv("AUTHZ_POLICY_PATH")
	if policyPath == "" {
		p, err := defaultAuthzPolicyPath()
		if err != nil {
			return nil, err
		}
		policyPath = p
	}

	mode, err := authz.ModeFromEnv()
	if err != nil {
		return nil, err
	}

	return authz.NewAuthorizer(modelPath, policyPath, mode)
}

func defaultAuthzModelPath() (string, error) {
	path := "config/access/model.conf"
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: authz model not found")
}

func defaultAuthzPolicyPath() (string, error) {
	path := "config/access/policy.csv"
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: authz policy not found")
}

type authorizer interface {
	Authorize(subject string, object string, action string) (allowed bool, enforced bool, err error)
}

// authzRequirementForRoute maps a route to the coarse object/action the
// caller's level must hold before the scope engine runs.
func authzRequirementForRoute(method string, path string) (object string, action string, shouldCheck bool) {
	write := method != http.MethodGet && method != http.MethodHead

	switch {
	case path == "/api/users" || path == "/api/auth":
		// Registration and login stay open to anonymous callers.
		return "", "", false
	case path == "/api/auth/logout":
		return authz.ObjectIAMSession, authz.ActionWrite, true
	case path == "/api/profile/me":
		return authz.ObjectProfilesOwn, authz.ActionRead, true
	case path == "/api/profile" && write:
		return authz.ObjectProfilesOwn, authz.ActionWrite, true
	case path == "/api/profile" || pathHasPrefixSegment(path, "/api/profile/user"):
		return authz.ObjectProfilesProfiles, authz.ActionRead, true
	case pathHasPrefixSegment(path, "/api/parishioners"):
		if write {
			return authz.ObjectRecordsParishioners, authz.ActionWrite, true
		}
		return authz.ObjectRecordsParishioners, authz.ActionRead, true
	case pathHasPrefixSegment(path, "/api"):
		if write {
			return authz.ObjectRecordsHierarchy, authz.ActionWrite, true
		}
		return authz.ObjectRecordsHierarchy, authz.ActionRead, true
	default:
		return "", "", false
	}
}

func pathHasPrefixSegment(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// withAuthz is the coarse route gate. It checks the caller's level
// against the casbin policy; the per-record scope decisions happen in
// the services behind it.
func withAuthz(classifier *routing.Classifier, a authorizer, profiles profileports.Registry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(path)
		}

		object, action, shouldCheck := authzRequirementForRoute(r.Method, path)
		if !shouldCheck {
			next.ServeHTTP(w, r)
			return
		}

		level := ""
		if p, ok := currentPrincipal(r.Context()); ok {
			prof, err := profiles.FindByUser(r.Context(), p.UserID)
			switch {
			case err == nil:
				level = string(prof.Level)
			case errors.Is(err, profileports.ErrProfileNotFound):
				level = authz.LevelUser
			default:
				routing.WriteError(w, r, rc, http.StatusInternalServerError, "internal_error", "internal error")
				return
			}
		}
		subject := authz.SubjectFromLevel(level)

		allowed, enforced, err := a.Authorize(subject, object, action)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if enforced && !allowed {
			if subject == authz.SubjectFromLevel("") {
				routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthenticated", "authentication required")
				return
			}
			routing.WriteError(w, r, rc, http.StatusForbidden, "forbidden", "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}
