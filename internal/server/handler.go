package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maherrera/church-records/internal/routing"
	hierarchyports "github.com/maherrera/church-records/modules/hierarchy/domain/ports"
	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
	hierarchypersistence "github.com/maherrera/church-records/modules/hierarchy/infrastructure/persistence"
	hierarchyservices "github.com/maherrera/church-records/modules/hierarchy/services"
	profileports "github.com/maherrera/church-records/modules/profile/domain/ports"
	profilepersistence "github.com/maherrera/church-records/modules/profile/infrastructure/persistence"
	profileservices "github.com/maherrera/church-records/modules/profile/services"
)

func NewHandler() (http.Handler, error) {
	return NewHandlerWithOptions(HandlerOptions{})
}

type HandlerOptions struct {
	NodeStore        hierarchyports.NodeStore
	ParishionerStore hierarchyports.ParishionerStore
	ProfileRegistry  profileports.Registry
	UserStore        userStore
	SessionStore     sessionStore
	IdentityProvider identityProvider
	Authorizer       authorizer
}

// NewHandlerWithOptions builds the full HTTP surface. Stores left nil
// fall back to Postgres when one is configured, matching the stores the
// tests inject in memory.
func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	allowlistPath := os.Getenv("ALLOWLIST_PATH")
	if allowlistPath == "" {
		p, err := defaultAllowlistPath()
		if err != nil {
			return nil, err
		}
		allowlistPath = p
	}

	a, err := routing.LoadAllowlist(allowlistPath)
	if err != nil {
		return nil, err
	}
	classifier, err := routing.NewClassifier(a, "server")
	if err != nil {
		return nil, err
	}

	nodeStore := opts.NodeStore
	parishionerStore := opts.ParishionerStore
	profileRegistry := opts.ProfileRegistry
	users := opts.UserStore
	sessions := opts.SessionStore

	var pgPool *pgxpool.Pool
	if nodeStore == nil {
		pool, err := pgxpool.New(context.Background(), dbDSNFromEnv())
		if err != nil {
			return nil, err
		}
		pgPool = pool
		nodeStore = hierarchypersistence.NewNodePGStore(pgPool)
	}
	if parishionerStore == nil {
		if pgPool != nil {
			parishionerStore = hierarchypersistence.NewParishionerPGStore(pgPool)
		} else {
			parishionerStore = hierarchypersistence.NewMemoryParishionerStore()
		}
	}
	if profileRegistry == nil {
		if pgPool != nil {
			profileRegistry = profilepersistence.NewProfilePGStore(pgPool)
		} else {
			profileRegistry = profilepersistence.NewMemoryRegistry()
		}
	}
	if users == nil {
		users = newUserStore(pgPool)
	}
	if sessions == nil {
		sessions = newSessionStore(pgPool)
	}

	provider := opts.IdentityProvider
	if provider == nil {
		provider = newLocalIdentityProvider(users)
	}

	auth := opts.Authorizer
	if auth == nil {
		loaded, err := loadAuthorizer()
		if err != nil {
			return nil, err
		}
		auth = loaded
	}

	records := hierarchyservices.NewRecordService(nodeStore)
	parishioners := hierarchyservices.NewParishionerService(parishionerStore, nodeStore)
	profiles := profileservices.NewProfileService(profileRegistry)

	router := routing.NewRouter(classifier)

	router.Handle(routing.RouteClassOps, http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))
	router.Handle(routing.RouteClassOps, http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))

	router.Handle(routing.RouteClassAuthn, http.MethodPost, "/api/users", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleRegisterAPI(w, r, users, sessions)
	}))
	router.Handle(routing.RouteClassAuthn, http.MethodPost, "/api/auth", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleLoginAPI(w, r, provider, sessions)
	}))
	router.Handle(routing.RouteClassAuthn, http.MethodPost, "/api/auth/logout", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleLogoutAPI(w, r, sessions)
	}))

	router.Handle(routing.RouteClassAPI, http.MethodGet, "/api/profile/me", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleProfileMeAPI(w, r, profiles)
	}))
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		router.Handle(routing.RouteClassAPI, method, "/api/profile", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handleProfileAPI(w, r, profiles, users, sessions)
		}))
	}
	router.Handle(routing.RouteClassAPI, http.MethodGet, "/api/profile/user/{user_id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleProfileByUserAPI(w, r, profiles)
	}))

	hierarchyRoutes := []struct {
		path string
		kind types.EntityKind
	}{
		{"/api/unions", types.KindUnion},
		{"/api/associations", types.KindAssociation},
		{"/api/districts", types.KindDistrict},
		{"/api/churches", types.KindChurch},
	}
	for _, route := range hierarchyRoutes {
		kind := route.kind
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			router.Handle(routing.RouteClassAPI, method, route.path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handleNodeCollectionAPI(w, r, kind, records, profileRegistry)
			}))
		}
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			router.Handle(routing.RouteClassAPI, method, route.path+"/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handleNodeItemAPI(w, r, kind, records, profileRegistry)
			}))
		}
	}

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		router.Handle(routing.RouteClassAPI, method, "/api/parishioners", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handleParishionerCollectionAPI(w, r, parishioners, profileRegistry)
		}))
	}
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		router.Handle(routing.RouteClassAPI, method, "/api/parishioners/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handleParishionerItemAPI(w, r, parishioners, profileRegistry)
		}))
	}

	var h http.Handler = router
	h = withAuthz(classifier, auth, profileRegistry, h)
	h = withSession(classifier, sessions, users, h)
	return h, nil
}

func defaultAllowlistPath() (string, error) {
	path := "config/routing/allowlist.yaml"
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: routing allowlist not found")
}
