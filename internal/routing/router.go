package routing

import (
	"context"
	"net/http"
	"runtime/debug"
)

type Router struct {
	classifier *Classifier
	routes     map[string]map[string]routeEntry
	patterns   []patternEntry
}

type routeEntry struct {
	rc      RouteClass
	handler http.Handler
}

type patternEntry struct {
	pattern PathPattern
	method  string
	rc      RouteClass
	handler http.Handler
}

func NewRouter(classifier *Classifier) *Router {
	return &Router{
		classifier: classifier,
		routes:     make(map[string]map[string]routeEntry),
	}
}

func (r *Router) Handle(rc RouteClass, method string, path string, h http.Handler) {
	wrapped := recoverHandler(rc, h)

	if p, ok := parsePathPattern(path); ok {
		r.patterns = append(r.patterns, patternEntry{pattern: p, method: method, rc: rc, handler: wrapped})
		return
	}

	if r.routes[path] == nil {
		r.routes[path] = make(map[string]routeEntry)
	}
	r.routes[path][method] = routeEntry{rc: rc, handler: wrapped}
}

func recoverHandler(rc RouteClass, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				_ = debug.Stack()
				WriteError(w, req, rc, http.StatusInternalServerError, "internal_error", "internal error")
			}
		}()
		h.ServeHTTP(w, req)
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if methods, ok := r.routes[req.URL.Path]; ok {
		entry, ok := methods[req.Method]
		if !ok {
			WriteError(w, req, entrypointClass(methods, r.classifier.Classify(req.URL.Path)), http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		entry.handler.ServeHTTP(w, req)
		return
	}

	pathMatched := false
	for _, p := range r.patterns {
		if !p.pattern.Match(req.URL.Path) {
			continue
		}
		pathMatched = true
		if p.method != req.Method {
			continue
		}
		p.handler.ServeHTTP(w, req.WithContext(withPathPattern(req.Context(), p.pattern)))
		return
	}
	if pathMatched {
		WriteError(w, req, r.classifier.Classify(req.URL.Path), http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	WriteError(w, req, r.classifier.Classify(req.URL.Path), http.StatusNotFound, "not_found", "not found")
}

func entrypointClass(methods map[string]routeEntry, fallback RouteClass) RouteClass {
	for _, e := range methods {
		return e.rc
	}
	return fallback
}

type pathPatternCtxKey struct{}

func withPathPattern(ctx context.Context, p PathPattern) context.Context {
	return context.WithValue(ctx, pathPatternCtxKey{}, p)
}

// PathParam returns the named {param} segment of the matched route.
func PathParam(r *http.Request, name string) (string, bool) {
	p, ok := r.Context().Value(pathPatternCtxKey{}).(PathPattern)
	if !ok {
		return "", false
	}
	return p.Param(r.URL.Path, name)
}
