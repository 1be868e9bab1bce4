package routing

import (
	"strings"
	"testing"
)

func TestParseAllowlistYAML(t *testing.T) {
	a, err := ParseAllowlistYAML([]byte(`
version: 1
entrypoints:
  server:
    routes:
      - path: /health
        methods: [GET]
        route_class: ops
      - path: /api/unions
        methods: [GET, POST]
        route_class: api
`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got := len(a.Entrypoints["server"].Routes); got != 2 {
		t.Fatalf("routes=%d", got)
	}
}

func TestParseAllowlistYAML_UnknownRouteClass(t *testing.T) {
	_, err := ParseAllowlistYAML([]byte(`
version: 1
entrypoints:
  server:
    routes:
      - path: /api/unions
        methods: [GET]
        route_class: apii
`))
	if err == nil || !strings.Contains(err.Error(), "route_class") {
		t.Fatalf("err=%v, want unknown route_class", err)
	}
}

func TestParseAllowlistYAML_UnsupportedVersion(t *testing.T) {
	_, err := ParseAllowlistYAML([]byte("version: 2\nentrypoints: {}\n"))
	if err == nil {
		t.Fatalf("version 2 accepted")
	}
}
