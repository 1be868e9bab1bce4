package routing

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Allowlist struct {
	Version     int                   `yaml:"version"`
	Entrypoints map[string]Entrypoint `yaml:"entrypoints"`
}

type Entrypoint struct {
	Routes []Route `yaml:"routes"`
}

type Route struct {
	Path       string   `yaml:"path"`
	Methods    []string `yaml:"methods"`
	RouteClass string   `yaml:"route_class"`
}

func ParseAllowlistYAML(b []byte) (Allowlist, error) {
	var a Allowlist
	if err := yaml.Unmarshal(b, &a); err != nil {
		return Allowlist{}, err
	}
	if a.Version != 1 {
		return Allowlist{}, errors.New("allowlist: unsupported version")
	}
	if a.Entrypoints == nil {
		return Allowlist{}, errors.New("allowlist: missing entrypoints")
	}
	for name, ep := range a.Entrypoints {
		for _, r := range ep.Routes {
			if !validRouteClass(r.RouteClass) {
				return Allowlist{}, fmt.Errorf("allowlist: entrypoint %s route %s: unknown route_class %q", name, r.Path, r.RouteClass)
			}
		}
	}
	return a, nil
}

// validRouteClass admits the four classes this service routes on. A typo
// in the YAML fails the load instead of falling through to classifier
// defaults.
func validRouteClass(rc string) bool {
	switch RouteClass(rc) {
	case RouteClassAPI, RouteClassAuthn, RouteClassOps, RouteClassUI:
		return true
	}
	return false
}

func LoadAllowlist(path string) (Allowlist, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Allowlist{}, err
	}
	return ParseAllowlistYAML(b)
}
