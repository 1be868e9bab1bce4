package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/maherrera/church-records/modules/hierarchy/domain/ports"
	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
	profiletypes "github.com/maherrera/church-records/modules/profile/domain/types"
)

type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ScopeLevel is the explicit precedence order of the authority flags.
// A profile with several flags set is evaluated only under the highest
// one that governs the requested kind.
type ScopeLevel int

const (
	ScopeNone ScopeLevel = iota
	ScopeChurch
	ScopeDistrict
	ScopeAssociation
	ScopeUnion
)

// Deny reason codes, computed distinctly even where the HTTP layer
// collapses them into one generic message.
const (
	DenyNotAuthorized           = "NOT_AUTHORIZED"
	DenyMissingUnionScope       = "MISSING_UNION_SCOPE"
	DenyMissingAssociationScope = "MISSING_ASSOCIATION_SCOPE"
	DenyMissingDistrictScope    = "MISSING_DISTRICT_SCOPE"
	DenyMissingChurchScope      = "MISSING_CHURCH_SCOPE"
	DenyOutsideUnionScope       = "OUTSIDE_UNION_SCOPE"
	DenyOutsideAssociationScope = "OUTSIDE_ASSOCIATION_SCOPE"
	DenyOutsideDistrictScope    = "OUTSIDE_DISTRICT_SCOPE"
	DenyOutsideChurchScope      = "OUTSIDE_CHURCH_SCOPE"
	DenyRecordNotFound          = "RECORD_NOT_FOUND"
	DenyParentNotFound          = "PARENT_NOT_FOUND"
	DenyLineageBroken           = "LINEAGE_BROKEN"
)

type Decision struct {
	Allowed     bool
	DenyReasons []string
	// Filter restricts permitted collection reads to the caller's
	// subtree. Zero for union-level authority.
	Filter ports.ListFilter
}

func permit(filter ports.ListFilter) Decision {
	return Decision{Allowed: true, Filter: filter}
}

func deny(reasons ...string) Decision {
	return Decision{Allowed: false, DenyReasons: dedupAndSortDenyReasons(reasons)}
}

// Reason returns the primary deny reason, or "".
func (d Decision) Reason() string {
	if d.Allowed || len(d.DenyReasons) == 0 {
		return ""
	}
	return d.DenyReasons[0]
}

// EffectiveLevel resolves a profile's flags to its scope level in strict
// precedence order Union > Association > District > Church.
func EffectiveLevel(p profiletypes.Profile) ScopeLevel {
	switch {
	case p.CreateUnion:
		return ScopeUnion
	case p.CreateAssociation:
		return ScopeAssociation
	case p.CreateDistrict:
		return ScopeDistrict
	case p.CreateChurch:
		return ScopeChurch
	default:
		return ScopeNone
	}
}

type levelSpec struct {
	anchorKind    types.EntityKind
	anchorDepth   int
	missingReason string
	outsideReason string
}

var levelSpecs = map[ScopeLevel]levelSpec{
	ScopeAssociation: {anchorKind: types.KindUnion, anchorDepth: 0, missingReason: DenyMissingUnionScope, outsideReason: DenyOutsideUnionScope},
	ScopeDistrict:    {anchorKind: types.KindAssociation, anchorDepth: 1, missingReason: DenyMissingAssociationScope, outsideReason: DenyOutsideAssociationScope},
	ScopeChurch:      {anchorKind: types.KindDistrict, anchorDepth: 2, missingReason: DenyMissingDistrictScope, outsideReason: DenyOutsideDistrictScope},
}

func anchorID(p profiletypes.Profile, level ScopeLevel) string {
	switch level {
	case ScopeAssociation:
		return p.UnionID
	case ScopeDistrict:
		return p.AssociationID
	case ScopeChurch:
		return p.DistrictID
	default:
		return ""
	}
}

// Engine is the decision function applied uniformly across the four
// hierarchy kinds; each kind differs only in its descriptor.
type Engine struct {
	resolver *ScopeResolver
}

func NewEngine(resolver *ScopeResolver) *Engine {
	return &Engine{resolver: resolver}
}

// Decide authorizes one operation. For OpCreate, targetID is the
// submitted parent reference; for the other single-record operations it
// is the target record's ID, and for OpList it is ignored.
//
// A non-nil error is a persistence failure; every domain outcome,
// including missing records and broken chains, is a Decision.
func (e *Engine) Decide(ctx context.Context, p profiletypes.Profile, op Operation, kind types.EntityKind, targetID string) (Decision, error) {
	spec, ok := types.SpecFor(kind)
	if !ok {
		return deny(DenyNotAuthorized), nil
	}

	// Union anchors must stay listable for every profiled caller: scoped
	// profiles display their own anchor by name.
	if kind == types.KindUnion && op == OpList {
		return permit(ports.ListFilter{}), nil
	}

	level := EffectiveLevel(p)
	if level == ScopeNone {
		return deny(DenyNotAuthorized), nil
	}
	if level == ScopeUnion {
		return permit(ports.ListFilter{}), nil
	}

	ls := levelSpecs[level]

	// A level governs only the kinds strictly below its anchor.
	if spec.Depth <= ls.anchorDepth {
		return deny(DenyNotAuthorized), nil
	}
	if anchorID(p, level) == "" {
		return deny(ls.missingReason), nil
	}

	switch op {
	case OpList:
		return permit(ports.ListFilter{AncestorKind: ls.anchorKind, AncestorID: anchorID(p, level)}), nil
	case OpCreate:
		return e.decideAgainstLineage(ctx, p, level, spec.Parent, targetID, DenyParentNotFound)
	case OpGet, OpUpdate, OpDelete:
		return e.decideAgainstLineage(ctx, p, level, kind, targetID, DenyRecordNotFound)
	default:
		return deny(DenyNotAuthorized), nil
	}
}

func (e *Engine) decideAgainstLineage(ctx context.Context, p profiletypes.Profile, level ScopeLevel, kind types.EntityKind, id string, notFoundReason string) (Decision, error) {
	ls := levelSpecs[level]

	lineage, err := e.resolver.ResolveAncestors(ctx, kind, id)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrNotFound):
			return deny(notFoundReason), nil
		case errors.Is(err, ErrLineageBroken):
			return deny(DenyLineageBroken), nil
		default:
			return Decision{}, err
		}
	}

	if lineage.At(ls.anchorDepth) != anchorID(p, level) {
		return deny(ls.outsideReason), nil
	}
	return permit(ports.ListFilter{AncestorKind: ls.anchorKind, AncestorID: anchorID(p, level)}), nil
}

func dedupAndSortDenyReasons(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, item := range in {
		code := strings.TrimSpace(item)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return denyReasonPriority(out[i]) < denyReasonPriority(out[j])
	})
	return out
}

func denyReasonPriority(code string) int {
	switch code {
	case DenyNotAuthorized:
		return 10
	case DenyMissingUnionScope:
		return 20
	case DenyMissingAssociationScope:
		return 21
	case DenyMissingDistrictScope:
		return 22
	case DenyMissingChurchScope:
		return 23
	case DenyRecordNotFound:
		return 30
	case DenyParentNotFound:
		return 31
	case DenyLineageBroken:
		return 32
	case DenyOutsideUnionScope:
		return 40
	case DenyOutsideAssociationScope:
		return 41
	case DenyOutsideDistrictScope:
		return 42
	case DenyOutsideChurchScope:
		return 43
	default:
		return 100
	}
}
