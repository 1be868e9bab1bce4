package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/maherrera/church-records/internal/routing"
	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
	hierarchyservices "github.com/maherrera/church-records/modules/hierarchy/services"
	profileports "github.com/maherrera/church-records/modules/profile/domain/ports"
	profiletypes "github.com/maherrera/church-records/modules/profile/domain/types"
)

const apiDateLayout = time.RFC3339

// callerProfile resolves the stored profile of the authenticated caller.
// A user without a profile acts with an empty one, which the engine
// treats as flagless. Registry failures are surfaced, never downgraded
// to a flagless profile.
func callerProfile(r *http.Request, profiles profileports.Registry) (profiletypes.Profile, bool, error) {
	p, ok := currentPrincipal(r.Context())
	if !ok {
		return profiletypes.Profile{}, false, nil
	}
	prof, err := profiles.FindByUser(r.Context(), p.UserID)
	if errors.Is(err, profileports.ErrProfileNotFound) {
		return profiletypes.Profile{UserID: p.UserID}, true, nil
	}
	if err != nil {
		return profiletypes.Profile{}, false, err
	}
	return prof, true, nil
}

type nodeRequest struct {
	Name        string `json:"name"`
	Union       string `json:"union"`
	Association string `json:"association"`
	District    string `json:"district"`
}

func (req nodeRequest) parentFor(kind types.EntityKind) string {
	spec, ok := types.SpecFor(kind)
	if !ok {
		return ""
	}
	switch spec.ParentField {
	case "union":
		return req.Union
	case "association":
		return req.Association
	case "district":
		return req.District
	default:
		return ""
	}
}

func nodeJSON(n types.Node) map[string]any {
	out := map[string]any{
		"id":        n.ID,
		"name":      n.Name,
		"createdBy": n.CreatedBy,
		"date":      n.CreatedAt.Format(apiDateLayout),
	}
	if spec, ok := types.SpecFor(n.Kind); ok && spec.ParentField != "" {
		out[spec.ParentField] = n.ParentID
	}
	if n.UpdatedBy != "" {
		out["updatedBy"] = n.UpdatedBy
	}
	if n.UpdatedAt != nil {
		out["updatedDate"] = n.UpdatedAt.Format(apiDateLayout)
	}
	return out
}

func nodeDetailJSON(d types.NodeDetail) map[string]any {
	out := nodeJSON(d.Node)
	ancestors := make([]map[string]any, 0, len(d.Ancestors))
	for _, a := range d.Ancestors {
		ancestors = append(ancestors, map[string]any{
			"kind": string(a.Kind),
			"id":   a.ID,
			"name": a.Name,
		})
	}
	out["ancestors"] = ancestors
	return out
}

// handleNodeCollectionAPI serves list and create for one hierarchy kind.
func handleNodeCollectionAPI(w http.ResponseWriter, r *http.Request, kind types.EntityKind, records *hierarchyservices.RecordService, profiles profileports.Registry) {
	const rc = routing.RouteClassAPI

	prof, ok, err := callerProfile(r, profiles)
	if err != nil {
		writeServiceError(w, r, rc, err)
		return
	}
	if !ok {
		routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		nodes, err := records.List(r.Context(), prof, kind)
		if err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		out := make([]map[string]any, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, nodeJSON(n))
		}
		routing.WriteJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req nodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		created, err := records.Create(r.Context(), prof, types.Node{
			Kind:     kind,
			Name:     req.Name,
			ParentID: req.parentFor(kind),
		})
		if err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		routing.WriteJSON(w, http.StatusCreated, nodeJSON(created))
	default:
		routing.WriteError(w, r, rc, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

// handleNodeItemAPI serves get, update and delete for one record.
func handleNodeItemAPI(w http.ResponseWriter, r *http.Request, kind types.EntityKind, records *hierarchyservices.RecordService, profiles profileports.Registry) {
	const rc = routing.RouteClassAPI

	prof, ok, err := callerProfile(r, profiles)
	if err != nil {
		writeServiceError(w, r, rc, err)
		return
	}
	if !ok {
		routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}
	id, ok := routing.PathParam(r, "id")
	if !ok || id == "" {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_request", "missing record id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		detail, err := records.Get(r.Context(), prof, kind, id)
		if err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		routing.WriteJSON(w, http.StatusOK, nodeDetailJSON(detail))
	case http.MethodPut:
		var req nodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		updated, err := records.Update(r.Context(), prof, kind, id, types.Node{
			Name:     req.Name,
			ParentID: req.parentFor(kind),
		})
		if err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		routing.WriteJSON(w, http.StatusOK, nodeJSON(updated))
	case http.MethodDelete:
		if err := records.Delete(r.Context(), prof, kind, id); err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		routing.WriteError(w, r, rc, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}
