package server

import (
	"encoding/json"
	"net/http"

	"github.com/maherrera/church-records/internal/routing"
	profiletypes "github.com/maherrera/church-records/modules/profile/domain/types"
	profileservices "github.com/maherrera/church-records/modules/profile/services"
)

type profileRequest struct {
	Level             string `json:"level"`
	CreateUnion       bool   `json:"createUnion"`
	CreateAssociation bool   `json:"createAssociation"`
	CreateDistrict    bool   `json:"createDistrict"`
	CreateChurch      bool   `json:"createChurch"`
	CreateParishioner bool   `json:"createParishioner"`
	Union             string `json:"union"`
	Association       string `json:"association"`
	District          string `json:"district"`
	Church            string `json:"church"`
}

func (req profileRequest) toProfile() profiletypes.Profile {
	return profiletypes.Profile{
		Level:             profiletypes.Level(req.Level),
		CreateUnion:       req.CreateUnion,
		CreateAssociation: req.CreateAssociation,
		CreateDistrict:    req.CreateDistrict,
		CreateChurch:      req.CreateChurch,
		CreateParishioner: req.CreateParishioner,
		UnionID:           req.Union,
		AssociationID:     req.Association,
		DistrictID:        req.District,
		ChurchID:          req.Church,
	}
}

func profileJSON(p profiletypes.Profile) map[string]any {
	out := map[string]any{
		"id":                p.ID,
		"userId":            p.UserID,
		"level":             string(p.Level),
		"createUnion":       p.CreateUnion,
		"createAssociation": p.CreateAssociation,
		"createDistrict":    p.CreateDistrict,
		"createChurch":      p.CreateChurch,
		"createParishioner": p.CreateParishioner,
		"union":             p.UnionID,
		"association":       p.AssociationID,
		"district":          p.DistrictID,
		"church":            p.ChurchID,
		"createdBy":         p.CreatedBy,
		"date":              p.CreatedAt.Format(apiDateLayout),
	}
	if p.UpdatedBy != "" {
		out["updatedBy"] = p.UpdatedBy
	}
	if p.UpdatedAt != nil {
		out["updatedDate"] = p.UpdatedAt.Format(apiDateLayout)
	}
	return out
}

func handleProfileMeAPI(w http.ResponseWriter, r *http.Request, svc *profileservices.ProfileService) {
	const rc = routing.RouteClassAPI

	p, ok := currentPrincipal(r.Context())
	if !ok {
		routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}
	prof, err := svc.Me(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, r, rc, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, profileJSON(prof))
}

// handleProfileAPI serves list, self-upsert and self-delete.
func handleProfileAPI(w http.ResponseWriter, r *http.Request, svc *profileservices.ProfileService, users userStore, sessions sessionStore) {
	const rc = routing.RouteClassAPI

	p, ok := currentPrincipal(r.Context())
	if !ok {
		routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		caller, err := svc.Me(r.Context(), p.UserID)
		if err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		profiles, err := svc.List(r.Context(), caller)
		if err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		out := make([]map[string]any, 0, len(profiles))
		for _, prof := range profiles {
			out = append(out, profileJSON(prof))
		}
		routing.WriteJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req profileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		prof, err := svc.Upsert(r.Context(), p.UserID, req.toProfile())
		if err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		routing.WriteJSON(w, http.StatusOK, profileJSON(prof))
	case http.MethodDelete:
		// Removing the profile removes the account: the user row goes
		// with it and the session ends.
		if err := svc.DeleteOwn(r.Context(), p.UserID); err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		if err := users.Delete(r.Context(), p.UserID); err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		if sid, ok := readSID(r); ok {
			_ = sessions.Revoke(r.Context(), sid)
		}
		clearSIDCookie(w)
		w.WriteHeader(http.StatusNoContent)
	default:
		routing.WriteError(w, r, rc, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func handleProfileByUserAPI(w http.ResponseWriter, r *http.Request, svc *profileservices.ProfileService) {
	const rc = routing.RouteClassAPI

	p, ok := currentPrincipal(r.Context())
	if !ok {
		routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}
	userID, ok := routing.PathParam(r, "user_id")
	if !ok || userID == "" {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_request", "missing user id")
		return
	}

	caller, err := svc.Me(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, r, rc, err)
		return
	}
	target, err := svc.GetByUser(r.Context(), caller, userID)
	if err != nil {
		writeServiceError(w, r, rc, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, profileJSON(target))
}
