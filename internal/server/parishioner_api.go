package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/maherrera/church-records/internal/routing"
	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
	hierarchyservices "github.com/maherrera/church-records/modules/hierarchy/services"
	profileports "github.com/maherrera/church-records/modules/profile/domain/ports"
)

type parishionerRequest struct {
	Name                string   `json:"name"`
	Church              string   `json:"church"`
	Address             string   `json:"address"`
	Telephone           string   `json:"telephone"`
	Cellphone           string   `json:"cellphone"`
	Whatsapp            string   `json:"whatsapp"`
	BloodType           string   `json:"bloodType"`
	BirthDate           string   `json:"birthDate"`
	Sex                 string   `json:"sex"`
	Baptized            bool     `json:"baptized"`
	BaptizedDate        string   `json:"baptizedDate"`
	ParishionerInChurch bool     `json:"parishionerInChurch"`
	ReunionGroup        bool     `json:"reunionGroup"`
	Positions           []string `json:"positions"`
	RelationStatus      string   `json:"relationStatus"`
	FamilyMembers       []string `json:"familyMembers"`
	HouseOwner          bool     `json:"houseOwner"`
	Occupation          string   `json:"occupation"`
	Studies             string   `json:"studies"`
}

func (req parishionerRequest) toRecord() (types.Parishioner, error) {
	rec := types.Parishioner{
		Name:                req.Name,
		ChurchName:          req.Church,
		Address:             req.Address,
		Telephone:           req.Telephone,
		Cellphone:           req.Cellphone,
		Whatsapp:            req.Whatsapp,
		BloodType:           req.BloodType,
		Sex:                 req.Sex,
		Baptized:            req.Baptized,
		ParishionerInChurch: req.ParishionerInChurch,
		ReunionGroup:        req.ReunionGroup,
		Positions:           req.Positions,
		RelationStatus:      req.RelationStatus,
		FamilyMembers:       req.FamilyMembers,
		HouseOwner:          req.HouseOwner,
		Occupation:          req.Occupation,
		Studies:             req.Studies,
	}
	if req.BirthDate != "" {
		t, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return types.Parishioner{}, err
		}
		rec.BirthDate = &t
	}
	if req.BaptizedDate != "" {
		t, err := time.Parse("2006-01-02", req.BaptizedDate)
		if err != nil {
			return types.Parishioner{}, err
		}
		rec.BaptizedDate = &t
	}
	return rec, nil
}

func parishionerJSON(rec types.Parishioner) map[string]any {
	out := map[string]any{
		"id":                  rec.ID,
		"name":                rec.Name,
		"church":              rec.ChurchName,
		"address":             rec.Address,
		"telephone":           rec.Telephone,
		"cellphone":           rec.Cellphone,
		"whatsapp":            rec.Whatsapp,
		"bloodType":           rec.BloodType,
		"sex":                 rec.Sex,
		"baptized":            rec.Baptized,
		"parishionerInChurch": rec.ParishionerInChurch,
		"reunionGroup":        rec.ReunionGroup,
		"positions":           rec.Positions,
		"relationStatus":      rec.RelationStatus,
		"familyMembers":       rec.FamilyMembers,
		"houseOwner":          rec.HouseOwner,
		"occupation":          rec.Occupation,
		"studies":             rec.Studies,
		"createdBy":           rec.CreatedBy,
		"date":                rec.CreatedAt.Format(apiDateLayout),
	}
	if rec.BirthDate != nil {
		out["birthDate"] = rec.BirthDate.Format("2006-01-02")
	}
	if rec.BaptizedDate != nil {
		out["baptizedDate"] = rec.BaptizedDate.Format("2006-01-02")
	}
	if rec.UpdatedBy != "" {
		out["updatedBy"] = rec.UpdatedBy
	}
	if rec.UpdatedAt != nil {
		out["updatedDate"] = rec.UpdatedAt.Format(apiDateLayout)
	}
	return out
}

func handleParishionerCollectionAPI(w http.ResponseWriter, r *http.Request, svc *hierarchyservices.ParishionerService, profiles profileports.Registry) {
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
		recs, err := svc.List(r.Context(), prof)
		if err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		out := make([]map[string]any, 0, len(recs))
		for _, rec := range recs {
			out = append(out, parishionerJSON(rec))
		}
		routing.WriteJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req parishionerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		rec, err := req.toRecord()
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_request", "invalid date")
			return
		}
		created, err := svc.Create(r.Context(), prof, rec)
		if err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		routing.WriteJSON(w, http.StatusCreated, parishionerJSON(created))
	default:
		routing.WriteError(w, r, rc, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func handleParishionerItemAPI(w http.ResponseWriter, r *http.Request, svc *hierarchyservices.ParishionerService, profiles profileports.Registry) {
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
		rec, err := svc.Get(r.Context(), prof, id)
		if err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		routing.WriteJSON(w, http.StatusOK, parishionerJSON(rec))
	case http.MethodPut:
		var req parishionerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		rec, err := req.toRecord()
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_request", "invalid date")
			return
		}
		updated, err := svc.Update(r.Context(), prof, id, rec)
		if err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		routing.WriteJSON(w, http.StatusOK, parishionerJSON(updated))
	case http.MethodDelete:
		if err := svc.Delete(r.Context(), prof, id); err != nil {
			writeServiceError(w, r, rc, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		routing.WriteError(w, r, rc, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}
