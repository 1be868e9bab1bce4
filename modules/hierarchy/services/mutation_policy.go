package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
	"github.com/maherrera/church-records/pkg/httperr"
)

// MutationPolicy validates and stamps hierarchy writes. Authorization is
// the engine's job; the policy only checks the submitted fields and
// fills the audit columns.
type MutationPolicy struct {
	now func() time.Time
}

func NewMutationPolicy() *MutationPolicy {
	return &MutationPolicy{now: time.Now}
}

// PrepareCreate validates a new record and stamps id, created_by and
// created_at. updated_by and updated_at stay unset until the first
// update.
func (p *MutationPolicy) PrepareCreate(actorUserID string, node types.Node) (types.Node, error) {
	spec, ok := types.SpecFor(node.Kind)
	if !ok {
		return types.Node{}, httperr.NewBadRequest(fmt.Sprintf("unknown record kind %q", node.Kind))
	}

	node.Name = strings.TrimSpace(node.Name)
	if node.Name == "" {
		return types.Node{}, httperr.NewBadRequest("name is required")
	}
	node.ParentID = strings.TrimSpace(node.ParentID)
	if spec.Parent != "" && node.ParentID == "" {
		return types.Node{}, httperr.NewBadRequest(fmt.Sprintf("%s is required", spec.ParentField))
	}
	if spec.Parent == "" && node.ParentID != "" {
		return types.Node{}, httperr.NewBadRequest("union records take no parent")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return types.Node{}, fmt.Errorf("mint record id: %w", err)
	}
	node.ID = id.String()
	node.CreatedBy = actorUserID
	node.CreatedAt = p.now().UTC()
	node.UpdatedBy = ""
	node.UpdatedAt = nil
	return node, nil
}

// PrepareUpdate validates the submitted fields against the current
// record and stamps updated_by and updated_at. Creation audit fields are
// carried over untouched.
func (p *MutationPolicy) PrepareUpdate(actorUserID string, current, submitted types.Node) (types.Node, error) {
	spec, ok := types.SpecFor(current.Kind)
	if !ok {
		return types.Node{}, httperr.NewBadRequest(fmt.Sprintf("unknown record kind %q", current.Kind))
	}

	submitted.Name = strings.TrimSpace(submitted.Name)
	if submitted.Name == "" {
		return types.Node{}, httperr.NewBadRequest("name is required")
	}
	submitted.ParentID = strings.TrimSpace(submitted.ParentID)
	if spec.Parent != "" && submitted.ParentID == "" {
		return types.Node{}, httperr.NewBadRequest(fmt.Sprintf("%s is required", spec.ParentField))
	}
	if spec.Parent == "" && submitted.ParentID != "" {
		return types.Node{}, httperr.NewBadRequest("union records take no parent")
	}

	now := p.now().UTC()
	current.Name = submitted.Name
	current.ParentID = submitted.ParentID
	current.UpdatedBy = actorUserID
	current.UpdatedAt = &now
	return current, nil
}
