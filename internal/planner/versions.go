package planner

import (
	"context"

	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/plan"
)

// CreateVersionRequest describes a new version.
type CreateVersionRequest struct {
	Name string `json:"name"`
	// From is the version to copy zones and comments from. Empty starts
	// from a blank odontogram.
	From     string `json:"from"`
	Activate bool   `json:"activate"`
}

// CreateVersion appends a version to the plan. New versions are inactive
// unless req.Activate is set.
func (s *Service) CreateVersion(ctx context.Context, planID string, req CreateVersionRequest) (model.PlanVersion, *Workspace, error) {
	var created model.PlanVersion
	ws, err := s.edit(ctx, "create version", planID, func(ws *Workspace) error {
		var err error
		if req.From != "" {
			created, err = ws.Plan.ForkVersion(req.From, req.Name)
		} else {
			created, err = ws.Plan.CreateVersion(req.Name, nil)
		}
		if err != nil {
			return err
		}
		if err := s.applyDefaultName(ws.Plan, created); err != nil {
			return err
		}
		if req.Activate {
			return ws.Plan.SetActiveVersion(created.ID)
		}
		return nil
	})
	if err != nil {
		return model.PlanVersion{}, nil, err
	}

	v, _ := ws.Plan.Version(created.ID)
	s.log.Info().
		Str("plan_id", planID).
		Str("version_id", v.ID).
		Int("ordinal", v.Ordinal).
		Int("entries", v.Zones.EntryCount()).
		Str("from", req.From).
		Bool("active", v.IsActive).
		Msg("version created")
	return v, ws, nil
}

// ActivateVersion makes versionID the plan's single active version.
func (s *Service) ActivateVersion(ctx context.Context, planID, versionID string) (*Workspace, error) {
	ws, err := s.edit(ctx, "activate version", planID, func(ws *Workspace) error {
		return ws.Plan.SetActiveVersion(versionID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("plan_id", planID).Str("version_id", versionID).Msg("version activated")
	return ws, nil
}

// DeleteVersion removes a version. Deleting the active version activates
// its nearest neighbour. The last version of a plan cannot be deleted.
func (s *Service) DeleteVersion(ctx context.Context, planID, versionID string) (*Workspace, error) {
	ws, err := s.edit(ctx, "delete version", planID, func(ws *Workspace) error {
		return ws.Plan.DeleteVersion(versionID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("plan_id", planID).
		Str("version_id", versionID).
		Str("active_version_id", ws.Plan.ActiveID()).
		Msg("version deleted")
	return ws, nil
}

// RenameVersion changes a version's display name.
func (s *Service) RenameVersion(ctx context.Context, planID, versionID, name string) (*Workspace, error) {
	return s.edit(ctx, "rename version", planID, func(ws *Workspace) error {
		return ws.Plan.RenameVersion(versionID, name)
	})
}

// VersionDiff is the zone-by-zone comparison of two versions. Identical is
// decided by value fingerprints, so forks nobody edited compare equal.
type VersionDiff struct {
	FromID    string          `json:"from_id"`
	ToID      string          `json:"to_id"`
	Identical bool            `json:"identical"`
	Zones     []plan.ZoneDiff `json:"zones"`
}

// Diff compares two versions of a plan zone by zone.
func (s *Service) Diff(ctx context.Context, planID, fromID, toID string) (VersionDiff, error) {
	ws, err := s.open(ctx, planID)
	if err != nil {
		return VersionDiff{}, &PlannerError{Op: "diff versions", Err: err}
	}
	from, err := ws.Plan.Version(fromID)
	if err != nil {
		return VersionDiff{}, &PlannerError{Op: "diff versions", Err: err}
	}
	to, err := ws.Plan.Version(toID)
	if err != nil {
		return VersionDiff{}, &PlannerError{Op: "diff versions", Err: err}
	}
	d := VersionDiff{
		FromID:    from.ID,
		ToID:      to.ID,
		Identical: plan.Fingerprint(from) == plan.Fingerprint(to),
		Zones:     plan.Diff(from, to),
	}
	if d.Zones == nil {
		d.Zones = []plan.ZoneDiff{}
	}
	return d, nil
}
