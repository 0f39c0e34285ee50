package planner

import (
	"context"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/normalize"
	"github.com/gyeh/odontoplan/internal/plan"
)

// ApplyStatusRequest adds one condition or treatment to a zone.
type ApplyStatusRequest struct {
	VersionID string           `json:"version_id"` // empty means the active version
	Zone      string           `json:"zone"`
	Kind      model.StatusKind `json:"kind"`
	Label     string           `json:"label"`
	Color     string           `json:"color"`
	ServiceID string           `json:"service_id"`
}

// ApplyStatus records a status entry on a version's zone. A treatment must
// reference a service present in the catalog at this moment.
func (s *Service) ApplyStatus(ctx context.Context, planID string, req ApplyStatusRequest) (model.StatusEntry, *Workspace, error) {
	key := normalize.ZoneKey(req.Zone)
	entry, err := plan.ApplyStatus(key, req.Kind, req.Label, req.Color, req.ServiceID)
	if err != nil {
		return model.StatusEntry{}, nil, &PlannerError{Op: "apply status", Err: err}
	}

	var versionID string
	ws, err := s.edit(ctx, "apply status", planID, func(ws *Workspace) error {
		if entry.Kind == model.KindTreatment {
			if _, ok := ws.Catalog.Lookup(entry.ServiceID); !ok {
				return apperr.NotFound("service", entry.ServiceID)
			}
		}
		v, err := resolveVersion(ws, req.VersionID)
		if err != nil {
			return err
		}
		versionID = v.ID
		return ws.Plan.UpdateZones(v.ID, func(zm model.ZoneMap) error {
			plan.PutStatus(zm, key, entry)
			return nil
		})
	})
	if err != nil {
		return model.StatusEntry{}, nil, err
	}

	s.log.Info().
		Str("plan_id", planID).
		Str("version_id", versionID).
		Str("zone", string(key)).
		Str("kind", string(entry.Kind)).
		Str("entry_id", entry.ID).
		Msg("status applied")
	return entry, ws, nil
}

// ClearStatus removes one entry from a zone.
func (s *Service) ClearStatus(ctx context.Context, planID, versionID, zone, entryID string) (*Workspace, error) {
	key := normalize.ZoneKey(zone)
	return s.edit(ctx, "clear status", planID, func(ws *Workspace) error {
		v, err := resolveVersion(ws, versionID)
		if err != nil {
			return err
		}
		return ws.Plan.UpdateZones(v.ID, func(zm model.ZoneMap) error {
			return plan.ClearStatus(zm, key, entryID)
		})
	})
}

// ClearZone removes every entry of a zone.
func (s *Service) ClearZone(ctx context.Context, planID, versionID, zone string) (*Workspace, error) {
	key := normalize.ZoneKey(zone)
	if err := model.ValidateZoneKey(key); err != nil {
		return nil, &PlannerError{Op: "clear zone", Err: err}
	}
	return s.edit(ctx, "clear zone", planID, func(ws *Workspace) error {
		v, err := resolveVersion(ws, versionID)
		if err != nil {
			return err
		}
		return ws.Plan.UpdateZones(v.ID, func(zm model.ZoneMap) error {
			plan.ClearZone(zm, key)
			return nil
		})
	})
}

// SetZoneComment sets or, with an empty comment, clears a zone's comment.
func (s *Service) SetZoneComment(ctx context.Context, planID, versionID, zone, comment string) (*Workspace, error) {
	key := normalize.ZoneKey(zone)
	return s.edit(ctx, "set zone comment", planID, func(ws *Workspace) error {
		v, err := resolveVersion(ws, versionID)
		if err != nil {
			return err
		}
		return ws.Plan.SetZoneComment(v.ID, key, comment)
	})
}
