package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/model"
	embedsql "github.com/gyeh/odontoplan/internal/sql"
	"github.com/gyeh/odontoplan/internal/store"
)

// Store implements store.Store on the dental schema.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore wraps an open pool. The caller owns the pool.
func NewStore(pool *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{pool: pool, log: log}
}

func (s *Store) ListServices(ctx context.Context) ([]model.CatalogService, error) {
	rows, err := s.pool.Query(ctx, embedsql.SelectServices)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanService)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

func (s *Store) GetService(ctx context.Context, id string) (*model.CatalogService, error) {
	rows, err := s.pool.Query(ctx, embedsql.SelectService, id)
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", id, err)
	}
	svc, err := pgx.CollectExactlyOneRow(rows, scanService)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", id, err)
	}
	return &svc, nil
}

func scanService(row pgx.CollectableRow) (model.CatalogService, error) {
	var (
		svc         model.CatalogService
		duration    int32
		patientType string
	)
	if err := row.Scan(&svc.ID, &svc.Name, &svc.CostCents, &duration, &patientType); err != nil {
		return model.CatalogService{}, err
	}
	svc.DurationMin = int(duration)
	svc.PatientType = model.PatientType(patientType)
	return svc, nil
}

// UpsertServices loads services through a temp table with COPY and merges
// them into the catalog.
func (s *Store) UpsertServices(ctx context.Context, services []model.CatalogService) (int64, error) {
	return s.ImportServices(ctx, Feed(services))
}

// ImportServices streams services from ch into the catalog. The channel must
// be closed by the producer.
func (s *Store) ImportServices(ctx context.Context, ch <-chan model.CatalogService) (int64, error) {
	return s.importRows(ctx, "catalog", embedsql.CreateCatalogImport, embedsql.MergeCatalogImport,
		pgx.Identifier{"catalog_import"}, model.CatalogColumns(), NewChannelSource(ch))
}

func (s *Store) UpsertPatients(ctx context.Context, patients []model.Patient) (int64, error) {
	return s.importRows(ctx, "patients", embedsql.CreatePatientImport, embedsql.MergePatientImport,
		pgx.Identifier{"patient_import"}, model.PatientColumns(), NewChannelSource(Feed(patients)))
}

func (s *Store) importRows(ctx context.Context, what, createSQL, mergeSQL string, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("import %s begin: %w", what, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, fmt.Errorf("import %s create temp table: %w", what, err)
	}
	copied, err := tx.CopyFrom(ctx, table, columns, src)
	if err != nil {
		return 0, fmt.Errorf("import %s copy: %w", what, err)
	}
	tag, err := tx.Exec(ctx, mergeSQL)
	if err != nil {
		return 0, fmt.Errorf("import %s merge: %w", what, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("import %s commit: %w", what, err)
	}

	s.log.Info().
		Str("table", what).
		Int64("rows_copied", copied).
		Int64("rows_merged", tag.RowsAffected()).
		Dur("duration", time.Since(start)).
		Msg("import complete")
	return tag.RowsAffected(), nil
}

func (s *Store) GetPatient(ctx context.Context, patientID string) (model.Patient, error) {
	var p model.Patient
	err := s.pool.QueryRow(ctx, embedsql.SelectPatient, patientID).Scan(&p.ID, &p.Name, &p.BirthDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Patient{}, apperr.NotFound("patient", patientID)
	}
	if err != nil {
		return model.Patient{}, fmt.Errorf("get patient %s: %w", patientID, err)
	}
	return p, nil
}

func (s *Store) LoadPlan(ctx context.Context, planID string) (model.PlanSnapshot, error) {
	var snap model.PlanSnapshot
	err := s.pool.QueryRow(ctx, embedsql.SelectPlan, planID).
		Scan(&snap.ID, &snap.PatientID, &snap.Observations, &snap.TotalCents, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PlanSnapshot{}, apperr.NotFound("plan", planID)
	}
	if err != nil {
		return model.PlanSnapshot{}, fmt.Errorf("load plan %s: %w", planID, err)
	}

	rows, err := s.pool.Query(ctx, embedsql.SelectVersions, planID)
	if err != nil {
		return model.PlanSnapshot{}, fmt.Errorf("load versions of %s: %w", planID, err)
	}
	snap.Versions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PlanVersion, error) {
		var v model.PlanVersion
		var ordinal int32
		err := row.Scan(&v.ID, &v.PlanID, &v.Name, &ordinal, &v.IsActive, &v.TotalCents,
			&v.Zones, &v.Comments, &v.CreatedAt)
		v.Ordinal = int(ordinal)
		return v, err
	})
	if err != nil {
		return model.PlanSnapshot{}, fmt.Errorf("load versions of %s: %w", planID, err)
	}
	return snap, nil
}

// SavePlan writes the plan and its version set in one transaction. Versions
// no longer in the snapshot are deleted and every active flag is cleared
// before the upserts so the one-active index never sees two rows.
func (s *Store) SavePlan(ctx context.Context, plan model.PlanSnapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save plan %s begin: %w", plan.ID, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, embedsql.UpsertPlan,
		plan.ID, plan.PatientID, plan.Observations, plan.TotalCents, plan.CreatedAt); err != nil {
		return fmt.Errorf("save plan %s: %w", plan.ID, err)
	}

	ids := make([]string, len(plan.Versions))
	for i, v := range plan.Versions {
		ids[i] = v.ID
	}
	tag, err := tx.Exec(ctx, embedsql.DeleteMissingVersions, plan.ID, ids)
	if err != nil {
		return fmt.Errorf("save plan %s delete versions: %w", plan.ID, err)
	}
	if tag.RowsAffected() > 0 {
		s.log.Debug().Str("plan_id", plan.ID).Int64("deleted", tag.RowsAffected()).Msg("versions removed")
	}
	if _, err := tx.Exec(ctx, embedsql.DeactivateVersions, plan.ID); err != nil {
		return fmt.Errorf("save plan %s deactivate: %w", plan.ID, err)
	}

	for _, v := range plan.Versions {
		zones := v.Zones.Clone()
		comments := model.CloneComments(v.Comments)
		if _, err := tx.Exec(ctx, embedsql.UpsertVersion,
			v.ID, plan.ID, v.Name, int32(v.Ordinal), v.IsActive, v.TotalCents,
			zones, comments, v.CreatedAt); err != nil {
			return fmt.Errorf("save version %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("save plan %s commit: %w", plan.ID, err)
	}
	return nil
}

func (s *Store) ListPlans(ctx context.Context, patientID string) ([]model.PlanSummary, error) {
	rows, err := s.pool.Query(ctx, embedsql.ListPlans, patientID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PlanSummary, error) {
		var p model.PlanSummary
		var count int32
		err := row.Scan(&p.ID, &p.PatientID, &p.Observations, &p.TotalCents, &p.CreatedAt, &count)
		p.VersionCount = int(count)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return out, nil
}

func (s *Store) DeletePlan(ctx context.Context, planID string) error {
	tag, err := s.pool.Exec(ctx, embedsql.DeletePlan, planID)
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", planID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("plan", planID)
	}
	return nil
}

func (s *Store) LoadProgress(ctx context.Context, f store.ProgressFilter) ([]model.ProgressRecord, error) {
	if f.Empty() {
		return nil, apperr.Validation("filter", "one of plan, version or patient id is required")
	}
	rows, err := s.pool.Query(ctx, embedsql.SelectProgress, f.PlanID, f.VersionID, f.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanProgress)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return out, nil
}

func (s *Store) GetProgress(ctx context.Context, recordID string) (model.ProgressRecord, error) {
	rows, err := s.pool.Query(ctx, embedsql.SelectProgressRecord, recordID)
	if err != nil {
		return model.ProgressRecord{}, fmt.Errorf("get progress %s: %w", recordID, err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, scanProgress)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ProgressRecord{}, apperr.NotFound("progress record", recordID)
	}
	if err != nil {
		return model.ProgressRecord{}, fmt.Errorf("get progress %s: %w", recordID, err)
	}
	return rec, nil
}

func scanProgress(row pgx.CollectableRow) (model.ProgressRecord, error) {
	var (
		r           model.ProgressRecord
		zoneKey, st string
	)
	err := row.Scan(&r.ID, &r.PatientID, &r.PlanID, &r.VersionID, &r.EntryID, &zoneKey, &r.Label,
		&r.ServiceID, &st, &r.CompletedOn, &r.AmountPaidCents, &r.PaidOn, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt)
	r.ZoneKey = model.ZoneKey(zoneKey)
	r.State = model.ProgressState(st)
	return r, err
}

func (s *Store) SaveProgress(ctx context.Context, r model.ProgressRecord) error {
	_, err := s.pool.Exec(ctx, embedsql.UpsertProgress,
		r.ID, r.PatientID, r.PlanID, r.VersionID, r.EntryID, string(r.ZoneKey), r.Label, r.ServiceID,
		string(r.State), r.CompletedOn, r.AmountPaidCents, r.PaidOn, r.Notes, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save progress %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) DeleteProgress(ctx context.Context, recordID string) error {
	tag, err := s.pool.Exec(ctx, embedsql.DeleteProgress, recordID)
	if err != nil {
		return fmt.Errorf("delete progress %s: %w", recordID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("progress record", recordID)
	}
	return nil
}
