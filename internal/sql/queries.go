package sql

import (
	"embed"
)

// Migrations holds the schema DDL applied in filename order by db.ApplyMigrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/create_catalog_import.sql
var CreateCatalogImport string

//go:embed queries/merge_catalog_import.sql
var MergeCatalogImport string

//go:embed queries/create_patient_import.sql
var CreatePatientImport string

//go:embed queries/merge_patient_import.sql
var MergePatientImport string

//go:embed queries/select_services.sql
var SelectServices string

//go:embed queries/select_service.sql
var SelectService string

//go:embed queries/select_patient.sql
var SelectPatient string

//go:embed queries/upsert_plan.sql
var UpsertPlan string

//go:embed queries/delete_missing_versions.sql
var DeleteMissingVersions string

//go:embed queries/deactivate_versions.sql
var DeactivateVersions string

//go:embed queries/upsert_version.sql
var UpsertVersion string

//go:embed queries/select_plan.sql
var SelectPlan string

//go:embed queries/select_versions.sql
var SelectVersions string

//go:embed queries/list_plans.sql
var ListPlans string

//go:embed queries/delete_plan.sql
var DeletePlan string

//go:embed queries/select_progress.sql
var SelectProgress string

//go:embed queries/select_progress_record.sql
var SelectProgressRecord string

//go:embed queries/upsert_progress.sql
var UpsertProgress string

//go:embed queries/delete_progress.sql
var DeleteProgress string
