package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/normalize"
	"github.com/gyeh/odontoplan/internal/plan"
	"github.com/gyeh/odontoplan/internal/planner"
	"github.com/gyeh/odontoplan/internal/store"
)

type Handler struct {
	log     zerolog.Logger
	planner *planner.Service
}

func NewHandler(log zerolog.Logger, p *planner.Service) *Handler {
	return &Handler{
		log:     log.With().Str("component", "httpapi").Logger(),
		planner: p,
	}
}

// fail writes the error envelope for err. Unclassified errors are logged.
func (h *Handler) fail(c *gin.Context, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	RespondError(c, status, code, err)
}

// bind decodes the JSON body into dst, answering 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, CodeValidationError, err)
		return false
	}
	return true
}

type versionView struct {
	model.PlanVersion
	EntryCount int             `json:"entry_count"`
	Cost       plan.CostResult `json:"cost"`
}

type planView struct {
	ID              string        `json:"id"`
	PatientID       string        `json:"patient_id"`
	Observations    string        `json:"observations"`
	CreatedAt       time.Time     `json:"created_at"`
	TotalCents      int64         `json:"total_cents"`
	ActiveVersionID string        `json:"active_version_id"`
	Repaired        bool          `json:"repaired,omitempty"`
	Versions        []versionView `json:"versions"`
}

func newVersionView(v model.PlanVersion, cost plan.CostResult) versionView {
	return versionView{PlanVersion: v, EntryCount: v.Zones.EntryCount(), Cost: cost}
}

func newPlanView(ws *planner.Workspace) planView {
	p := ws.Plan
	view := planView{
		ID:              p.ID,
		PatientID:       p.PatientID,
		Observations:    p.Observations,
		CreatedAt:       p.CreatedAt,
		TotalCents:      p.TotalCents(),
		ActiveVersionID: p.ActiveID(),
		Repaired:        ws.Repaired,
	}
	for _, v := range p.Versions() {
		view.Versions = append(view.Versions, newVersionView(v, ws.Costs[v.ID]))
	}
	return view
}

func HealthCheck(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}

// Patients

func (h *Handler) PatientType(c *gin.Context) {
	pt, err := h.planner.PatientType(c.Request.Context(), c.Param("patientID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"patient_type": pt})
}

func (h *Handler) PatientServices(c *gin.Context) {
	services, err := h.planner.ServicesFor(c.Request.Context(), c.Param("patientID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"services": services})
}

func (h *Handler) PatientPlans(c *gin.Context) {
	plans, err := h.planner.ListPlans(c.Request.Context(), c.Param("patientID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if plans == nil {
		plans = []model.PlanSummary{}
	}
	RespondOK(c, gin.H{"plans": plans})
}

// Plans

type createPlanInput struct {
	PatientID    string `json:"patient_id" binding:"required"`
	Observations string `json:"observations"`
}

func (h *Handler) CreatePlan(c *gin.Context) {
	var in createPlanInput
	if !bind(c, &in) {
		return
	}
	ws, err := h.planner.CreatePlan(c.Request.Context(), in.PatientID, in.Observations)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": newPlanView(ws)})
}

func (h *Handler) GetPlan(c *gin.Context) {
	ws, err := h.planner.Open(c.Request.Context(), c.Param("planID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": newPlanView(ws)})
}

func (h *Handler) DeletePlan(c *gin.Context) {
	if err := h.planner.DeletePlan(c.Request.Context(), c.Param("planID")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Versions

func (h *Handler) CreateVersion(c *gin.Context) {
	var in planner.CreateVersionRequest
	if !bind(c, &in) {
		return
	}
	v, ws, err := h.planner.CreateVersion(c.Request.Context(), c.Param("planID"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"version": newVersionView(v, ws.Costs[v.ID])})
}

func (h *Handler) ActivateVersion(c *gin.Context) {
	ws, err := h.planner.ActivateVersion(c.Request.Context(), c.Param("planID"), c.Param("versionID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": newPlanView(ws)})
}

type renameInput struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) RenameVersion(c *gin.Context) {
	var in renameInput
	if !bind(c, &in) {
		return
	}
	ws, err := h.planner.RenameVersion(c.Request.Context(), c.Param("planID"), c.Param("versionID"), in.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": newPlanView(ws)})
}

func (h *Handler) DeleteVersion(c *gin.Context) {
	ws, err := h.planner.DeleteVersion(c.Request.Context(), c.Param("planID"), c.Param("versionID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": newPlanView(ws)})
}

func (h *Handler) VersionCosts(c *gin.Context) {
	v, cost, err := h.planner.Costs(c.Request.Context(), c.Param("planID"), c.Param("versionID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"version_id": v.ID, "cost": cost})
}

func (h *Handler) Diff(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		h.fail(c, apperr.Validation("from", "both from and to version ids are required"))
		return
	}
	d, err := h.planner.Diff(c.Request.Context(), c.Param("planID"), from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"diff": d})
}

// Zones

func (h *Handler) ApplyStatus(c *gin.Context) {
	var in planner.ApplyStatusRequest
	if !bind(c, &in) {
		return
	}
	entry, ws, err := h.planner.ApplyStatus(c.Request.Context(), c.Param("planID"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry, "total_cents": ws.Plan.TotalCents()})
}

func (h *Handler) ClearStatus(c *gin.Context) {
	ws, err := h.planner.ClearStatus(c.Request.Context(), c.Param("planID"), c.Query("version_id"),
		c.Param("zone"), c.Param("entryID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": newPlanView(ws)})
}

func (h *Handler) ClearZone(c *gin.Context) {
	ws, err := h.planner.ClearZone(c.Request.Context(), c.Param("planID"), c.Query("version_id"), c.Param("zone"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": newPlanView(ws)})
}

type commentInput struct {
	VersionID string `json:"version_id"`
	Comment   string `json:"comment"`
}

func (h *Handler) SetZoneComment(c *gin.Context) {
	var in commentInput
	if !bind(c, &in) {
		return
	}
	ws, err := h.planner.SetZoneComment(c.Request.Context(), c.Param("planID"), in.VersionID, c.Param("zone"), in.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": newPlanView(ws)})
}

// Progress

type seedInput struct {
	VersionID string `json:"version_id"`
}

func (h *Handler) SeedProgress(c *gin.Context) {
	var in seedInput
	if c.Request.ContentLength > 0 && !bind(c, &in) {
		return
	}
	records, err := h.planner.SeedProgress(c.Request.Context(), c.Param("planID"), in.VersionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if records == nil {
		records = []model.ProgressRecord{}
	}
	c.JSON(http.StatusCreated, gin.H{"records": records})
}

func (h *Handler) PlanProgress(c *gin.Context) {
	report, err := h.planner.Progress(c.Request.Context(), store.ProgressFilter{PlanID: c.Param("planID")})
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, report)
}

type completeInput struct {
	Date        string `json:"date"`
	AmountCents int64  `json:"amount_cents"`
	Notes       string `json:"notes"`
}

func (h *Handler) CompleteProgress(c *gin.Context) {
	var in completeInput
	if !bind(c, &in) {
		return
	}
	rec, err := h.planner.CompleteProgress(c.Request.Context(), c.Param("recordID"), parseDay(in.Date), in.AmountCents, in.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"record": rec})
}

type cancelInput struct {
	Notes string `json:"notes"`
}

func (h *Handler) CancelProgress(c *gin.Context) {
	var in cancelInput
	if c.Request.ContentLength > 0 && !bind(c, &in) {
		return
	}
	rec, err := h.planner.CancelProgress(c.Request.Context(), c.Param("recordID"), in.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"record": rec})
}

type paymentInput struct {
	AmountCents int64  `json:"amount_cents"`
	Date        string `json:"date"`
}

func (h *Handler) RegisterPayment(c *gin.Context) {
	var in paymentInput
	if !bind(c, &in) {
		return
	}
	rec, err := h.planner.RegisterPayment(c.Request.Context(), c.Param("recordID"), in.AmountCents, parseDay(in.Date))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"record": rec})
}

func (h *Handler) DeleteProgress(c *gin.Context) {
	if err := h.planner.DeleteProgress(c.Request.Context(), c.Param("recordID")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseDay returns the zero time for empty or unparseable input, which the
// progress rules reject as a missing date.
func parseDay(s string) time.Time {
	t := normalize.ParseDate(s)
	if t == nil {
		return time.Time{}
	}
	return normalize.Day(*t)
}
