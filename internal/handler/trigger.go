package handler

import (
	"errors"
	"net/http"

	"retailpos-backend/internal/config"
	"retailpos-backend/internal/domain"
	"retailpos-backend/internal/job"
	"retailpos-backend/internal/server/triggerauth"

	"github.com/go-chi/chi/v5"
)

// TriggerHandler exposes every automation job on one GET+POST endpoint pair.
// Query parameters and the JSON body carry identical semantics; the response
// body is always the JobRunResult, 200 even when some entities failed.
type TriggerHandler struct {
	Auth     triggerauth.Auth
	Defaults config.JobDefaults

	ClockOut   job.ClockOutJob
	NoShow     job.NoShowJob
	Reminders  job.ReminderJob
	Carts      job.AbandonedCartJob
	Pricing    job.PricingJob
	Replenish  job.ReplenishJob
	Sync       job.SyncJob
	Suspicious job.SuspiciousJob
}

func (h TriggerHandler) RegisterRoutes(r chi.Router) {
	for path, fn := range map[string]http.HandlerFunc{
		"/jobs/auto-clockout":       h.autoClockOut,
		"/jobs/no-show":             h.noShow,
		"/jobs/booking-reminders":   h.bookingReminders,
		"/jobs/abandoned-cart":      h.abandonedCart,
		"/jobs/dynamic-pricing":     h.dynamicPricing,
		"/jobs/replenishment":       h.replenishment,
		"/jobs/branch-sync":         h.branchSync,
		"/jobs/suspicious-activity": h.suspiciousActivity,
	} {
		r.Get(path, fn)
		r.Post(path, fn)
	}
}

// begin authenticates and parses the shared parameters. A nil triggerParams
// return means the response was already written.
func (h TriggerHandler) begin(w http.ResponseWriter, r *http.Request) (triggerParams, *int64, bool) {
	params, err := parseTriggerParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	if !h.Auth.Authenticate(r, params.secret()) {
		writeError(w, http.StatusUnauthorized, "trigger not authorized")
		return nil, nil, false
	}
	tenantID, err := params.tenantID()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	return params, tenantID, true
}

func (h TriggerHandler) writeResult(w http.ResponseWriter, res domain.JobRunResult, err error) {
	if err != nil {
		switch {
		case errors.Is(err, job.ErrBadParams), errors.Is(err, job.ErrUnknownTenant):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeRawJSON(w, http.StatusOK, res)
}

func (h TriggerHandler) autoClockOut(w http.ResponseWriter, r *http.Request) {
	params, tenantID, ok := h.begin(w, r)
	if !ok {
		return
	}
	grace, err := params.intVal("gracePeriodHours", h.Defaults.ClockOutGraceHours)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	closeDrawers, err := params.boolVal("closeDrawers", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, runErr := h.ClockOut.Run(r.Context(), job.ClockOutParams{
		TenantID:     tenantID,
		GraceHours:   grace,
		CloseDrawers: closeDrawers,
	})
	h.writeResult(w, res, runErr)
}

func (h TriggerHandler) noShow(w http.ResponseWriter, r *http.Request) {
	params, tenantID, ok := h.begin(w, r)
	if !ok {
		return
	}
	grace, err := params.intVal("gracePeriodMinutes", h.Defaults.NoShowGraceMinutes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, runErr := h.NoShow.Run(r.Context(), job.NoShowParams{
		TenantID:     tenantID,
		GraceMinutes: grace,
	})
	h.writeResult(w, res, runErr)
}

func (h TriggerHandler) bookingReminders(w http.ResponseWriter, r *http.Request) {
	params, tenantID, ok := h.begin(w, r)
	if !ok {
		return
	}
	hours, err := params.intVal("hoursBefore", h.Defaults.ReminderHoursBefore)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, runErr := h.Reminders.Run(r.Context(), job.ReminderParams{
		TenantID:    tenantID,
		HoursBefore: hours,
	})
	h.writeResult(w, res, runErr)
}

func (h TriggerHandler) abandonedCart(w http.ResponseWriter, r *http.Request) {
	params, tenantID, ok := h.begin(w, r)
	if !ok {
		return
	}
	hours, err := params.intVal("hoursAgo", h.Defaults.CartHoursAgo)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, runErr := h.Carts.Run(r.Context(), job.AbandonedCartParams{
		TenantID: tenantID,
		HoursAgo: hours,
	})
	h.writeResult(w, res, runErr)
}

func (h TriggerHandler) dynamicPricing(w http.ResponseWriter, r *http.Request) {
	params, tenantID, ok := h.begin(w, r)
	if !ok {
		return
	}
	p := job.PricingParams{TenantID: tenantID}
	var err error
	if p.EnableTimeBased, err = params.boolVal("enableTimeBased", false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.EnableDemandBased, err = params.boolVal("enableDemandBased", false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.EnableStockBased, err = params.boolVal("enableStockBased", false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.MinMultiplier, err = params.floatVal("minMultiplier", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.MaxMultiplier, err = params.floatVal("maxMultiplier", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ApplyDefaults(h.Defaults.PriceMinMultiplier, h.Defaults.PriceMaxMultiplier)
	res, runErr := h.Pricing.Run(r.Context(), p)
	h.writeResult(w, res, runErr)
}

func (h TriggerHandler) replenishment(w http.ResponseWriter, r *http.Request) {
	params, tenantID, ok := h.begin(w, r)
	if !ok {
		return
	}
	analysis, err := params.intVal("analysisDays", h.Defaults.AnalysisDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prediction, err := params.intVal("predictionDays", h.Defaults.PredictionDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	autoCreate, err := params.boolVal("autoCreate", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, runErr := h.Replenish.Run(r.Context(), job.ReplenishParams{
		TenantID:       tenantID,
		AnalysisDays:   analysis,
		PredictionDays: prediction,
		AutoCreate:     autoCreate,
	})
	h.writeResult(w, res, runErr)
}

func (h TriggerHandler) branchSync(w http.ResponseWriter, r *http.Request) {
	params, tenantID, ok := h.begin(w, r)
	if !ok {
		return
	}
	res, runErr := h.Sync.Run(r.Context(), job.SyncParams{
		TenantID: tenantID,
		Policy:   domain.ConflictPolicy(params.str("conflictPolicy")),
	})
	h.writeResult(w, res, runErr)
}

func (h TriggerHandler) suspiciousActivity(w http.ResponseWriter, r *http.Request) {
	params, tenantID, ok := h.begin(w, r)
	if !ok {
		return
	}
	p := job.SuspiciousParams{TenantID: tenantID}
	var err error
	if p.WindowHours, err = params.intVal("windowHours", h.Defaults.SuspiciousWindowHrs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.RefundThreshold, err = params.intVal("refundThreshold", h.Defaults.RefundThreshold); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.VoidThreshold, err = params.intVal("voidThreshold", h.Defaults.VoidThreshold); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.DiscountThreshold, err = params.intVal("discountThreshold", h.Defaults.DiscountThreshold); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.FailedLoginThreshold, err = params.intVal("failedLoginThreshold", h.Defaults.FailedLoginThreshold); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, runErr := h.Suspicious.Run(r.Context(), p)
	h.writeResult(w, res, runErr)
}
