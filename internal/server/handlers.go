package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/xxkhanxx77/aura-poc-llm/internal/auth"
	"github.com/xxkhanxx77/aura-poc-llm/internal/extract"
	"github.com/xxkhanxx77/aura-poc-llm/internal/llm"
	"github.com/xxkhanxx77/aura-poc-llm/internal/quota"
	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
	"github.com/xxkhanxx77/aura-poc-llm/internal/scoring"
	"github.com/xxkhanxx77/aura-poc-llm/internal/service"
)

// maxUploadBytes caps resume file uploads.
const maxUploadBytes = 10 << 20

// Handlers mounts the JSON API onto a router.
type Handlers struct {
	Tenants   *service.TenantService
	Jobs      *service.JobService
	Resumes   *service.ResumeService
	Screening *service.ScreeningService
	Auth      *auth.Authenticator
	Logger    *slog.Logger
}

// Mount registers all API routes. Tenant management requires the admin key;
// everything else requires tenant credentials.
func (h *Handlers) Mount(router *chi.Mux) {
	if h.Logger == nil {
		h.Logger = slog.Default()
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAdmin)
			r.Post("/tenants", h.createTenant)
			r.Put("/tenants/{tenantID}/budget", h.updateBudget)
			r.Post("/tenants/{tenantID}/api-key", h.regenerateAPIKey)
		})

		r.Post("/auth/token", h.issueToken)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Middleware)

			r.Post("/jobs", h.createJob)
			r.Get("/jobs", h.listJobs)
			r.Get("/jobs/{jobID}", h.getJob)
			r.Patch("/jobs/{jobID}", h.updateJob)

			r.Post("/resumes", h.createResume)
			r.Post("/resumes/upload-pdf", h.uploadResume)
			r.Get("/resumes", h.listResumes)
			r.Get("/resumes/{resumeID}", h.getResume)
			r.Delete("/resumes/{resumeID}", h.deleteResume)

			r.Post("/screen", h.screen)
			r.Get("/results/{jobID}", h.results)
			r.Post("/results/{resultID}/feedback", h.submitFeedback)
			r.Get("/results/{resultID}/feedback", h.listFeedback)

			r.Get("/usage", h.usage)
		})
	})
}

type createTenantRequest struct {
	Name      string `json:"name"`
	Plan      string `json:"plan,omitempty"`
	LLMBudget int64  `json:"llm_budget,omitempty"`
}

func (h *Handlers) createTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	tenant, err := h.Tenants.Create(r.Context(), req.Name, req.Plan, req.LLMBudget)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

type updateBudgetRequest struct {
	LLMBudget int64 `json:"llm_budget"`
}

func (h *Handlers) updateBudget(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.Tenants.UpdateBudget(r.Context(), tenantID, req.LLMBudget); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenant_id": tenantID, "llm_budget": req.LLMBudget})
}

func (h *Handlers) regenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	key, err := h.Tenants.RegenerateAPIKey(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"api_key": key})
}

type issueTokenRequest struct {
	APIKey string `json:"api_key"`
}

func (h *Handlers) issueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.Auth.IssueToken(r.Context(), req.APIKey)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type createJobRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements,omitempty"`
}

func (h *Handlers) createJob(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())

	var req createJobRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	job, err := h.Jobs.Create(r.Context(), tenant.ID, req.Title, req.Description, req.Requirements)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (h *Handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())

	jobs, err := h.Jobs.List(r.Context(), tenant.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (h *Handlers) getJob(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())
	jobID, err := pathID(r, "jobID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	job, err := h.Jobs.Get(r.Context(), tenant.ID, jobID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type updateJobRequest struct {
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Status       string   `json:"status,omitempty"`
}

func (h *Handlers) updateJob(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())
	jobID, err := pathID(r, "jobID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateJobRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	job, err := h.Jobs.Update(r.Context(), tenant.ID, jobID, service.UpdateJobParams{
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Status:       req.Status,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type createResumeRequest struct {
	CandidateName string `json:"candidate_name"`
	Email         string `json:"email,omitempty"`
	RawText       string `json:"raw_text"`
}

func (h *Handlers) createResume(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())

	var req createResumeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resume, err := h.Resumes.Create(r.Context(), tenant.ID, req.CandidateName, req.Email, req.RawText)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resume)
}

// uploadResume accepts a multipart form with a "file" part plus
// candidate_name and email fields. An optional job_id field screens the new
// resume against that job in the same request.
func (h *Handlers) uploadResume(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: invalid multipart form: %v", service.ErrInvalidInput, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: file part is required", service.ErrInvalidInput))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	resume, err := h.Resumes.Upload(r.Context(), tenant.ID,
		r.FormValue("candidate_name"), r.FormValue("email"), header.Filename, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response := map[string]any{"resume": resume}
	if jobIDValue := r.FormValue("job_id"); jobIDValue != "" {
		jobID, err := uuid.Parse(jobIDValue)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: invalid job_id", service.ErrInvalidInput))
			return
		}
		summary, err := h.Screening.Screen(r.Context(), tenant.ID, jobID, []uuid.UUID{resume.ID})
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		response["screening"] = summary
	}
	writeJSON(w, http.StatusCreated, response)
}

func (h *Handlers) listResumes(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())

	resumes, err := h.Resumes.List(r.Context(), tenant.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resumes": resumes})
}

func (h *Handlers) getResume(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())
	resumeID, err := pathID(r, "resumeID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resume, err := h.Resumes.Get(r.Context(), tenant.ID, resumeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resume)
}

func (h *Handlers) deleteResume(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())
	resumeID, err := pathID(r, "resumeID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.Resumes.Delete(r.Context(), tenant.ID, resumeID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type screenRequest struct {
	JobID     uuid.UUID   `json:"job_id"`
	ResumeIDs []uuid.UUID `json:"resume_ids,omitempty"`
}

func (h *Handlers) screen(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())

	var req screenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.JobID == uuid.Nil {
		h.writeError(w, r, fmt.Errorf("%w: job_id is required", service.ErrInvalidInput))
		return
	}

	summary, err := h.Screening.Screen(r.Context(), tenant.ID, req.JobID, req.ResumeIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handlers) results(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())
	jobID, err := pathID(r, "jobID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	summary, err := h.Screening.Results(r.Context(), tenant.ID, jobID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type feedbackRequest struct {
	Rating int    `json:"rating"`
	Notes  string `json:"notes,omitempty"`
}

func (h *Handlers) submitFeedback(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())
	resultID, err := pathID(r, "resultID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	feedback, err := h.Screening.SubmitFeedback(r.Context(), tenant.ID, resultID, req.Rating, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedback)
}

func (h *Handlers) listFeedback(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())
	resultID, err := pathID(r, "resultID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.Screening.FeedbackForResult(r.Context(), tenant.ID, resultID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": items})
}

func (h *Handlers) usage(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustTenantFromContext(r.Context())

	report, err := h.Tenants.Usage(r.Context(), tenant.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// writeError maps a service error onto an HTTP status and logs it.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.Logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor translates the engine's error taxonomy into HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, quota.ErrExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, scoring.ErrInvalidResponse):
		return http.StatusBadGateway
	case errors.Is(err, llm.ErrUnavailable), errors.Is(err, service.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, extract.ErrUnsupportedFormat),
		errors.Is(err, extract.ErrCorrupt),
		errors.Is(err, extract.ErrNoText):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func pathID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", service.ErrInvalidInput, param)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
