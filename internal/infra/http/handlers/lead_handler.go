package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/homni-leads/internal/entity"
	"github.com/xavierca1/homni-leads/internal/usecase"
)

const maxBodyBytes = 1 << 20

type LeadHandler struct {
	CreateUC       *usecase.CreateLeadUseCase
	UpdateStatusUC *usecase.UpdateLeadStatusUseCase
	GetUC          *usecase.GetLeadUseCase
	ListUC         *usecase.ListLeadsUseCase
	PipelineUC     *usecase.PipelineSummaryUseCase
}

func NewLeadHandler(
	createUC *usecase.CreateLeadUseCase,
	updateStatusUC *usecase.UpdateLeadStatusUseCase,
	getUC *usecase.GetLeadUseCase,
	listUC *usecase.ListLeadsUseCase,
	pipelineUC *usecase.PipelineSummaryUseCase,
) *LeadHandler {
	return &LeadHandler{
		CreateUC:       createUC,
		UpdateStatusUC: updateStatusUC,
		GetUC:          getUC,
		ListUC:         listUC,
		PipelineUC:     pipelineUC,
	}
}

// Routes mounts the lead endpoints. createLimit wraps POST /leads only.
func (h *LeadHandler) Routes(createLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	if createLimit != nil {
		r.With(createLimit).Post("/", h.Create)
	} else {
		r.Post("/", h.Create)
	}
	r.Get("/", h.List)
	r.Get("/pipeline", h.Pipeline)
	r.Get("/statuses", h.Statuses)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	return r
}

type UpdateStatusRequest struct {
	Status    string `json:"status"`
	ChangedBy string `json:"changed_by"`
}

type TransitionsResponse struct {
	Statuses    []entity.LeadStatus                        `json:"statuses"`
	Stages      []entity.PipelineStage                     `json:"stages"`
	Transitions map[entity.LeadStatus][]entity.LeadStatus  `json:"transitions"`
	StageOf     map[entity.LeadStatus]entity.PipelineStage `json:"stage_of"`
}

// Create handles POST /leads.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateLeadInput
	if !decodeBody(w, r, &input) {
		return
	}

	output, err := h.CreateUC.Execute(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, output)
}

// List handles GET /leads?status=a,b&stage=&company_id=&limit=&offset=.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, ok := intParam(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := intParam(w, r, "offset")
	if !ok {
		return
	}

	output, err := h.ListUC.Execute(r.Context(), usecase.ListLeadsInput{
		Status:    q.Get("status"),
		Stage:     q.Get("stage"),
		CompanyID: q.Get("company_id"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// Get handles GET /leads/{id}.
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	output, err := h.GetUC.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// UpdateStatus handles PATCH /leads/{id}/status.
func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	output, err := h.UpdateStatusUC.Execute(r.Context(), usecase.UpdateLeadStatusInput{
		LeadID:    chi.URLParam(r, "id"),
		Status:    req.Status,
		ChangedBy: req.ChangedBy,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// Pipeline handles GET /leads/pipeline.
func (h *LeadHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	output, err := h.PipelineUC.Execute(r.Context(), r.URL.Query().Get("company_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// Statuses handles GET /leads/statuses so clients can render only valid moves.
func (h *LeadHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	stageOf := make(map[entity.LeadStatus]entity.PipelineStage, len(entity.AllLeadStatuses))
	for _, s := range entity.AllLeadStatuses {
		stageOf[s] = entity.PipelineStageFor(s)
	}

	writeJSON(w, http.StatusOK, TransitionsResponse{
		Statuses:    entity.AllLeadStatuses,
		Stages:      entity.AllPipelineStages,
		Transitions: entity.AllowedStatusTransitions,
		StageOf:     stageOf,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   usecase.CodeValidation,
			Message: "Invalid JSON body",
		})
		return false
	}
	return true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   usecase.CodeValidation,
			Message: name + " must be an integer",
		})
		return 0, false
	}
	return n, true
}
