package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ErlanBelekov/departments-api/internal/domain"
	"github.com/ErlanBelekov/departments-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

type departmentUsecaser interface {
	CreateDepartment(ctx context.Context, input usecase.CreateDepartmentInput) (*domain.Department, error)
	ListDepartments(ctx context.Context, page, limit int) (*usecase.ListDepartmentsResult, error)
	GetDepartment(ctx context.Context, id int64) (*domain.Department, error)
	RenameDepartment(ctx context.Context, id int64, name string) (*domain.Department, error)
	DeleteDepartment(ctx context.Context, id int64) error
	CreateSubDepartment(ctx context.Context, departmentID int64, name string) (*domain.SubDepartment, error)
	ListSubDepartments(ctx context.Context, departmentID int64) ([]*domain.SubDepartment, error)
	GetSubDepartment(ctx context.Context, id int64) (*domain.SubDepartment, error)
	RenameSubDepartment(ctx context.Context, id int64, name string) (*domain.SubDepartment, error)
	DeleteSubDepartment(ctx context.Context, id int64) error
}

type DepartmentHandler struct {
	departmentUsecase departmentUsecaser
	logger            *slog.Logger
}

func NewDepartmentHandler(departmentUsecase departmentUsecaser, logger *slog.Logger) *DepartmentHandler {
	return &DepartmentHandler{
		departmentUsecase: departmentUsecase,
		logger:            logger.With("component", "department_handler"),
	}
}

type subDepartmentRequest struct {
	Name string `json:"name" binding:"required,min=2"`
}

type createDepartmentRequest struct {
	Name           string                 `json:"name" binding:"required,min=2"`
	SubDepartments []subDepartmentRequest `json:"sub_departments" binding:"omitempty,dive"`
}

type renameRequest struct {
	Name string `json:"name" binding:"required,min=2"`
}

type subDepartmentResponse struct {
	ID           int64     `json:"id"`
	DepartmentID int64     `json:"department_id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type departmentResponse struct {
	ID             int64                   `json:"id"`
	Name           string                  `json:"name"`
	SubDepartments []subDepartmentResponse `json:"sub_departments"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

type listDepartmentsResponse struct {
	Departments []departmentResponse `json:"departments"`
	Total       int                  `json:"total"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
}

type deletedResponse struct {
	Deleted bool `json:"deleted"`
}

func toSubDepartmentResponse(s *domain.SubDepartment) subDepartmentResponse {
	return subDepartmentResponse{
		ID:           s.ID,
		DepartmentID: s.DepartmentID,
		Name:         s.Name,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func toSubDepartmentResponses(subs []*domain.SubDepartment) []subDepartmentResponse {
	out := make([]subDepartmentResponse, len(subs))
	for i, s := range subs {
		out[i] = toSubDepartmentResponse(s)
	}
	return out
}

func toDepartmentResponse(d *domain.Department) departmentResponse {
	return departmentResponse{
		ID:             d.ID,
		Name:           d.Name,
		SubDepartments: toSubDepartmentResponses(d.SubDepartments),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// POST /departments
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req createDepartmentRequest
	if !bindJSON(c, &req) {
		return
	}

	subNames := make([]string, len(req.SubDepartments))
	for i, s := range req.SubDepartments {
		subNames[i] = s.Name
	}

	d, err := h.departmentUsecase.CreateDepartment(c.Request.Context(), usecase.CreateDepartmentInput{
		Name:           req.Name,
		SubDepartments: subNames,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toDepartmentResponse(d))
}

// GET /departments?page=&limit=
// Unparseable values fall back to the defaults.
func (h *DepartmentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	res, err := h.departmentUsecase.ListDepartments(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]departmentResponse, len(res.Departments))
	for i, d := range res.Departments {
		items[i] = toDepartmentResponse(d)
	}
	c.JSON(http.StatusOK, listDepartmentsResponse{
		Departments: items,
		Total:       res.Total,
		Page:        res.Page,
		Limit:       res.Limit,
	})
}

// GET /departments/:id
func (h *DepartmentHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	d, err := h.departmentUsecase.GetDepartment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDepartmentResponse(d))
}

// PUT /departments/:id
func (h *DepartmentHandler) Rename(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req renameRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.departmentUsecase.RenameDepartment(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDepartmentResponse(d))
}

// DELETE /departments/:id
func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.departmentUsecase.DeleteDepartment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, deletedResponse{Deleted: true})
}

// POST /departments/:id/sub-departments
func (h *DepartmentHandler) CreateSubDepartment(c *gin.Context) {
	departmentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req subDepartmentRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.departmentUsecase.CreateSubDepartment(c.Request.Context(), departmentID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSubDepartmentResponse(s))
}

// GET /departments/:id/sub-departments
func (h *DepartmentHandler) ListSubDepartments(c *gin.Context) {
	departmentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	subs, err := h.departmentUsecase.ListSubDepartments(c.Request.Context(), departmentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSubDepartmentResponses(subs))
}

// GET /sub-departments/:id
func (h *DepartmentHandler) GetSubDepartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	s, err := h.departmentUsecase.GetSubDepartment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSubDepartmentResponse(s))
}

// PUT /sub-departments/:id
func (h *DepartmentHandler) RenameSubDepartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req renameRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.departmentUsecase.RenameSubDepartment(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSubDepartmentResponse(s))
}

// DELETE /sub-departments/:id
func (h *DepartmentHandler) DeleteSubDepartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.departmentUsecase.DeleteSubDepartment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, deletedResponse{Deleted: true})
}
