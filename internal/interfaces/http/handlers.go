package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/application/service"
	"github.com/garyjia/ehs-tracker/internal/domain/entity"
	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
	"github.com/garyjia/ehs-tracker/internal/infrastructure/identity"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflow       service.WorkflowService
	evidence       service.EvidenceService
	report         service.ReportService
	identity       port.IdentityProvider
	resolver       port.RoleResolver
	maxUploadBytes int64
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, resolver port.RoleResolver, maxUploadBytes int64, logger Logger) *Handlers {
	return &Handlers{
		workflow:       services.Workflow,
		evidence:       services.Evidence,
		report:         services.Report,
		identity:       identity.ContextProvider{},
		resolver:       resolver,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ItemResponse is a workflow item as seen by the requesting user
type ItemResponse struct {
	*entity.WorkflowItem
	StatusLabel      string            `json:"status_label"`
	Badge            workflow.Badge    `json:"badge"`
	Owner            workflow.Owner    `json:"owner"`
	AvailableActions []workflow.Action `json:"available_actions"`
}

// ListItemsRequest represents query parameters for listing items
type ListItemsRequest struct {
	ClientID      string `form:"client_id"`
	Status        string `form:"status"`
	ResponsibleID string `form:"responsible_id"`
	Limit         int    `form:"limit"`
	Offset        int    `form:"offset"`
}

// CreateItemRequest is the body of POST /api/v1/items
type CreateItemRequest struct {
	ClientID      string `json:"client_id"`
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	ResponsibleID string `json:"responsible_id" binding:"required"`
}

// SubmitResponseRequest is the body of POST /api/v1/items/:id/response
type SubmitResponseRequest struct {
	Outcome        string   `json:"outcome" binding:"required"`
	Notes          *string  `json:"notes"`
	EvidencePhotos []string `json:"evidence_photos"`
}

// SubmitDecisionRequest is the body of POST /api/v1/items/:id/decision
type SubmitDecisionRequest struct {
	Approve *bool   `json:"approve" binding:"required"`
	Notes   *string `json:"notes"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Me handles GET /api/v1/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

// ListItems handles GET /api/v1/items
func (h *Handlers) ListItems(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req ListItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}

	if req.Limit <= 0 || req.Limit > maxPageSize {
		req.Limit = defaultPageSize
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	clientID, ok := h.clientFor(c, user, req.ClientID)
	if !ok {
		return
	}

	items, err := h.workflow.List(c.Request.Context(), port.ListFilter{
		ClientID:      clientID,
		ResponsibleID: req.ResponsibleID,
		Status:        workflow.Status(req.Status),
		Limit:         req.Limit,
		Offset:        req.Offset,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	data := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		data = append(data, toItemResponse(item, user.ID))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// CreateItem handles POST /api/v1/items
func (h *Handlers) CreateItem(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}
	clientID, ok := h.clientFor(c, user, req.ClientID)
	if !ok {
		return
	}

	item, err := h.workflow.Create(c.Request.Context(), service.CreateItemRequest{
		ClientID:      clientID,
		Title:         req.Title,
		Description:   req.Description,
		ResponsibleID: req.ResponsibleID,
		CreatedBy:     user.ID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: toItemResponse(item, user.ID)})
}

// GetItem handles GET /api/v1/items/:id
func (h *Handlers) GetItem(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	item, err := h.workflow.Get(scoped(c, user), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toItemResponse(item, user.ID)})
}

// GetHistory handles GET /api/v1/items/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	records, err := h.workflow.History(scoped(c, user), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// SubmitResponse handles POST /api/v1/items/:id/response
func (h *Handlers) SubmitResponse(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	item, err := h.workflow.SubmitResponse(
		scoped(c, user),
		c.Param("id"),
		workflow.Outcome(req.Outcome),
		req.Notes,
		req.EvidencePhotos,
		user.ID,
	)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toItemResponse(item, user.ID)})
}

// SubmitDecision handles POST /api/v1/items/:id/decision
func (h *Handlers) SubmitDecision(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req SubmitDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	item, err := h.workflow.SubmitDecision(scoped(c, user), c.Param("id"), *req.Approve, req.Notes, user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toItemResponse(item, user.ID)})
}

// UploadEvidence handles POST /api/v1/evidence (multipart field "file")
func (h *Handlers) UploadEvidence(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "missing file field"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unreadable upload"})
		return
	}
	defer f.Close()

	var reader io.Reader = f
	if h.maxUploadBytes > 0 {
		// one byte past the limit so the service can reject it
		reader = io.LimitReader(f, h.maxUploadBytes+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		h.logger.Error("Failed to read upload", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unreadable upload"})
		return
	}

	upload, err := h.evidence.Upload(c.Request.Context(), user.ID, fileHeader.Filename, content)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: upload})
}

// GetEvidence handles GET /api/v1/evidence/*ref
func (h *Handlers) GetEvidence(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	ref := strings.TrimPrefix(c.Param("ref"), "/")
	if !h.canReadEvidence(c, user, ref) {
		h.writeError(c, fmt.Errorf("%w: evidence %s", workflow.ErrNotFound, ref))
		return
	}

	blob, err := h.evidence.Fetch(c.Request.Context(), ref)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.DataFromReader(http.StatusOK, int64(len(blob.Content)), blob.MimeType, bytes.NewReader(blob.Content), nil)
}

// ReportSummary handles GET /api/v1/reports/summary
func (h *Handlers) ReportSummary(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	clientID, ok := h.clientFor(c, user, c.Query("client_id"))
	if !ok {
		return
	}

	summary, err := h.report.Summary(c.Request.Context(), clientID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// ExportReport handles GET /api/v1/reports/workflow.xlsx
func (h *Handlers) ExportReport(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	clientID, ok := h.clientFor(c, user, c.Query("client_id"))
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.report.ExportXLSX(c.Request.Context(), clientID, &buf); err != nil {
		h.writeError(c, err)
		return
	}

	filename := fmt.Sprintf("workflow-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.DataFromReader(http.StatusOK, int64(buf.Len()), xlsxContentType, &buf, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
	})
}

func (h *Handlers) currentUser(c *gin.Context) (entity.Identity, bool) {
	user, err := h.identity.CurrentUser(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Success: false, Error: "authentication required"})
		return entity.Identity{}, false
	}
	return user, true
}

// clientFor returns the client a listing, report or create acts on. Users
// without a client and requests naming another client are refused.
func (h *Handlers) clientFor(c *gin.Context, user entity.Identity, requested string) (string, bool) {
	if user.ClientID == "" || (requested != "" && requested != user.ClientID) {
		h.logger.Info("Client access denied", "user_id", user.ID, "client_id", requested)
		c.AbortWithStatusJSON(http.StatusForbidden, Response{Success: false, Error: "client access denied"})
		return "", false
	}
	return user.ClientID, true
}

// scoped hides items of other clients from the workflow service
func scoped(c *gin.Context, user entity.Identity) context.Context {
	return service.WithClientScope(c.Request.Context(), user.ClientID)
}

// canReadEvidence allows the uploader and users of the uploader's client.
// Refs are "<ownerID>/<name>".
func (h *Handlers) canReadEvidence(c *gin.Context, user entity.Identity, ref string) bool {
	ownerID, _, found := strings.Cut(ref, "/")
	if !found || ownerID == "" {
		return false
	}
	if ownerID == user.ID {
		return true
	}
	if user.ClientID == "" || h.resolver == nil {
		return false
	}
	owner, err := h.resolver.Resolve(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("Failed to resolve evidence owner", "owner_id", ownerID, "error", err)
		return false
	}
	return owner.ClientID == user.ClientID
}

func toItemResponse(item *entity.WorkflowItem, viewerID string) ItemResponse {
	return ItemResponse{
		WorkflowItem:     item,
		StatusLabel:      item.Status.Label(),
		Badge:            item.Status.Badge(),
		Owner:            item.Status.Owner(),
		AvailableActions: workflow.AvailableActions(item, viewerID).List(),
	}
}
