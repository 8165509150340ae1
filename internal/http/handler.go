package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/http/middleware"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/pricing"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/service"
)

type FreightActions interface {
	Actions(ctx context.Context, principal model.Principal, freightID uuid.UUID) (*service.ActionsView, error)
	Perform(ctx context.Context, input service.PerformInput) (*service.PerformResult, error)
	Statement(ctx context.Context, principal model.Principal, freightID uuid.UUID) (*service.DocumentResult, error)
}

type ServiceRequestActions interface {
	Actions(ctx context.Context, principal model.Principal, serviceID uuid.UUID) (*service.ActionsView, error)
	Perform(ctx context.Context, input service.ServicePerformInput) (*service.ServicePerformResult, error)
}

type OpsReports interface {
	ConsistencyReport(ctx context.Context, principal model.Principal) (*model.ConsistencyReport, error)
	ConsistencyWorkbook(ctx context.Context, principal model.Principal) (*service.DocumentResult, error)
}

type Handler struct {
	freights FreightActions
	services ServiceRequestActions
	ops      OpsReports
	prices   *pricing.Guard
	loc      *i18n.Guard
	log      zerolog.Logger
}

func NewHandler(
	freights FreightActions,
	services ServiceRequestActions,
	ops OpsReports,
	prices *pricing.Guard,
	loc *i18n.Guard,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		freights: freights,
		services: services,
		ops:      ops,
		prices:   prices,
		loc:      loc,
		log:      log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware, optionalAuth gin.HandlerFunc) {
	router.GET("/labels/statuses", h.statusLabels)
	router.POST("/labels/sanitize", h.sanitize)

	public := router.Group("/")
	public.Use(optionalAuth)
	public.GET("/service-requests/:id/actions", h.serviceActions)
	public.POST("/service-requests/:id/actions/:action", h.performServiceAction)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/freights/:id/actions", h.freightActions)
	protected.POST("/freights/:id/actions/:action", h.performFreightAction)
	protected.GET("/freights/:id/statement.pdf", h.freightStatement)
	protected.POST("/pricing/present", h.presentPrice)
	protected.GET("/ops/consistency", h.consistency)
	protected.GET("/ops/consistency.xlsx", h.consistencyWorkbook)
}

type performRequest struct {
	AssignmentID string `json:"assignment_id"`
	Score        int    `json:"score"`
	Comment      string `json:"comment"`
}

type presentPriceRequest struct {
	TotalPrice      decimal.Decimal  `json:"total_price"`
	RequiredUnits   int              `json:"required_units"`
	AgreedUnitPrice *decimal.Decimal `json:"agreed_unit_price"`
}

type sanitizeRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) freightActions(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	freightID, ok := h.pathID(c)
	if !ok {
		return
	}

	view, err := h.freights.Actions(c.Request.Context(), principal, freightID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) performFreightAction(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	freightID, ok := h.pathID(c)
	if !ok {
		return
	}
	req, ok := h.bindPerform(c)
	if !ok {
		return
	}

	input := service.PerformInput{
		Principal: principal,
		FreightID: freightID,
		Action:    c.Param("action"),
		Score:     req.Score,
		Comment:   req.Comment,
	}
	if raw := strings.TrimSpace(req.AssignmentID); raw != "" {
		assignmentID, err := uuid.Parse(raw)
		if err != nil {
			h.invalid(c, "invalid assignment_id")
			return
		}
		input.AssignmentID = &assignmentID
	}

	result, err := h.freights.Perform(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) freightStatement(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	freightID, ok := h.pathID(c)
	if !ok {
		return
	}

	result, err := h.freights.Statement(c.Request.Context(), principal, freightID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) presentPrice(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req presentPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err.Error())
		return
	}
	if req.TotalPrice.IsNegative() || req.RequiredUnits < 0 {
		h.invalid(c, "prices and units must not be negative")
		return
	}

	presentation := h.prices.PresentPrice(pricing.PresentInput{
		TotalPrice:      req.TotalPrice,
		RequiredUnits:   req.RequiredUnits,
		AgreedUnitPrice: req.AgreedUnitPrice,
		ViewerRole:      principal.Role,
	})
	c.JSON(http.StatusOK, service.NewPriceView(presentation))
}

func (h *Handler) statusLabels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"labels": h.loc.StatusLabels()})
}

func (h *Handler) sanitize(c *gin.Context) {
	var req sanitizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err.Error())
		return
	}
	leaked := h.loc.DetectLeakedCodes(req.Text)
	if leaked == nil {
		leaked = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"text":   h.loc.Sanitize(req.Text),
		"leaked": leaked,
	})
}

func (h *Handler) serviceActions(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	serviceID, ok := h.pathID(c)
	if !ok {
		return
	}

	view, err := h.services.Actions(c.Request.Context(), principal, serviceID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) performServiceAction(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	serviceID, ok := h.pathID(c)
	if !ok {
		return
	}
	req, ok := h.bindPerform(c)
	if !ok {
		return
	}

	result, err := h.services.Perform(c.Request.Context(), service.ServicePerformInput{
		Principal: principal,
		ServiceID: serviceID,
		Action:    c.Param("action"),
		Score:     req.Score,
		Comment:   req.Comment,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) consistency(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	report, err := h.ops.ConsistencyReport(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.consistencyResponse(report))
}

func (h *Handler) consistencyWorkbook(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	result, err := h.ops.ConsistencyWorkbook(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

type codeLabel struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type issueResponse struct {
	Status  codeLabel `json:"status"`
	Role    codeLabel `json:"role"`
	Action  codeLabel `json:"action"`
	InTable bool      `json:"in_table"`
	ByGuard bool      `json:"by_guard"`
}

type statusCountResponse struct {
	Status codeLabel `json:"status"`
	Total  int64     `json:"total"`
}

type staleFreightResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    codeLabel `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type consistencyResponse struct {
	GeneratedAt   time.Time              `json:"generated_at"`
	Consistent    bool                   `json:"consistent"`
	Issues        []issueResponse        `json:"issues"`
	StuckStatuses []codeLabel            `json:"stuck_statuses"`
	StatusCounts  []statusCountResponse  `json:"status_counts"`
	Stale         []staleFreightResponse `json:"stale"`
}

func (h *Handler) consistencyResponse(report *model.ConsistencyReport) consistencyResponse {
	out := consistencyResponse{
		GeneratedAt:   report.GeneratedAt,
		Consistent:    report.Consistent,
		Issues:        make([]issueResponse, 0, len(report.Issues)),
		StuckStatuses: make([]codeLabel, 0, len(report.StuckStatuses)),
		StatusCounts:  make([]statusCountResponse, 0, len(report.StatusCounts)),
		Stale:         make([]staleFreightResponse, 0, len(report.Stale)),
	}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, issueResponse{
			Status:  h.status(issue.Status),
			Role:    codeLabel{Code: string(issue.Role), Label: h.loc.LabelForRole(string(issue.Role))},
			Action:  codeLabel{Code: string(issue.Action), Label: h.loc.LabelForAction(string(issue.Action))},
			InTable: issue.InTable,
			ByGuard: issue.ByGuard,
		})
	}
	for _, status := range report.StuckStatuses {
		out.StuckStatuses = append(out.StuckStatuses, h.status(status))
	}
	for _, count := range report.StatusCounts {
		out.StatusCounts = append(out.StatusCounts, statusCountResponse{Status: h.status(count.Status), Total: count.Total})
	}
	for _, stale := range report.Stale {
		out.Stale = append(out.Stale, staleFreightResponse{ID: stale.ID, Status: h.status(stale.Status), UpdatedAt: stale.UpdatedAt})
	}
	return out
}

func (h *Handler) status(s model.FreightStatus) codeLabel {
	return codeLabel{Code: string(s), Label: h.loc.LabelForStatus(string(s))}
}

func (h *Handler) principal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Autenticação necessária."})
		return model.Principal{}, false
	}
	return principal, true
}

func (h *Handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.invalid(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// bindPerform accepts an empty body; most actions carry no payload.
func (h *Handler) bindPerform(c *gin.Context) (performRequest, bool) {
	var req performRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.invalid(c, err.Error())
		return req, false
	}
	return req, true
}

// invalid answers 400 with the localized message only; the detail is for
// operators and stays in the log.
func (h *Handler) invalid(c *gin.Context, detail string) {
	h.log.Info().Str("path", c.FullPath()).Str("detail", detail).Msg("invalid request")
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "INVALID_INPUT",
		"message": h.loc.Message(i18n.MsgInvalidInput),
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var gerr *guard.Error
	switch {
	case errors.Is(err, service.ErrActionRejected) && errors.As(err, &gerr):
		body := gin.H{"code": string(gerr.Code), "message": h.loc.Sanitize(gerr.Message)}
		if gerr.ExpectedNext != "" {
			body["expected_next"] = gerr.ExpectedNext
		}
		if errors.Is(gerr, guard.ErrConsistency) {
			body["safe_mode"] = true
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"code": "FORBIDDEN", "message": h.loc.Message(i18n.MsgForbidden)})
	case errors.Is(err, service.ErrInvalidInput):
		h.invalid(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": h.loc.Message(i18n.MsgNotFound)})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"code": "CONFLICT", "message": h.loc.Message(i18n.MsgConflict)})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "message": h.loc.Message(i18n.MsgInternal)})
	}
}
