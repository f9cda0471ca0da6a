package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brokerage_backend/internal/marketing/service"
	"brokerage_backend/internal/marketing/transport"
	"brokerage_backend/platform/httpkit"
	"brokerage_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the marketing API. sendLimit guards the endpoints that
// reach the messaging provider; it may be nil.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, sendLimit gin.HandlerFunc) {
	send := []gin.HandlerFunc{}
	if sendLimit != nil {
		send = append(send, sendLimit)
	}

	rg.GET("/leads", h.ListLeads)
	rg.POST("/leads", h.CreateLead)
	rg.GET("/leads/:id", h.GetLead)
	rg.PATCH("/leads/:id/opt-out", h.SetOptOut)
	rg.GET("/leads/:id/logs", h.ListLogs)

	rg.GET("/dnc", h.ListDoNotCall)
	rg.POST("/dnc", h.AddDoNotCall)
	rg.GET("/dnc/check", h.CheckDoNotCall)
	rg.DELETE("/dnc/:id", h.RemoveDoNotCall)

	rg.GET("/templates", h.ListTemplates)
	rg.POST("/preview", h.Preview)

	rg.POST("/whatsapp/send", append(send, h.SendMessage)...)
	rg.POST("/batches", append(send, h.CreateBatch)...)
	rg.GET("/batches", h.ListBatches)
	rg.GET("/batches/:id", h.GetBatch)
	rg.POST("/batches/:id/cancel", h.CancelBatch)
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) CreateLead(c *gin.Context) {
	var req transport.CreateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.CreateLead(c.Request.Context(), identity.OrganizationID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) ListLeads(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListLeads(c.Request.Context(), identity.OrganizationID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GetLead(c.Request.Context(), identity.OrganizationID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SetOptOut(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transport.SetOptOutRequest
	if !h.bindJSON(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.SetOptOut(c.Request.Context(), identity.OrganizationID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListLogs(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListLogs(c.Request.Context(), identity.OrganizationID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) AddDoNotCall(c *gin.Context) {
	var req transport.AddDoNotCallRequest
	if !h.bindJSON(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.AddDoNotCall(c.Request.Context(), identity.OrganizationID(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) ListDoNotCall(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.ListDoNotCall(c.Request.Context(), identity.OrganizationID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

func (h *Handler) CheckDoNotCall(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.CheckDoNotCall(c.Request.Context(), identity.OrganizationID(), c.Query("phone"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) RemoveDoNotCall(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	if httpkit.HandleError(c, h.svc.RemoveDoNotCall(c.Request.Context(), identity.OrganizationID(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListTemplates(c *gin.Context) {
	httpkit.OK(c, gin.H{"items": h.svc.ListTemplates()})
}

func (h *Handler) Preview(c *gin.Context) {
	var req transport.PreviewRequest
	if !h.bindJSON(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Preview(c.Request.Context(), identity.OrganizationID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req transport.SendMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.SendMessage(c.Request.Context(), identity.OrganizationID(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) CreateBatch(c *gin.Context) {
	var req transport.CreateBatchRequest
	if !h.bindJSON(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.CreateBatch(c.Request.Context(), identity.OrganizationID(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, result)
}

func (h *Handler) ListBatches(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.svc.ListBatches(c.Request.Context(), identity.OrganizationID(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetBatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GetBatch(c.Request.Context(), identity.OrganizationID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) CancelBatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.CancelBatch(c.Request.Context(), identity.OrganizationID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, result)
}
