package handlers

import (
	"net/http"

	"github.com/campusrate/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// AuditHandler handles admin HTTP requests for the audit log
type AuditHandler struct {
	auditRepository repositories.AuditRepository
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditRepo repositories.AuditRepository) *AuditHandler {
	return &AuditHandler{auditRepository: auditRepo}
}

// RegisterAuditRoutes registers audit routes. The group is expected to be
// behind the admin middleware.
func (h *AuditHandler) RegisterAuditRoutes(g *echo.Group) {
	g.GET("/audit", h.ListAuditRecords)
	g.GET("/audit/:collection", h.ListAuditRecordsByCollection)
	g.DELETE("/audit/records/:id", h.DeleteAuditRecord)
}

// ListAuditRecords returns every audit record, newest first
func (h *AuditHandler) ListAuditRecords(c echo.Context) error {
	records, err := h.auditRepository.ListRecords(c.Request().Context(), "")
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"auditTrails": records,
		"count":       len(records),
	})
}

// ListAuditRecordsByCollection returns audit records for one source collection
func (h *AuditHandler) ListAuditRecordsByCollection(c echo.Context) error {
	collection := c.Param("collection")

	records, err := h.auditRepository.ListRecords(c.Request().Context(), collection)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"collection":  collection,
		"auditTrails": records,
		"count":       len(records),
	})
}

// DeleteAuditRecord removes one audit record by id
func (h *AuditHandler) DeleteAuditRecord(c echo.Context) error {
	id, err := parseObjectID(c.Param("id"), "audit record ID")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.auditRepository.DeleteRecord(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"message": "audit record deleted"})
}
