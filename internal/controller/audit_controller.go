package controller

import (
	"byteme-assistant-be/internal/pkg/serverutils"
	"byteme-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuditController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
}

type auditController struct {
	auditService service.IAuditService
}

func NewAuditController(auditService service.IAuditService) IAuditController {
	return &auditController{auditService: auditService}
}

func (c *auditController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/audit/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/logs", c.GetLogs)
}

func (c *auditController) GetLogs(ctx *fiber.Ctx) error {
	eventType := ctx.Query("event_type", "")
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.auditService.GetLogs(ctx.Context(), eventType, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Audit trail", res))
}
