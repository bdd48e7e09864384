package rest

import (
	"github.com/AzielCF/az-crm/core/database"
	"github.com/gofiber/fiber/v2"
)

type MonitoringHandler struct {
	pool *database.Pool
}

// InitRestMonitoring registra los endpoints de observabilidad del pool de
// conexiones por tenant.
func InitRestMonitoring(app fiber.Router, pool *database.Pool) {
	h := &MonitoringHandler{pool: pool}

	g := app.Group("/monitoring")
	g.Get("/pool", h.GetPoolStatus)
}

func (h *MonitoringHandler) GetPoolStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connections": h.pool.Count(),
		"databases":   h.pool.ActiveDatabases(),
	})
}
