package rest

import (
	"github.com/AzielCF/az-crm/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Health struct {
	DB *gorm.DB
}

func InitRestHealth(app fiber.Router, db *gorm.DB) Health {
	handler := Health{DB: db}

	group := app.Group("/health")
	group.Get("/status", handler.GetStatus)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		return c.Status(503).JSON(utils.ResponseData{
			Status:  503,
			Code:    "STORAGE_ERROR",
			Message: "main database unreachable: " + err.Error(),
		})
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Service healthy",
	})
}
