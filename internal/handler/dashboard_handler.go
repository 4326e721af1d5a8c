package handler

import (
	"go-stockwise/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetStats returns the headline counters for the dashboard cards.
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStats()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(stats)
}

// GetRecentMovements returns the newest ledger entries.
// GET /api/v1/dashboard/recent-movements
func (h *DashboardHandler) GetRecentMovements(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	movements, err := h.service.RecentMovements(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(movements)
}

// GetActivityLogs returns the audit trail, newest first.
// GET /api/v1/activity-logs
func (h *DashboardHandler) GetActivityLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	return c.JSON(h.service.RecentActivity(limit))
}
