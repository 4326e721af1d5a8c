package handler

import (
	"encoding/json"

	"go-stockwise/internal/store"

	"github.com/gofiber/fiber/v2"
)

type BackupHandler struct {
	store *store.Store
}

func NewBackupHandler(st *store.Store) *BackupHandler {
	return &BackupHandler{store: st}
}

// Export dumps every table as one JSON document, suitable for download and
// later restore. Password hashes round-trip through the dump.
// GET /api/v1/backup/export
func (h *BackupHandler) Export(c *fiber.Ctx) error {
	data, err := h.store.Export()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Export failed"})
	}
	c.Set("Content-Disposition", `attachment; filename="stockwise_backup.json"`)
	return c.JSON(data)
}

// Import replaces named tables wholesale with the uploaded dump. Unknown
// table names in the dump are skipped.
// POST /api/v1/backup/import
func (h *BackupHandler) Import(c *fiber.Ctx) error {
	var data map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &data); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid backup file"})
	}

	if err := h.store.Import(data); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Backup restored"})
}
