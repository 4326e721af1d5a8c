package handler

import (
	"errors"

	"go-stockwise/internal/model"
	"go-stockwise/internal/service"
	"go-stockwise/internal/store"

	"github.com/gofiber/fiber/v2"
)

type SupplierHandler struct {
	service service.SupplierService
}

func NewSupplierHandler(s service.SupplierService) *SupplierHandler {
	return &SupplierHandler{service: s}
}

func (h *SupplierHandler) CreateSupplier(c *fiber.Ctx) error {
	var supplier model.Supplier
	if err := c.BodyParser(&supplier); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	created, err := h.service.CreateSupplier(&supplier)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Supplier created", "data": created})
}

func (h *SupplierHandler) UpdateSupplier(c *fiber.Ctx) error {
	var patch model.SupplierPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateSupplier(c.Params("id"), &patch)
	if err != nil {
		if errors.Is(err, service.ErrSupplierNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Supplier updated", "data": updated})
}

func (h *SupplierHandler) DeleteSupplier(c *fiber.Ctx) error {
	if err := h.service.DeleteSupplier(c.Params("id")); err != nil {
		if errors.Is(err, service.ErrSupplierNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Supplier deleted"})
}

func (h *SupplierHandler) GetSupplier(c *fiber.Ctx) error {
	supplier, err := h.service.GetSupplier(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	if supplier == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Supplier not found"})
	}
	return c.JSON(supplier)
}

// GetSuppliers lists suppliers, optionally filtered by ?search= against the
// supplier name.
func (h *SupplierHandler) GetSuppliers(c *fiber.Ctx) error {
	criteria := store.Criteria{}
	if search := c.Query("search"); search != "" {
		criteria["supplier_name"] = search
	}

	suppliers, err := h.service.ListSuppliers(criteria)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(suppliers)
}
