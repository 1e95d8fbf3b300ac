package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/service"
)

// MasterDataHandler serves the read-only reference listings.
type MasterDataHandler struct {
	service *service.ReferenceService
}

// NewMasterDataHandler constructs handler.
func NewMasterDataHandler(referenceService *service.ReferenceService) *MasterDataHandler {
	return &MasterDataHandler{service: referenceService}
}

// Users GET /tickets/master/users.
func (h *MasterDataHandler) Users(c *fiber.Ctx) error {
	refs, err := h.service.Users(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": referenceResponses(refs)})
}

// Accounts GET /tickets/master/accounts.
func (h *MasterDataHandler) Accounts(c *fiber.Ctx) error {
	refs, err := h.service.Accounts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": referenceResponses(refs)})
}

// Categories GET /tickets/master/categories.
func (h *MasterDataHandler) Categories(c *fiber.Ctx) error {
	refs, err := h.service.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": referenceResponses(refs)})
}

// CategoryDetails GET /tickets/master/category-details?categoryId=...
func (h *MasterDataHandler) CategoryDetails(c *fiber.Ctx) error {
	var categoryID *string
	if val := c.Query("categoryId"); val != "" {
		categoryID = &val
	}
	details, err := h.service.CategoryDetails(c.UserContext(), categoryID)
	if err != nil {
		return err
	}
	items := make([]dto.CategoryDetailResponse, 0, len(details))
	for _, detail := range details {
		items = append(items, dto.CategoryDetailResponse{
			ID:         detail.ID,
			Name:       detail.Name,
			CategoryID: detail.CategoryID,
			OrderNo:    detail.OrderNo,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Statuses GET /tickets/master/statuses.
func (h *MasterDataHandler) Statuses(c *fiber.Ctx) error {
	refs, err := h.service.Statuses(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": referenceResponses(refs)})
}

// RequestChannels GET /tickets/master/request-channels.
func (h *MasterDataHandler) RequestChannels(c *fiber.Ctx) error {
	refs, err := h.service.RequestChannels(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": referenceResponses(refs)})
}

// ResponseCategories GET /tickets/master/response-categories.
func (h *MasterDataHandler) ResponseCategories(c *fiber.Ctx) error {
	cats, err := h.service.ResponseCategories(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ResponseCategoryResponse, 0, len(cats))
	for _, cat := range cats {
		items = append(items, dto.ResponseCategoryResponse{
			ID:             cat.ID,
			Name:           cat.Name,
			ParentCategory: cat.ParentCategory,
			OrderNo:        cat.OrderNo,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func referenceResponses(refs []domain.Reference) []dto.ReferenceResponse {
	items := make([]dto.ReferenceResponse, 0, len(refs))
	for _, ref := range refs {
		items = append(items, dto.ReferenceResponse{
			ID:      ref.ID,
			Name:    ref.Name,
			OrderNo: ref.OrderNo,
		})
	}
	return items
}
