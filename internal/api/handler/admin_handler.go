package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentahome/kyc-service/internal/core/ports"
)

// AdminHandler serves the support and review endpoints. Routes are mounted
// behind RBAC(admin).
type AdminHandler struct {
	service ports.KYCService
}

func NewAdminHandler(service ports.KYCService) *AdminHandler {
	return &AdminHandler{service: service}
}

// View handles GET /admin/kyc/:userId.
//
// @Summary      Inspect a user's verification record
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  adminIdentityResponse
// @Failure      403     {object}  errorBody
// @Failure      404     {object}  errorBody
// @Router       /admin/kyc/{userId} [get]
func (h *AdminHandler) View(c echo.Context) error {
	view, err := h.service.AdminView(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAdminResponse(view))
}

// ReviewTier2 handles POST /admin/kyc/:userId/tier2/review.
//
// @Summary      Approve or reject a pending utility bill
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string              true  "User ID"
// @Param        body    body      tier2ReviewRequest  true  "Decision"
// @Success      200     {object}  statusResponse
// @Failure      404     {object}  errorBody
// @Failure      412     {object}  errorBody
// @Failure      422     {object}  errorBody
// @Router       /admin/kyc/{userId}/tier2/review [post]
func (h *AdminHandler) ReviewTier2(c echo.Context) error {
	reviewer, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req tier2ReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.ReviewTier2(c.Request().Context(), ports.Tier2ReviewInput{
		ReviewerID: reviewer.UserID,
		UserID:     c.Param("userId"),
		Decision:   req.Decision,
		Notes:      req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatusResponse(view))
}

// OverridePhone handles POST /admin/kyc/:userId/phone-override.
//
// @Summary      Replace a locked phone number
// @Description  Clears phone verification and recomputes tier1; the user must verify the new number.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string                true  "User ID"
// @Param        body    body      phoneOverrideRequest  true  "New phone number"
// @Success      200     {object}  statusResponse
// @Failure      404     {object}  errorBody
// @Failure      422     {object}  errorBody
// @Router       /admin/kyc/{userId}/phone-override [post]
func (h *AdminHandler) OverridePhone(c echo.Context) error {
	admin, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req phoneOverrideRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.OverridePhone(c.Request().Context(), admin.UserID, c.Param("userId"), req.PhoneNumber)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatusResponse(view))
}
