package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentahome/kyc-service/internal/core/domain"
	"github.com/rentahome/kyc-service/internal/core/ports"
)

// KYCHandler exposes the caller's own verification flow.
type KYCHandler struct {
	service ports.KYCService
}

func NewKYCHandler(service ports.KYCService) *KYCHandler {
	return &KYCHandler{service: service}
}

// Status handles GET /kyc/status.
//
// @Summary      Current verification status
// @Tags         kyc
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statusResponse
// @Failure      401  {object}  errorBody
// @Router       /kyc/status [get]
func (h *KYCHandler) Status(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	view, err := h.service.Status(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatusResponse(view))
}

// SubmitTier1 handles POST /kyc/tier1/submit.
//
// @Summary      Verify phone number and NIN
// @Description  Both checks run together; if either is not found no flag changes.
// @Tags         kyc
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      tier1SubmitRequest  true  "Phone number and NIN"
// @Success      200   {object}  statusResponse
// @Failure      409   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Failure      503   {object}  errorBody
// @Router       /kyc/tier1/submit [post]
func (h *KYCHandler) SubmitTier1(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req tier1SubmitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.SubmitTier1(c.Request().Context(), ports.Tier1Input{
		Actor:       actor,
		PhoneNumber: req.PhoneNumber,
		NIN:         req.NIN,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatusResponse(view))
}

// SubmitPhone handles POST /kyc/tier1/phone.
//
// @Summary      Verify phone number only
// @Tags         kyc
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      phoneSubmitRequest  true  "Phone number"
// @Success      200   {object}  statusResponse
// @Failure      409   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Failure      503   {object}  errorBody
// @Router       /kyc/tier1/phone [post]
func (h *KYCHandler) SubmitPhone(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req phoneSubmitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.SubmitPhone(c.Request().Context(), actor, req.PhoneNumber)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatusResponse(view))
}

// RequestEmail handles POST /kyc/tier1/email/request.
//
// @Summary      Send an email verification link
// @Tags         kyc
// @Produce      json
// @Security     BearerAuth
// @Success      202  {object}  messageResponse
// @Failure      409  {object}  errorBody
// @Failure      502  {object}  errorBody
// @Router       /kyc/tier1/email/request [post]
func (h *KYCHandler) RequestEmail(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.service.RequestEmailVerification(c.Request().Context(), actor); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{Message: "verification email sent"})
}

// ConfirmEmail handles GET /kyc/tier1/email/confirm?token=.
// The token itself identifies the user, so the route is public.
//
// @Summary      Confirm email ownership
// @Tags         kyc
// @Produce      json
// @Param        token  query     string  true  "Token from the verification email"
// @Success      200    {object}  statusResponse
// @Failure      400    {object}  errorBody
// @Router       /kyc/tier1/email/confirm [get]
func (h *KYCHandler) ConfirmEmail(c echo.Context) error {
	view, err := h.service.ConfirmEmail(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatusResponse(view))
}

// SubmitTier2 handles POST /kyc/tier2/submit (multipart/form-data).
//
// @Summary      Upload a utility bill
// @Tags         kyc
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        document_type  formData  string  true  "electricity_bill, water_bill, waste_bill, internet_bill or gas_bill"
// @Param        file           formData  file    true  "PDF, JPEG or PNG"
// @Success      202            {object}  statusResponse
// @Failure      409            {object}  errorBody
// @Failure      412            {object}  errorBody
// @Failure      422            {object}  errorBody
// @Failure      502            {object}  errorBody
// @Router       /kyc/tier2/submit [post]
func (h *KYCHandler) SubmitTier2(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	in := ports.Tier2Input{Actor: actor, DocumentType: c.FormValue("document_type")}

	fh, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// left empty; the service reports the missing file with the other fields
	case err != nil:
		return domain.NewValidationError("file", "invalid multipart upload")
	default:
		f, err := fh.Open()
		if err != nil {
			return domain.NewValidationError("file", "could not be read")
		}
		defer f.Close()
		in.Document = ports.Document{
			Body:        f,
			Size:        fh.Size,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Filename:    fh.Filename,
		}
	}

	view, err := h.service.SubmitTier2(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, toStatusResponse(view))
}

// SubmitTier3 handles POST /kyc/tier3/submit.
//
// @Summary      Verify BVN, bank account and business
// @Description  Sub-checks are recorded independently; an unavailable check stays pending and is reported in checks.
// @Tags         kyc
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      tier3SubmitRequest  true  "Financial and business identifiers"
// @Success      200   {object}  tier3Response
// @Failure      409   {object}  errorBody
// @Failure      412   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /kyc/tier3/submit [post]
func (h *KYCHandler) SubmitTier3(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req tier3SubmitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.SubmitTier3(c.Request().Context(), ports.Tier3Input{
		Actor:              actor,
		BVN:                req.BVN,
		AccountNumber:      req.AccountNumber,
		BankCode:           req.BankCode,
		BusinessName:       req.BusinessName,
		BusinessType:       req.BusinessType,
		RegistrationNumber: req.RegistrationNumber,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTier3Response(res))
}
