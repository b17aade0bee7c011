package controller

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"

	"quote-management-api/internal/payment"
)

type paymentRoutesHandler struct {
	processor *payment.Processor
	validate  *validator.Validate
}

func newPaymentRoutesHandler(outer *echo.Group, processor *payment.Processor, v *validator.Validate) *paymentRoutesHandler {
	h := &paymentRoutesHandler{processor: processor, validate: v}
	outer.POST("/payments/notify", h.Notify)
	outer.POST("/payments/checkout", h.Checkout)

	return h
}

// Notify receives the gateway's form-encoded server-to-server callback. The
// gateway retries anything that is not a 200, so only signature failures and
// our own misconfiguration are reported as errors.
func (h *paymentRoutesHandler) Notify(c echo.Context) error {
	values, err := c.FormParams()
	if err != nil {
		if e := c.NoContent(http.StatusBadRequest); e != nil {
			return e
		}

		return err
	}

	fields := make(map[string]string, len(values))
	for k := range values {
		fields[k] = values.Get(k)
	}

	err = h.processor.HandleNotification(c.Request().Context(), fields)
	if err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			if e := c.NoContent(http.StatusBadRequest); e != nil {
				return e
			}

			return err
		}

		if e := c.NoContent(http.StatusInternalServerError); e != nil {
			return e
		}

		return err
	}

	if e := c.NoContent(http.StatusOK); e != nil {
		return e
	}

	return nil
}

type checkoutInput struct {
	VendorId    string `json:"vendorId" validate:"required,uuid"`
	Plan        string `json:"plan" validate:"required,max=100"`
	AmountCents int64  `json:"amountCents" validate:"required,gt=0"`
}

// Checkout creates a pending subscription and returns the signed form fields
// the client posts to the gateway.
func (h *paymentRoutesHandler) Checkout(c echo.Context) error {
	var input checkoutInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	fields, err := h.processor.CheckoutFields(c.Request().Context(), input.VendorId, input.Plan, input.AmountCents, h.processor.NotifyUrl())
	if err != nil {
		if e := c.JSON(http.StatusInternalServerError, errorResponse{"Error"}); e != nil {
			return e
		}

		return err
	}

	if e := c.JSON(http.StatusOK, fields); e != nil {
		return e
	}

	return nil
}
