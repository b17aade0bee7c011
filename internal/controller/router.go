package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quote-management-api/internal/payment"
	"quote-management-api/internal/service"
)

func SetupRoutesHandlers(handler *echo.Echo, services *service.Services, processor *payment.Processor) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	api := handler.Group("/api")
	newDiagnosticRoutesHandler(api, services)
	newQuoteRoutesHandler(api, services, validate)
	newPaymentRoutesHandler(api, processor, validate)

	handler.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
