package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(e *echo.Echo, lmsHandler *LMSHandler, installmentHandler *InstallmentHandler, applicationHandler *ApplicationHandler, wsHandler *WebSocketHandler) {
	api := e.Group("/api/v1")

	// Loan management: one read endpoint, one action endpoint
	lms := api.Group("/lms")
	lms.GET("", lmsHandler.GetAccounts)
	lms.POST("", lmsHandler.PostAction)

	// Installment schedules
	lms.GET("/accounts/:customerId/installments", installmentHandler.GetSchedule)
	lms.PUT("/installments", installmentHandler.UpdateSchedule)
	lms.POST("/installments/:id/payments", installmentHandler.RecordPayment)

	// NADRA / passport / visa ledgers
	applications := api.Group("/applications")
	applications.GET("", applicationHandler.List)
	applications.POST("", applicationHandler.Create)
	applications.GET("/:id", applicationHandler.Get)
	applications.PUT("/:id", applicationHandler.Update)
	applications.DELETE("/:id", applicationHandler.Delete)

	// Real-time updates
	api.GET("/ws", wsHandler.HandleWS)
}
