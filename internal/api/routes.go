package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.POST("/analyze", handler.Analyze)
		api.GET("/cities", handler.GetCities)
		api.GET("/lookup/streets", handler.GetStreets)
		api.GET("/lookup/neighborhoods", handler.GetNeighborhoods)
		api.GET("/transactions", handler.GetTransactions)
		api.POST("/transactions/import", handler.ImportTransactions)
		api.DELETE("/transactions", handler.ClearTransactions)
		api.GET("/health", handler.Health)
	}
}
