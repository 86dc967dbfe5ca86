package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/services/dto"
)

// Response is the success envelope shared by every endpoint.
type Response struct {
	Success    bool               `json:"success"`
	Data       interface{}        `json:"data,omitempty"`
	Message    string             `json:"message,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data, Message: message})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message})
}

func respondWithMessage(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Message: message})
}

func respondList[T any](c *gin.Context, list *dto.ListResponse[T]) {
	c.JSON(http.StatusOK, Response{Success: true, Data: list.Items, Pagination: &list.Pagination})
}
