package apperrors

import (
	"github.com/gin-gonic/gin"

	"businessconnect_backend/internal/logger"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Error   *AppError `json:"error"`
}

// GinErrorHandler renders errors for gin.
type GinErrorHandler struct {
	Debug bool
}

var debugMode = true

// SetDebug toggles whether internal error messages reach clients.
func SetDebug(debug bool) {
	debugMode = debug
}

func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		logger.CtxError(c.Request.Context(), "Server error", "error", appErr.Error())
		if !h.Debug {
			hidden := *appErr
			hidden.Details = nil
			if hidden.Code == CodeInternalError {
				hidden.Message = "Internal server error"
			}
			appErr = &hidden
		}
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{
		Success: false,
		Message: appErr.Message,
		Error:   appErr,
	})
}

// HandleError is the shortcut used by handlers and middleware.
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: debugMode}
	handler.HandleGinError(c, err)
}

// AsAppError tries to convert err to *AppError.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
