package middleware

import "github.com/gin-gonic/gin"

// All responses share a uniform success/error envelope.

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func RespondSuccess(c *gin.Context, code int, data any) {
	c.JSON(code, SuccessResponse{Success: true, Data: data})
}

func RespondError(c *gin.Context, code int, message, errCode string) {
	c.JSON(code, ErrorResponse{Success: false, Error: ErrorBody{Message: message, Code: errCode}})
}
