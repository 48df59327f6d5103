package httptransport

import "github.com/gin-gonic/gin"

// ErrorResponse carries the detail string for failed requests. The shape is
// shared by every endpoint so clients only need one error decoder.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RespondError writes a JSON error with the given status and detail.
func RespondError(c *gin.Context, httpStatus int, detail string) {
	c.JSON(httpStatus, ErrorResponse{Detail: detail})
}

// AbortError writes a JSON error and stops the handler chain.
func AbortError(c *gin.Context, httpStatus int, detail string) {
	c.AbortWithStatusJSON(httpStatus, ErrorResponse{Detail: detail})
}
