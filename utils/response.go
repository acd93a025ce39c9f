package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Message writes the uniform {"message": ...} body used by every
// non-resource response.
func Message(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"message": message})
}

// ServerError logs the underlying failure and answers with an opaque 500.
// Outside release mode the error string is attached for diagnosis.
func ServerError(ctx *gin.Context, logMsg string, err error) {
	if Sugar != nil {
		Sugar.Errorw(logMsg, "error", err, "path", ctx.Request.URL.Path)
	}
	body := gin.H{"message": "Server error"}
	if gin.Mode() != gin.ReleaseMode && err != nil {
		body["error"] = err.Error()
	}
	ctx.JSON(http.StatusInternalServerError, body)
}

// ValidationError reports a binding/validation failure as a 400 with the
// validator's explanation attached.
func ValidationError(ctx *gin.Context, err error) {
	body := gin.H{"message": "Validation failed"}
	if err != nil {
		body["errors"] = []string{err.Error()}
	}
	ctx.JSON(http.StatusBadRequest, body)
}
