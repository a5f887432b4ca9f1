package utils

import "github.com/gin-gonic/gin"

// The web client consumes bare payload objects on success and a flat
// {"error": "..."} document on failure, so there is no response envelope.

// Fail writes the standard error shape with the given status code.
func Fail(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"error": message})
}

// OK writes a JSON payload with status 200.
func OK(ctx *gin.Context, payload interface{}) {
	ctx.JSON(200, payload)
}
