package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/internal/authz"
	"github.com/taskflow-dev/taskflow/internal/utils"
)

// respondAuthzError maps a gate denial onto the wire: unauthenticated is a
// 401, role and ownership denials are 403s. action reads like "create
// projects" or "update tasks" and completes the forbidden message.
func respondAuthzError(ctx *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
	case errors.Is(err, authz.ErrReadOnly):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: read-only users cannot " + action})
	case errors.Is(err, authz.ErrNotOwner):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: only the project owner can " + action})
	default:
		respondInternal(ctx, "authorize request", err)
	}
}

// respondValidation surfaces a field→messages map as a 400.
func respondValidation(ctx *gin.Context, details map[string][]string) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": details})
}

// respondInternal logs the underlying error with the request ID and answers
// with a generic message; internals never reach the caller.
func respondInternal(ctx *gin.Context, what string, err error) {
	log.Printf("[%s] Failed to %s: %v", utils.GetRequestID(ctx), what, err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + what})
}
