package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/services"
)

// respondError traduz os erros de negócio para o status HTTP adequado.
// Erros não mapeados viram 500 com mensagem genérica.
func respondError(c *gin.Context, err error) {
	var decodeErr *services.DecodeError
	var missingErr *services.MissingColumnError
	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError
	var conflictErr *services.ConflictError
	var unauthorizedErr *services.UnauthorizedError
	var forbiddenErr *services.ForbiddenError

	switch {
	case errors.As(err, &decodeErr),
		errors.As(err, &missingErr),
		errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &unauthorizedErr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &forbiddenErr):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ Erro interno [%s %s]: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno do servidor"})
	}
}
