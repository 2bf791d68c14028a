package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultContextTimeout bounds every handler's downstream calls.
const DefaultContextTimeout = 30 * time.Second

func pageMeta(page, perPage, total int) gin.H {
	totalPages := (total + perPage - 1) / perPage
	return gin.H{
		"page":       page,
		"perPage":    perPage,
		"total":      total,
		"totalPages": totalPages,
	}
}
