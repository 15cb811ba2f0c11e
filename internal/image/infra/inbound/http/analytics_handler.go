package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/imagelab/internal/image/domain"
)

// AnalyticsHandler expone las consultas agregadas del sink analítico.
// reader puede ser nil si el despliegue arranca sin ClickHouse.
type AnalyticsHandler struct {
	reader domain.AnalyticsReader
}

func NewAnalyticsHandler(reader domain.AnalyticsReader) *AnalyticsHandler {
	return &AnalyticsHandler{reader: reader}
}

// GetStyleStats endpoint GET /analytics/styles/:style?from=&to= (RFC 3339).
// Sin rango explícito consulta las últimas 24 horas.
func (h *AnalyticsHandler) GetStyleStats(c *gin.Context) {
	if h.reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics disabled"})
		return
	}

	style := c.Param("style")

	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
		to = parsed
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must precede to"})
		return
	}

	avg, err := h.reader.AverageProcessingTime(c.Request.Context(), style, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	rate, err := h.reader.FailureRate(c.Request.Context(), style, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"style":           style,
		"avgProcessingMs": avg.Milliseconds(),
		"failureRate":     rate,
		"from":            from.Format(time.RFC3339),
		"to":              to.Format(time.RFC3339),
	})
}
