package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coursecraft/coursecraft-api/internal/export"
	"github.com/coursecraft/coursecraft-api/internal/log"
	"github.com/coursecraft/coursecraft-api/internal/metrics"
	"github.com/coursecraft/coursecraft-api/internal/queue"
)

type generateCourseReq struct {
	Topic        string `json:"topic"`
	CoursePrompt string `json:"coursePrompt"` // legacy client field
	Format       string `json:"format"`
}

// GenerateCourse godoc
// @Summary Generate a course from a topic
// @Tags courses
// @Accept json
// @Produce json
// @Param payload body generateCourseReq true "generate"
// @Success 201
// @Failure 400 {object} map[string]any
// @Router /api/v1/courses/generate [post]
func (h *Handler) GenerateCourse(c *gin.Context) {
	var in generateCourseReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		topic = strings.TrimSpace(in.CoursePrompt)
	}
	format := in.Format
	if format == "" {
		format = export.FormatText
	}

	var errs []fieldError
	if topic == "" {
		errs = append(errs, fieldError{"topic", "Topic is required"})
	}
	if !export.ValidFormat(format) {
		errs = append(errs, fieldError{"format", "Invalid format"})
	}
	if len(errs) > 0 {
		failFields(c, errs)
		return
	}

	// The only long-latency call in the service. Bounded by GenTimeout, no
	// concurrency cap beyond the HTTP-level limiter.
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.GenTimeout)
	defer cancel()

	content, err := h.Gen.Generate(ctx, topic)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(format, "error").Inc()
		log.Errorf("course generation: %v", err)
		resp := gin.H{"success": false, "error": "Failed to generate course"}
		if h.Dev {
			resp["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	id, err := h.Exporter.Write(topic, content, format)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(format, "error").Inc()
		log.Errorf("artifact write: %v", err)
		fail(c, http.StatusInternalServerError, "Failed to generate course")
		return
	}
	metrics.GenerationsTotal.WithLabelValues(format, "ok").Inc()

	go h.Events.Publish(context.Background(), h.Exchange, queue.KeyCourseGenerated,
		queue.CourseGenerated{CourseID: id, Topic: topic, Format: format}, requestID(c))

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":          id,
			"topic":       topic,
			"format":      format,
			"downloadUrl": fmt.Sprintf("/api/v1/courses/export/%s?format=%s", id, format),
		},
	})
}

// ExportCourse godoc
// @Summary Download a generated course artifact
// @Tags courses
// @Produce octet-stream
// @Param id path string true "course id"
// @Param format query string false "txt or pdf"
// @Success 200
// @Failure 404 {object} map[string]any
// @Router /api/v1/courses/export/{id} [get]
func (h *Handler) ExportCourse(c *gin.Context) {
	id := c.Param("id")
	format := c.DefaultQuery("format", export.FormatText)
	if !export.ValidFormat(format) {
		fail(c, http.StatusBadRequest, "Invalid format")
		return
	}
	path, err := h.Exporter.Path(id, format)
	if err != nil {
		fail(c, http.StatusNotFound, "Course not found or expired")
		return
	}
	c.FileAttachment(path, fmt.Sprintf("course-%s.%s", id, format))
}
