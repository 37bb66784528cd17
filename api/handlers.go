package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saqibullah/health-risk-predictor/features"
	"github.com/saqibullah/health-risk-predictor/ocr"
	"github.com/saqibullah/health-risk-predictor/risk"
)

// Assessor scores one survey response.
type Assessor interface {
	Assess(ctx context.Context, raw map[string]string) (*risk.Assessment, error)
}

// Handler serves the survey page and the prediction API.
type Handler struct {
	assessor Assessor
	ocr      ocr.Runner
	log      *zap.Logger
	metrics  *Metrics
	models   map[string]string
}

// NewHandler creates a Handler. A nil runner disables /extract.
func NewHandler(assessor Assessor, runner ocr.Runner, log *zap.Logger, metrics *Metrics, models map[string]string) *Handler {
	return &Handler{
		assessor: assessor,
		ocr:      runner,
		log:      log,
		metrics:  metrics,
		models:   models,
	}
}

// fieldView is one input of the survey form.
type fieldView struct {
	Name  string
	Value string
}

func formFields(values map[string]string) []fieldView {
	out := make([]fieldView, 0, features.Width)
	for _, name := range features.FeatureOrder {
		out = append(out, fieldView{Name: name, Value: values[name]})
	}
	return out
}

// Index handles GET /
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"fields": formFields(nil),
	})
}

// PredictForm handles POST /predict from the HTML form.
func (h *Handler) PredictForm(c *gin.Context) {
	raw := make(map[string]string, features.Width)
	for _, name := range features.FeatureOrder {
		if v, ok := c.GetPostForm(name); ok {
			raw[name] = v
		}
	}

	assessment, err := h.assess(c, raw)
	if err != nil {
		c.HTML(statusFor(err), "index.html", gin.H{
			"fields": formFields(raw),
			"error":  err.Error(),
		})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"fields":          formFields(raw),
		"heart_result":    assessment.Heart.Label,
		"heart_prob":      assessment.Heart.ProbabilityPercent,
		"diabetes_result": assessment.Diabetes.Label,
		"diabetes_prob":   assessment.Diabetes.ProbabilityPercent,
	})
}

// PredictJSON handles POST /api/v1/predict. Field values may be JSON strings
// or numbers.
func (h *Handler) PredictJSON(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	raw := make(map[string]string, len(body))
	for name, v := range body {
		switch val := v.(type) {
		case string:
			raw[name] = val
		case float64:
			raw[name] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			raw[name] = fmt.Sprint(val)
		}
	}

	assessment, err := h.assess(c, raw)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error": err.Error(),
			"code":  strings.ToUpper(risk.ErrorKind(err)),
		})
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (h *Handler) assess(c *gin.Context, raw map[string]string) (*risk.Assessment, error) {
	start := time.Now()
	assessment, err := h.assessor.Assess(c.Request.Context(), raw)
	h.metrics.latency.Observe(time.Since(start).Seconds())

	if err != nil {
		kind := risk.ErrorKind(err)
		h.metrics.failures.WithLabelValues(kind).Inc()
		h.log.Warn("assessment failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return nil, err
	}

	h.metrics.predictions.WithLabelValues(risk.Heart, assessment.Heart.Label).Inc()
	h.metrics.predictions.WithLabelValues(risk.Diabetes, assessment.Diabetes.Label).Inc()
	return assessment, nil
}

func statusFor(err error) int {
	switch risk.ErrorKind(err) {
	case risk.KindMissingField, risk.KindParse:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Extract handles POST /extract: OCR an uploaded survey image and return the
// answers it could read.
func (h *Handler) Extract(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		h.log.Warn("no image uploaded", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image uploaded: " + err.Error()})
		return
	}
	h.log.Debug("received survey image",
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
	)

	tmp, err := os.CreateTemp("", "survey-*"+filepath.Ext(file.Filename))
	if err != nil {
		h.log.Error("create temp file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image: " + err.Error()})
		return
	}
	tempPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tempPath)

	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		h.log.Error("save uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image: " + err.Error()})
		return
	}

	text, err := h.ocr.Recognize(c.Request.Context(), tempPath)
	if err != nil {
		h.log.Error("OCR failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	extracted := ocr.ExtractFields(text)
	h.log.Debug("extracted survey fields", zap.Int("count", len(extracted)))
	c.JSON(http.StatusOK, gin.H{"extracted": extracted})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"models":    h.models,
		"ocr":       h.ocr != nil,
		"timestamp": time.Now().UTC(),
	})
}
