package api

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/saqibullah/health-risk-predictor/ocr"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options wires the router.
type Options struct {
	Assessor    Assessor
	OCR         ocr.Runner
	Logger      *zap.Logger
	Registry    *prometheus.Registry
	FrontendURL string
	// Models maps model name to where it was loaded from, for /health.
	Models map[string]string
}

// NewRouter builds the gin engine.
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	r.Use(RequestID())
	r.Use(Logger(opts.Logger))
	r.Use(Recovery(opts.Logger))
	r.Use(CORS(opts.FrontendURL))

	h := NewHandler(opts.Assessor, opts.OCR, opts.Logger, NewMetrics(opts.Registry), opts.Models)

	r.GET("/", h.Index)
	r.POST("/predict", h.PredictForm)
	if opts.OCR != nil {
		r.POST("/extract", h.Extract)
	}
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/predict", h.PredictJSON)
	}

	return r
}
