package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/jsamuelsen/dice-roller/internal/adapters/http/dto"
	"github.com/jsamuelsen/dice-roller/internal/adapters/http/middleware"
	"github.com/jsamuelsen/dice-roller/internal/app"
	"github.com/jsamuelsen/dice-roller/internal/dice"
	"github.com/jsamuelsen/dice-roller/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// PageConfig configures the HTML roller.
type PageConfig struct {
	Service *app.RollService
	Consent *ConsentHandler

	Title string

	// MeasurementID enables the analytics tag for visitors who accepted.
	MeasurementID string
}

// PageHandler serves the browser UI.
type PageHandler struct {
	service       *app.RollService
	consent       *ConsentHandler
	title         string
	measurementID string
}

// NewPageHandler creates a page handler. It panics without a service or
// consent handler.
func NewPageHandler(cfg PageConfig) *PageHandler {
	if cfg.Service == nil || cfg.Consent == nil {
		panic("handlers: PageHandler requires a Service and a Consent handler")
	}

	title := cfg.Title
	if title == "" {
		title = "D&D Dice Roller"
	}

	return &PageHandler{
		service:       cfg.Service,
		consent:       cfg.Consent,
		title:         title,
		measurementID: cfg.MeasurementID,
	}
}

type pageData struct {
	Title         string
	MeasurementID string
	AnalyticsTag  bool
	ShowBanner    bool
	Result        *resultData
}

type resultData struct {
	Input     string
	Total     int
	Breakdown string
	Error     string
}

// headerHTMX is set by htmx on requests it issues.
const headerHTMX = "HX-Request"

// Index handles GET /.
func (h *PageHandler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, "index", h.page(c, nil))
}

func (h *PageHandler) page(c *gin.Context, result *resultData) pageData {
	decision := middleware.GetConsent(c)

	return pageData{
		Title:         h.title,
		MeasurementID: h.measurementID,
		AnalyticsTag:  decision.AllowsAnalytics() && h.measurementID != "",
		ShowBanner:    decision.Pending(),
		Result:        result,
	}
}

// Roll handles POST /roll. htmx requests get the result fragment; plain
// form posts get the whole page with the result filled in. Expression
// errors are part of the result, not an HTTP error.
func (h *PageHandler) Roll(c *gin.Context) {
	var req dto.RollRequest
	if err := dto.BindFormAndValidate(c, &req); err != nil {
		h.result(c, http.StatusBadRequest, resultData{Error: "Error: malformed form"})
		return
	}

	out, err := h.service.Roll(c.Request.Context(), app.RollRequest{
		Expression: req.Expression,
		Consent:    middleware.GetConsent(c),
	})
	if err != nil {
		if domain.IsValidation(err) {
			h.result(c, http.StatusOK, resultData{Error: validationMessage(err)})
			return
		}

		dto.HandleError(c, err)

		return
	}

	res := resultData{Input: out.Input, Total: out.Total, Breakdown: dice.JoinBreakdown(out.Breakdown)}
	if !out.OK() {
		res = resultData{Error: "Error: " + out.Error}
	}

	h.result(c, http.StatusOK, res)
}

func (h *PageHandler) result(c *gin.Context, status int, res resultData) {
	if c.GetHeader(headerHTMX) == "true" {
		h.render(c, status, "result", res)
		return
	}

	h.render(c, status, "index", h.page(c, &res))
}

// Consent handles POST /consent from the banner and redirects home.
func (h *PageHandler) Consent(c *gin.Context) {
	var req dto.ConsentRequest
	if err := dto.BindFormAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	h.consent.store(c, req.Decision)
	c.Redirect(http.StatusSeeOther, "/")
}

// RegisterPageRoutes registers the UI routes on the engine root.
func (h *PageHandler) RegisterPageRoutes(rg gin.IRoutes) {
	rg.GET("/", h.Index)
	rg.POST("/roll", h.Roll)
	rg.POST("/consent", h.Consent)
}

func (h *PageHandler) render(c *gin.Context, status int, name string, data any) {
	c.Render(status, render.HTML{Template: pageTemplates, Name: name, Data: data})
}

// validationMessage returns the bare message of a domain validation error.
func validationMessage(err error) string {
	_, resp := dto.MapDomainError(err)
	return resp.Error.Message
}
