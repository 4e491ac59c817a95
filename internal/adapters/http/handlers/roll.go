package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/dice-roller/internal/adapters/http/dto"
	"github.com/jsamuelsen/dice-roller/internal/adapters/http/middleware"
	"github.com/jsamuelsen/dice-roller/internal/app"
)

// RollHandler serves the JSON roll API.
type RollHandler struct {
	service *app.RollService
}

// NewRollHandler creates a roll handler.
func NewRollHandler(service *app.RollService) *RollHandler {
	return &RollHandler{service: service}
}

// Roll handles POST /api/v1/rolls.
//
// @Summary Roll a dice expression
// @Tags rolls
// @Accept json
// @Produce json
// @Param request body dto.RollRequest true "Expression"
// @Success 200 {object} dto.RollResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.RollResponse
// @Router /api/v1/rolls [post]
func (h *RollHandler) Roll(c *gin.Context) {
	var req dto.RollRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	out, err := h.service.Roll(c.Request.Context(), app.RollRequest{
		Expression: req.Expression,
		Consent:    middleware.GetConsent(c),
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	status := http.StatusOK
	if !out.OK() {
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, dto.NewRollResponse(out))
}

// RollBatch handles POST /api/v1/rolls/batch. Per-expression failures are
// reported in their result; the batch itself succeeds.
//
// @Summary Roll several dice expressions
// @Tags rolls
// @Accept json
// @Produce json
// @Param request body dto.BatchRequest true "Expressions"
// @Success 200 {object} dto.BatchResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/rolls/batch [post]
func (h *RollHandler) RollBatch(c *gin.Context) {
	var req dto.BatchRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	outs, err := h.service.RollBatch(c.Request.Context(), app.BatchRequest{
		Expressions: req.Expressions,
		Consent:     middleware.GetConsent(c),
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBatchResponse(outs))
}

// RegisterRollRoutes registers roll routes on the given router group.
func (h *RollHandler) RegisterRollRoutes(rg *gin.RouterGroup) {
	rolls := rg.Group("/rolls")
	rolls.POST("", h.Roll)
	rolls.POST("/batch", h.RollBatch)
}
