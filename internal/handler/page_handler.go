package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/booking-page/internal/dto"
	"github.com/noah-isme/booking-page/internal/service"
	appErrors "github.com/noah-isme/booking-page/pkg/errors"
	"github.com/noah-isme/booking-page/pkg/response"
)

type pageRegistry interface {
	Open(currentUserEmail string, cookies []*http.Cookie) *service.PageController
	Get(id string) (*service.PageController, error)
	Close(id string) error
}

// PageHandler exposes the booking page events over HTTP.
type PageHandler struct {
	pages    pageRegistry
	validate *validator.Validate
}

// NewPageHandler builds a page handler. The validator must have the booking tags registered.
func NewPageHandler(pages pageRegistry, validate *validator.Validate) *PageHandler {
	return &PageHandler{pages: pages, validate: validate}
}

// Open godoc
// @Summary Open a booking page
// @Tags Pages
// @Accept json
// @Produce json
// @Param payload body dto.OpenPageRequest false "Prefill"
// @Success 201 {object} response.Envelope
// @Router /pages [post]
func (h *PageHandler) Open(c *gin.Context) {
	var req dto.OpenPageRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid page payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "currentUserEmail is not a valid e-mail address"))
		return
	}
	ctrl := h.pages.Open(req.CurrentUserEmail, c.Request.Cookies())
	response.Created(c, ctrl.View())
}

// Get godoc
// @Summary Get page state
// @Tags Pages
// @Produce json
// @Param id path string true "Page ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pages/{id} [get]
func (h *PageHandler) Get(c *gin.Context) {
	ctrl, err := h.pages.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ctrl.View())
}

// Close godoc
// @Summary Navigate away from a page
// @Tags Pages
// @Param id path string true "Page ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /pages/{id} [delete]
func (h *PageHandler) Close(c *gin.Context) {
	if err := h.pages.Close(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Focus godoc
// @Summary Focus a form control
// @Tags Fields
// @Produce json
// @Param id path string true "Page ID"
// @Param field path string true "Field name"
// @Success 200 {object} response.Envelope
// @Router /pages/{id}/fields/{field}/focus [post]
func (h *PageHandler) Focus(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	h.render(c)(ctrl.Focus(c.Param("field")))
}

// Blur godoc
// @Summary Blur a form control
// @Tags Fields
// @Produce json
// @Param id path string true "Page ID"
// @Param field path string true "Field name"
// @Success 200 {object} response.Envelope
// @Router /pages/{id}/fields/{field}/blur [post]
func (h *PageHandler) Blur(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	h.render(c)(ctrl.Blur(c.Param("field")))
}

// Input godoc
// @Summary Type into a form control
// @Tags Fields
// @Accept json
// @Produce json
// @Param id path string true "Page ID"
// @Param field path string true "Field name"
// @Param payload body dto.FieldEventRequest true "New value"
// @Success 200 {object} response.Envelope
// @Router /pages/{id}/fields/{field}/input [post]
func (h *PageHandler) Input(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	req, ok := bindFieldEvent(c)
	if !ok {
		return
	}
	h.render(c)(ctrl.Input(c.Param("field"), req.Value))
}

// Change godoc
// @Summary Commit a form control value
// @Tags Fields
// @Accept json
// @Produce json
// @Param id path string true "Page ID"
// @Param field path string true "Field name"
// @Param payload body dto.FieldEventRequest true "New value"
// @Success 200 {object} response.Envelope
// @Router /pages/{id}/fields/{field}/change [post]
func (h *PageHandler) Change(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	req, ok := bindFieldEvent(c)
	if !ok {
		return
	}
	h.render(c)(ctrl.Change(c.Param("field"), req.Value))
}

// SelectSlot godoc
// @Summary Click a preset time slot
// @Tags Slots
// @Produce json
// @Param id path string true "Page ID"
// @Param slot path string true "Slot (HH:MM)"
// @Success 200 {object} response.Envelope
// @Router /pages/{id}/slots/{slot}/select [post]
func (h *PageHandler) SelectSlot(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	selected, view, err := ctrl.SelectSlot(c.Param("slot"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SlotSelectResponse{Selected: selected, Page: view})
}

// Submit godoc
// @Summary Submit the booking form
// @Tags Pages
// @Produce json
// @Param id path string true "Page ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /pages/{id}/submit [post]
func (h *PageHandler) Submit(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	result, err := ctrl.Submit(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func (h *PageHandler) controller(c *gin.Context) (*service.PageController, bool) {
	ctrl, err := h.pages.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return ctrl, true
}

func (h *PageHandler) render(c *gin.Context) func(dto.PageView, error) {
	return func(view dto.PageView, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, view)
	}
}

func bindFieldEvent(c *gin.Context) (dto.FieldEventRequest, bool) {
	var req dto.FieldEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid field event payload"))
		return req, false
	}
	return req, true
}

// Register mounts the page routes on group.
func (h *PageHandler) Register(group *gin.RouterGroup) {
	pages := group.Group("/pages")
	pages.POST("", h.Open)
	pages.GET("/:id", h.Get)
	pages.DELETE("/:id", h.Close)
	pages.POST("/:id/fields/:field/focus", h.Focus)
	pages.POST("/:id/fields/:field/blur", h.Blur)
	pages.POST("/:id/fields/:field/input", h.Input)
	pages.POST("/:id/fields/:field/change", h.Change)
	pages.POST("/:id/slots/:slot/select", h.SelectSlot)
	pages.POST("/:id/submit", h.Submit)
}
