package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templateService service.TemplateService
}

func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

func (h *TemplateHandler) RegisterRoutes(router *gin.RouterGroup) {
	templates := router.Group("/api/form-templates")
	{
		templates.GET("", middleware.RequireAuth(), h.ListTemplates)
		templates.GET("/all", middleware.RequireRole(model.RoleManager, model.RoleSuperAdmin), h.ListAllTemplates)
		templates.GET("/:id", middleware.RequireAuth(), h.GetTemplate)
		templates.POST("", middleware.RequireRole(model.RoleManager, model.RoleSuperAdmin), h.CreateTemplate)
		templates.PUT("/:id", middleware.RequireRole(model.RoleManager, model.RoleSuperAdmin), h.UpdateTemplate)
		templates.DELETE("/:id", middleware.RequireRole(model.RoleManager, model.RoleSuperAdmin), h.DeleteTemplate)
	}
}

// ListTemplates handles GET /api/form-templates — active templates only
// @Summary      List active form templates
// @Tags         form-templates
// @Produce      json
// @Security     BearerAuth
// @Param        department_id  query  string  false  "Filter by department"
// @Success      200  {object}  response.Response{data=[]service.TemplateResponse}
// @Router       /form-templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateService.List(c.Request.Context(), c.Query("department_id"), false)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, templates))
}

// ListAllTemplates handles GET /api/form-templates/all — includes deactivated
// @Summary      List all form templates
// @Tags         form-templates
// @Produce      json
// @Security     BearerAuth
// @Param        department_id  query  string  false  "Filter by department"
// @Success      200  {object}  response.Response{data=[]service.TemplateResponse}
// @Router       /form-templates/all [get]
func (h *TemplateHandler) ListAllTemplates(c *gin.Context) {
	templates, err := h.templateService.List(c.Request.Context(), c.Query("department_id"), true)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, templates))
}

// GetTemplate handles GET /api/form-templates/:id
// @Summary      Get a form template
// @Tags         form-templates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}  response.Response{data=service.TemplateResponse}
// @Failure      404  {object}  response.Response
// @Router       /form-templates/{id} [get]
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	template, err := h.templateService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, template))
}

// CreateTemplate handles POST /api/form-templates
// @Summary      Create a form template
// @Description  Defines a department form with custom fields and a sequential approver chain
// @Tags         form-templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTemplateDTO  true  "Create Template Payload"
// @Success      201      {object}  response.Response{data=service.TemplateResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /form-templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.CreateTemplateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	template, err := h.templateService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, template))
}

// UpdateTemplate handles PUT /api/form-templates/:id
// @Summary      Update a form template
// @Tags         form-templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Template ID"
// @Param        payload  body      service.UpdateTemplateDTO  true  "Update Template Payload"
// @Success      200      {object}  response.Response{data=service.TemplateResponse}
// @Failure      404      {object}  response.Response
// @Router       /form-templates/{id} [put]
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.UpdateTemplateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	template, err := h.templateService.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, template))
}

// DeleteTemplate handles DELETE /api/form-templates/:id — deactivates the template
// @Summary      Deactivate a form template
// @Description  Fails with 409 while the template still has requests in progress
// @Tags         form-templates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /form-templates/{id} [delete]
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "template deactivated"}))
}
