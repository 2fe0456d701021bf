package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sandbox-pool/infra/packages/api/internal/api"
	"github.com/sandbox-pool/infra/packages/api/internal/identity"
)

func (a *APIStore) PostTemplates(c *gin.Context) {
	user := identity.MustUser(c)
	if !user.IsAdmin() {
		a.forbidden(c, "create lease templates")

		return
	}

	var body api.TemplateSpec
	if !a.bindJSON(c, &body) {
		return
	}

	template, err := a.templates.Create(c.Request.Context(), user.Email, body)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusCreated, template)
}

func (a *APIStore) GetTemplates(c *gin.Context, params api.GetTemplatesParams) {
	page, err := a.templates.List(c.Request.Context(), params.PageIdentifier, pageSize(params.PageSize))
	if err != nil {
		a.sendError(c, err)

		return
	}

	items := make([]api.LeaseTemplate, 0, len(page.Items))
	for _, template := range page.Items {
		items = append(items, *template)
	}

	c.JSON(http.StatusOK, api.TemplateList{Items: items, NextPageIdentifier: page.NextPageIdentifier})
}

func (a *APIStore) GetTemplatesTemplateID(c *gin.Context, templateID api.TemplateID) {
	template, err := a.templates.Get(c.Request.Context(), templateID)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, template)
}

func (a *APIStore) PutTemplatesTemplateID(c *gin.Context, templateID api.TemplateID) {
	if !identity.MustUser(c).IsAdmin() {
		a.forbidden(c, "update lease templates")

		return
	}

	var body api.TemplateSpec
	if !a.bindJSON(c, &body) {
		return
	}

	template, err := a.templates.Update(c.Request.Context(), templateID, body)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, template)
}

func (a *APIStore) DeleteTemplatesTemplateID(c *gin.Context, templateID api.TemplateID) {
	if !identity.MustUser(c).IsAdmin() {
		a.forbidden(c, "delete lease templates")

		return
	}

	if err := a.templates.Delete(c.Request.Context(), templateID); err != nil {
		a.sendError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}
