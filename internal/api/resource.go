package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-gestao/internal/services"
)

// registerResource mounts list, get, create, update and delete for one
// collection under /<name>.
func registerResource[T, V any](h *Handler, g *gin.RouterGroup, name string, res *services.Resource[T, V]) {
	path := "/" + name

	g.GET(path, func(c *gin.Context) {
		page, err := res.List(c.Request.Context(), listParams(c))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	})

	g.GET(path+"/:id", func(c *gin.Context) {
		rec, err := res.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	g.POST(path, func(c *gin.Context) {
		var rec T
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := res.Create(c.Request.Context(), rec)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	g.PUT(path+"/:id", func(c *gin.Context) {
		var rec T
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updated, err := res.Update(c.Request.Context(), c.Param("id"), rec)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	g.DELETE(path+"/:id", func(c *gin.Context) {
		if err := res.Delete(c.Request.Context(), c.Param("id")); err != nil {
			h.fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
