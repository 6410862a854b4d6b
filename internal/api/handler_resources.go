package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dakshesh-max/society-man/internal/store"
)

// resource serves the CRUD routes of one entity.
type resource[T any, I any] struct {
	repo      store.Repository[T, I]
	summarize func(items []T, now time.Time) any
	now       func() time.Time
	// lister replaces the plain list handler when set.
	lister gin.HandlerFunc
}

// register mounts list, stats, get, create, update and delete on g. Every
// route goes through caching: reads are served from it and writes drop it.
func (r resource[T, I]) register(g *gin.RouterGroup, caching gin.HandlerFunc) {
	list := r.list
	if r.lister != nil {
		list = r.lister
	}
	g.GET("", caching, list)
	g.GET("/stats", caching, r.stats)
	g.GET("/:id", caching, r.get)
	g.POST("", caching, r.create)
	g.PUT("/:id", caching, r.update)
	g.DELETE("/:id", caching, r.delete)
}

func (r resource[T, I]) list(c *gin.Context) {
	items, err := r.repo.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (r resource[T, I]) stats(c *gin.Context) {
	items, err := r.repo.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r.summarize(items, r.now()))
}

func (r resource[T, I]) get(c *gin.Context) {
	item, err := r.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (r resource[T, I]) create(c *gin.Context) {
	in, ok := bindInput[I](c)
	if !ok {
		return
	}
	item, err := r.repo.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (r resource[T, I]) update(c *gin.Context) {
	in, ok := bindInput[I](c)
	if !ok {
		return
	}
	item, err := r.repo.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (r resource[T, I]) delete(c *gin.Context) {
	if err := r.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
