package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cargas/db/db"
	"cargas/db/sp"
)

// proxy forwards /api/sp/:list[/:id] to Graph with the server credential.
// Only configured lists are reachable.
type proxy struct {
	client *sp.Client
	lists  *sp.ListResolver
	logger *zap.Logger
	fail   func(*gin.Context, error)
}

func (p *proxy) forward(c *gin.Context) {
	list, ok := p.lists.Resolve(c.Param("list"))
	if !ok {
		p.fail(c, &db.NotFoundError{Entity: "list", ID: c.Param("list")})
		return
	}
	body, err := readBody(c)
	if err != nil {
		p.fail(c, db.NewValidationError("body", err.Error()))
		return
	}

	res, err := p.client.Forward(c.Request.Context(), c.Request.Method, list, c.Param("id"), body)
	if err != nil {
		p.fail(c, err)
		return
	}
	p.logger.Debug("proxied sharepoint call",
		zap.String("method", c.Request.Method),
		zap.String("list", list),
		zap.Int("status", res.Status))

	if len(res.Body) == 0 {
		c.Status(res.Status)
		return
	}
	contentType := res.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(res.Status, contentType, res.Body)
}

func (p *proxy) register(r gin.IRouter) {
	g := r.Group("/api/sp")
	g.GET("/:list", p.forward)
	g.POST("/:list", p.forward)
	g.GET("/:list/:id", p.forward)
	g.PUT("/:list/:id", p.forward)
	g.DELETE("/:list/:id", p.forward)
}

// unavailable answers every proxy route when the store is not SharePoint.
func unavailable(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse{
		Error: "sharepoint proxy is not configured",
		Kind:  "unavailable",
	})
}
