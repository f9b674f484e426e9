package web

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"cargas/db/db"
)

func CorsConfig() cors.Config {
	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConf.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	corsConf.AllowCredentials = true
	corsConf.MaxAge = 1 * 3600 // 1 hours
	return corsConf
}

// limiterMiddleWare allows perHour requests per client IP.
func limiterMiddleWare(perHour int64) gin.HandlerFunc {
	rate := limiter.Rate{
		Period: 1 * time.Hour,
		Limit:  perHour,
	}
	store := memory.NewStore()
	instance := limiter.New(store, rate)
	return mgin.NewMiddleware(instance)
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= 500 {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}

// ContactDataLoaderInjectionMiddleware gives every request its own batched
// contact loader.
func ContactDataLoaderInjectionMiddleware(wrapper db.ReferenceDBWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := db.NewContactDataLoader(wrapper)
		c.Set(string(db.DataLoaderKeyContact), loader)
		c.Next()
	}
}

func contactLoader(c *gin.Context, wrapper db.ReferenceDBWrapper) *db.ContactDataLoader {
	if loader, ok := c.Value(string(db.DataLoaderKeyContact)).(*db.ContactDataLoader); ok {
		return loader
	}
	return db.NewContactDataLoader(wrapper)
}

func setupMiddlewares(r *gin.Engine, cfg ServiceConfig, logger *zap.Logger) {
	if cfg.RateLimit > 0 {
		r.Use(limiterMiddleWare(cfg.RateLimit))
	}
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	r.Use(cors.New(CorsConfig()))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/events"})))
	r.Use(secure.New(secure.Config{
		STSSeconds:           31536000, // 1 year
		STSIncludeSubdomains: true,
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
		IsDevelopment:        cfg.IsDev,
	}))
}
