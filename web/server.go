package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cargas/db/db"
	"cargas/db/sp"
	"cargas/libs/logging"
	"cargas/mq/mq"
	"cargas/syncer"
)

type ServiceConfig struct {
	IsDev bool
	Port  string
	// RateLimit is requests per hour per client; 0 disables limiting.
	RateLimit int64
}

// Deps are the components the API serves. Events, Proxy and Lists are
// optional.
type Deps struct {
	Synchronizer *syncer.Synchronizer
	Store        db.Store
	Events       mq.RecordMessageQueueWrapper
	Proxy        *sp.Client
	Lists        *sp.ListResolver
	Logger       *zap.Logger
}

func NewRouter(cfg ServiceConfig, deps Deps) *gin.Engine {
	if !cfg.IsDev {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logging.OrNop(deps.Logger)

	r := gin.New()
	setupMiddlewares(r, cfg, logger)

	h := &handler{sync: deps.Synchronizer, store: deps.Store, logger: logger}
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/screen", h.screen)

	api.GET("/origins", h.listReferences(db.KindOrigin))
	api.POST("/origins", h.addReference(db.KindOrigin))
	api.DELETE("/origins/:id", h.deleteReference(db.KindOrigin))
	api.GET("/destinations", h.listReferences(db.KindDestination))
	api.POST("/destinations", h.addReference(db.KindDestination))
	api.DELETE("/destinations/:id", h.deleteReference(db.KindDestination))

	api.GET("/contacts", h.listContacts)
	api.PUT("/contacts", h.saveContact)
	api.DELETE("/contacts/:id", h.deleteContact)

	api.GET("/fleet", h.searchFleet)

	loads := api.Group("/loads")
	loads.Use(ContactDataLoaderInjectionMiddleware(deps.Store))
	loads.GET("", h.listLoads)
	loads.POST("", h.saveLoad)
	loads.GET("/new", h.newLoad)
	loads.GET("/export", h.exportLoads)
	loads.GET("/:id", h.editLoad)
	loads.DELETE("/:id", h.deleteLoad)
	loads.POST("/assign", h.assignDriver)
	loads.POST("/confirm", h.confirmLoad)
	loads.POST("/notify", h.notifyFleet)
	loads.POST("/ai-select", h.runAISelector)

	restrictions := api.Group("/restrictions")
	restrictions.GET("", h.listRestrictions)
	restrictions.POST("", h.saveRestriction)
	restrictions.GET("/new", h.newRestriction)
	restrictions.GET("/:id", h.editRestriction)
	restrictions.DELETE("/:id", h.deleteRestriction)
	restrictions.POST("/assign", h.assignRestrictionDriver)

	api.GET("/events", newEventFeed(deps.Events, logger).serve)

	if deps.Proxy != nil && deps.Lists != nil {
		p := &proxy{client: deps.Proxy, lists: deps.Lists, logger: logger, fail: h.fail}
		p.register(r)
	} else {
		r.Any("/api/sp/*path", unavailable)
	}
	return r
}

// Serve runs the API until ctx is cancelled, then drains in-flight
// requests.
func Serve(ctx context.Context, cfg ServiceConfig, deps Deps) error {
	logger := logging.OrNop(deps.Logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr), zap.Bool("dev", cfg.IsDev))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
