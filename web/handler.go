package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cargas/db/db"
	"cargas/export"
	"cargas/fleet"
	"cargas/syncer"
)

type handler struct {
	sync   *syncer.Synchronizer
	store  db.Store
	logger *zap.Logger
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// errorStatus maps the error taxonomy onto HTTP.
func errorStatus(err error) (int, errorResponse) {
	resp := errorResponse{Error: err.Error()}
	var validation *db.ValidationError
	switch {
	case errors.As(err, &validation):
		resp.Kind = "validation"
		resp.Field = validation.Field
		return http.StatusBadRequest, resp
	case db.IsNotFound(err):
		resp.Kind = "not_found"
		return http.StatusNotFound, resp
	case db.IsAuth(err):
		resp.Kind = "auth"
		return http.StatusBadGateway, resp
	case db.IsTransport(err):
		resp.Kind = "transport"
		return http.StatusBadGateway, resp
	case errors.Is(err, syncer.ErrNoTrigger):
		resp.Kind = "unavailable"
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		resp.Kind = "cancelled"
		return http.StatusServiceUnavailable, resp
	}
	resp.Kind = "internal"
	return http.StatusInternalServerError, resp
}

func (h *handler) fail(c *gin.Context, err error) {
	status, resp := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func (h *handler) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.fail(c, db.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) screen(c *gin.Context) {
	screen, err := h.sync.LoadScreen(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, screen)
}

// Reference lists

type nameRequest struct {
	Name string `json:"name"`
}

func (h *handler) listReferences(kind db.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		refs, err := h.sync.Refs().List(c.Request.Context(), kind)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, refs)
	}
}

func (h *handler) addReference(kind db.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nameRequest
		if !h.bind(c, &req) {
			return
		}
		ref, err := h.sync.AddReference(c.Request.Context(), kind, req.Name)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, ref)
	}
}

func (h *handler) deleteReference(kind db.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.sync.DeleteReference(c.Request.Context(), kind, c.Param("id")); err != nil {
			h.fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// Contacts

type contactRequest struct {
	DriverName string `json:"driverName"`
	Phone      string `json:"phone"`
}

func (h *handler) listContacts(c *gin.Context) {
	contacts, err := h.sync.Refs().Contacts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *handler) saveContact(c *gin.Context) {
	var req contactRequest
	if !h.bind(c, &req) {
		return
	}
	contact, err := h.sync.SaveContact(c.Request.Context(), req.DriverName, req.Phone)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *handler) deleteContact(c *gin.Context) {
	if err := h.sync.DeleteContact(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// searchFleet answers the driver dropdown. An unavailable fleet yields an
// empty list.
func (h *handler) searchFleet(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	ctx := c.Request.Context()
	var records []fleet.Record
	if term == "" {
		records = h.sync.Fleet().Snapshot(ctx)
	} else {
		records = slices.Collect(h.sync.Fleet().Search(ctx, term))
	}
	if records == nil {
		records = []fleet.Record{}
	}
	c.JSON(http.StatusOK, records)
}

// Loads

func (h *handler) listLoads(c *gin.Context) {
	var filter db.LoadFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.fail(c, db.NewValidationError("query", err.Error()))
		return
	}
	loads, err := h.sync.ListLoads(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loads)
}

func (h *handler) newLoad(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.NewLoad())
}

func (h *handler) editLoad(c *gin.Context) {
	draft, err := h.sync.EditLoad(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *handler) saveLoad(c *gin.Context) {
	var draft db.LoadDraft
	if !h.bind(c, &draft) {
		return
	}
	load, err := h.sync.SaveLoad(c.Request.Context(), draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if draft.IsNew {
		status = http.StatusCreated
	}
	c.JSON(status, load)
}

func (h *handler) deleteLoad(c *gin.Context) {
	if err := h.sync.DeleteLoad(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignRequest struct {
	Load       db.Load `json:"load"`
	DriverName string  `json:"driverName"`
}

// assignDriver enriches a load being edited. Nothing is saved.
func (h *handler) assignDriver(c *gin.Context) {
	var req assignRequest
	if !h.bind(c, &req) {
		return
	}
	h.sync.AssignDriver(c.Request.Context(), &req.Load, req.DriverName)
	c.JSON(http.StatusOK, req.Load)
}

type confirmRequest struct {
	Load      db.Load `json:"load"`
	Confirmed bool    `json:"confirmed"`
}

func (h *handler) confirmLoad(c *gin.Context) {
	var req confirmRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.sync.SetConfirmed(&req.Load, req.Confirmed); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req.Load)
}

type notifyRequest struct {
	IDs []string `json:"ids"`
}

func (h *handler) notifyFleet(c *gin.Context) {
	var req notifyRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	loads, err := h.sync.NotifyFleet(c.Request.Context(), req.IDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loads)
}

type aiSelectRequest struct {
	Date string `json:"date"`
}

func (h *handler) runAISelector(c *gin.Context) {
	var req aiSelectRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	loads, err := h.sync.RunAISelector(c.Request.Context(), req.Date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loads)
}

func (h *handler) exportLoads(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var filter db.LoadFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.fail(c, db.NewValidationError("query", err.Error()))
		return
	}
	ctx := c.Request.Context()
	loads, err := h.sync.ListLoads(ctx, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := export.Rows(ctx, loads, contactLoader(c, h.store))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+format.FileName(h.sync.Now())+`"`)
	c.Header("Content-Type", format.ContentType())
	c.Status(http.StatusOK)
	if format == export.FormatCSV {
		err = export.WriteCSV(c.Writer, rows)
	} else {
		err = export.WriteXLSX(c.Writer, rows)
	}
	if err != nil {
		h.logger.Error("failed to write export", zap.Error(err))
	}
}

// Restrictions

func (h *handler) listRestrictions(c *gin.Context) {
	var filter db.RestrictionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.fail(c, db.NewValidationError("query", err.Error()))
		return
	}
	restrictions, err := h.sync.ListRestrictions(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, restrictions)
}

func (h *handler) newRestriction(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.NewRestriction())
}

func (h *handler) editRestriction(c *gin.Context) {
	draft, err := h.sync.EditRestriction(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *handler) saveRestriction(c *gin.Context) {
	var draft db.RestrictionDraft
	if !h.bind(c, &draft) {
		return
	}
	r, err := h.sync.SaveRestriction(c.Request.Context(), draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if draft.IsNew {
		status = http.StatusCreated
	}
	c.JSON(status, r)
}

func (h *handler) deleteRestriction(c *gin.Context) {
	if err := h.sync.DeleteRestriction(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignRestrictionRequest struct {
	Restriction db.Restriction `json:"restriction"`
	DriverName  string         `json:"driverName"`
}

func (h *handler) assignRestrictionDriver(c *gin.Context) {
	var req assignRestrictionRequest
	if !h.bind(c, &req) {
		return
	}
	h.sync.AssignRestrictionDriver(c.Request.Context(), &req.Restriction, req.DriverName)
	c.JSON(http.StatusOK, req.Restriction)
}

func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, 4<<20))
}
