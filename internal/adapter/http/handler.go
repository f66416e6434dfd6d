package httpadapter

import (
	"context"
	"encoding/json"
	"errors"

	"resintimer/internal/app/timer"
	"resintimer/internal/domain/resin"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

var ErrMissingVisible = errors.New("missing visible field")

type Dispatcher interface {
	Dispatch(ctx context.Context, ev resin.Event) (timer.Snapshot, error)
}

type Handler struct {
	Timer      Dispatcher
	KPI        kpiSnapshotProvider
	CORSOrigin string
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.CORSOrigin))

	r := s.Group("/api/resin")
	r.GET("", h.get)
	r.POST("/set", h.set)
	r.POST("/edit/begin", h.beginEdit)
	r.POST("/edit", h.edit)
	r.POST("/edit/cancel", h.cancelEdit)
	r.POST("/subtract", h.subtract)
	r.POST("/visibility", h.visibility)

	s.GET("/ops/kpi", h.kpi)
}

type valueRequest struct {
	Value string `json:"value"`
}

type subtractRequest struct {
	Units int `json:"units,omitempty"`
}

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

func (h Handler) get(c context.Context, ctx *app.RequestContext) {
	h.dispatch(c, ctx, resin.Sync{})
}

func (h Handler) set(c context.Context, ctx *app.RequestContext) {
	var body valueRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.dispatch(c, ctx, resin.SetResource{Raw: body.Value})
}

func (h Handler) beginEdit(c context.Context, ctx *app.RequestContext) {
	h.dispatch(c, ctx, resin.BeginEdit{})
}

func (h Handler) edit(c context.Context, ctx *app.RequestContext) {
	var body valueRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.dispatch(c, ctx, resin.EditInput{Raw: body.Value})
}

func (h Handler) cancelEdit(c context.Context, ctx *app.RequestContext) {
	h.dispatch(c, ctx, resin.CancelEdit{})
}

func (h Handler) subtract(c context.Context, ctx *app.RequestContext) {
	var body subtractRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.dispatch(c, ctx, resin.SubtractUnits{Units: body.Units})
}

func (h Handler) visibility(c context.Context, ctx *app.RequestContext) {
	var body visibilityRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if body.Visible == nil {
		writeError(ctx, ErrMissingVisible)
		return
	}
	h.dispatch(c, ctx, resin.VisibilityChanged{Visible: *body.Visible})
}

func (h Handler) dispatch(c context.Context, ctx *app.RequestContext, ev resin.Event) {
	snap, err := h.Timer.Dispatch(c, ev)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, snap)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, timer.ErrInvalidInput):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_resin_input", err.Error())
	case errors.Is(err, timer.ErrInvalidUnits):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_spend_units", err.Error())
	case errors.Is(err, ErrMissingVisible):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, timer.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "timer_unavailable", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
