package api

import (
	"time"

	models "NoteFlow/internal/domain/models"
	domrepo "NoteFlow/internal/domain/repository"
	enginemetrics "NoteFlow/internal/service/metrics"
	"NoteFlow/internal/service/ratelimit"
	"NoteFlow/internal/services/engine"
	"NoteFlow/internal/usecase"
	xhttp "NoteFlow/pkg/http"
	xlogger "NoteFlow/pkg/logger"
	"NoteFlow/pkg/queue"

	"github.com/labstack/echo/v4"
)

// NotesEchoHandler implements Echo-based HTTP handlers for the product
// evaluation endpoints.
type NotesEchoHandler struct {
	logger  *xlogger.Logger
	evals   *usecase.EvaluationService
	preds   *usecase.PredictionService
	refresh queue.QueueService
	limiter *ratelimit.Limiter
}

func NewNotesEchoHandler(logger *xlogger.Logger, evals *usecase.EvaluationService, preds *usecase.PredictionService, refresh queue.QueueService) *NotesEchoHandler {
	return &NotesEchoHandler{
		logger:  logger,
		evals:   evals,
		preds:   preds,
		refresh: refresh,
		limiter: ratelimit.New(),
	}
}

func (h *NotesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/products", h.Products)
	g.GET("/products/:id/schedule", h.Schedule)
	g.PATCH("/products/:id/schedule/dates", h.ScheduleDateEdit)
	g.GET("/products/:id/outcomes", h.Outcomes)
	g.GET("/products/:id/prediction", h.Prediction)
	g.GET("/products/:id/risk", h.Risk)
	g.POST("/products/:id/refresh", h.Refresh)
	g.POST("/schedule/preview", h.SchedulePreview)
}

func (h *NotesEchoHandler) Products(c echo.Context) error {
	ids, err := h.evals.ListProducts(c.Request().Context())
	if err != nil {
		h.logger.Error("products list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, ids, int64(len(ids)))
}

func (h *NotesEchoHandler) Schedule(c echo.Context) error {
	start := time.Now()
	req := &models.ScheduleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	cfg, err := h.evals.Product(ctx, req.ProductID)
	if err != nil {
		h.logger.Error("schedule product error", xlogger.Error(err))
		return xhttp.NotFoundResponse(c, err.Error())
	}
	schedule, err := h.evals.Schedule(ctx, cfg)
	if err != nil {
		h.logger.Error("schedule error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	enginemetrics.EngineLatency.WithLabelValues("schedule").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, schedule)
}

// ScheduleDateEdit applies a manual observation/value date edit to one
// period. Edits that break the period ordering are rejected.
func (h *NotesEchoHandler) ScheduleDateEdit(c echo.Context) error {
	req := &models.ScheduleEditRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var obsDate, valueDate time.Time
	var err error
	if req.ObservationDate != "" {
		if obsDate, err = time.Parse("2006-01-02", req.ObservationDate); err != nil {
			return xhttp.BadRequestResponse(c, "observation_date: "+err.Error())
		}
	}
	if req.ValueDate != "" {
		if valueDate, err = time.Parse("2006-01-02", req.ValueDate); err != nil {
			return xhttp.BadRequestResponse(c, "value_date: "+err.Error())
		}
	}

	schedule, err := h.evals.EditScheduleDate(c.Request().Context(), req.ProductID, req.PeriodIndex, obsDate, valueDate)
	if err != nil {
		h.logger.Error("schedule edit error", xlogger.Error(err))
		enginemetrics.EngineErrors.WithLabelValues("schedule_edit").Inc()
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, schedule)
}

func (h *NotesEchoHandler) Outcomes(c echo.Context) error {
	req := &models.OutcomesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	outcomes, err := h.evals.Outcomes(c.Request().Context(), req.ProductID, req.Limit)
	if err != nil {
		h.logger.Error("outcomes error", xlogger.Error(err))
		enginemetrics.EngineErrors.WithLabelValues("outcomes").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, outcomes, int64(len(outcomes)))
}

func (h *NotesEchoHandler) Prediction(c echo.Context) error {
	start := time.Now()
	req := &models.PredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	pred, err := h.preds.Predict(c.Request().Context(), req.ProductID)
	if err != nil {
		h.logger.Error("prediction error", xlogger.Error(err))
		enginemetrics.EngineErrors.WithLabelValues("prediction").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	enginemetrics.EngineLatency.WithLabelValues("prediction").Observe(time.Since(start).Seconds())
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, pred)
}

func (h *NotesEchoHandler) Risk(c echo.Context) error {
	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	risks, err := h.preds.Risk(c.Request().Context(), req.ProductID)
	if err != nil {
		h.logger.Error("risk error", xlogger.Error(err))
		enginemetrics.EngineErrors.WithLabelValues("risk").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, risks, int64(len(risks)))
}

// Refresh enqueues a re-evaluation; the work itself runs off the queue.
func (h *NotesEchoHandler) Refresh(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.refresh == nil {
		return xhttp.DataResponse(c, 503, "refresh queue not configured")
	}
	if !h.limiter.Allow("refresh:"+req.ProductID, 5, 0.2) {
		return xhttp.DataResponse(c, 429, "refresh rate limit exceeded")
	}

	err := h.refresh.PublishMessage(c.Request().Context(), usecase.RefreshMessageType, usecase.RefreshPayload{
		ProductID: req.ProductID,
	})
	if err != nil {
		h.logger.Error("refresh enqueue error", xlogger.Error(err))
		enginemetrics.EngineErrors.WithLabelValues("refresh").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "queued", "product_id": req.ProductID})
}

// SchedulePreview builds a schedule from the posted terms without
// touching any stored product.
func (h *NotesEchoHandler) SchedulePreview(c echo.Context) error {
	req := &models.SchedulePreviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cfg, err := previewConfig(req)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	schedule, err := engine.NewGenerator().Generate(cfg, req.UnderlyingCount)
	if err != nil {
		h.logger.Error("schedule preview error", xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, schedule)
}

func previewConfig(req *models.SchedulePreviewRequest) (*models.ProductScheduleConfig, error) {
	trade, err := time.Parse("2006-01-02", req.TradeDate)
	if err != nil {
		return nil, err
	}
	final, err := time.Parse("2006-01-02", req.FinalObservationDate)
	if err != nil {
		return nil, err
	}
	calendars := make([]models.CalendarID, len(req.MarketCalendars))
	for i, cal := range req.MarketCalendars {
		calendars[i] = models.CalendarID(cal)
	}
	return &models.ProductScheduleConfig{
		ProductID:            "preview",
		TradeDate:            trade,
		FinalObservationDate: final,
		Frequency:            domrepo.NormalizeFrequency(req.Frequency),
		DelayDays:            req.DelayDays,
		CoolOffPeriods:       req.CoolOffPeriods,
		InitialAutocallLevel: req.InitialAutocallLevel,
		StepDownPerPeriod:    req.StepDownPerPeriod,
		CouponBarrier:        req.CouponBarrier,
		MarketCalendars:      calendars,
		TemplateVariant:      models.TemplateVariant(req.TemplateVariant),
	}, nil
}
