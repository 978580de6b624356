package handler

import (
	"reflect"
	"time"

	"github.com/deppfellow/employees-api/internal/middleware"
	"github.com/deppfellow/employees-api/internal/server"
	"github.com/deppfellow/employees-api/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// Handler carries the dependencies every endpoint handler shares.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc receives an already bound and validated request. Req must be a
// pointer type so that Bind can fill it.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// ResponseHandler writes a successful result.
type ResponseHandler interface {
	Handle(c echo.Context, result any) error
	AddAttributes(txn *newrelic.Transaction, result any)
}

type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result any) error {
	return c.JSON(h.status, result)
}

// AddAttributes records the size of list responses.
func (h JSONResponseHandler) AddAttributes(txn *newrelic.Transaction, result any) {
	if result == nil {
		return
	}
	if v := reflect.ValueOf(result); v.Kind() == reflect.Slice {
		txn.AddAttribute("response.items", v.Len())
	}
}

// phase times one step of a request and mirrors its outcome onto the New
// Relic transaction, when there is one.
type phase struct {
	name  string
	start time.Time
	txn   *newrelic.Transaction
}

func startPhase(txn *newrelic.Transaction, name string) phase {
	return phase{name: name, start: time.Now(), txn: txn}
}

func (p phase) end(status string) time.Duration {
	d := time.Since(p.start)
	if p.txn != nil {
		p.txn.AddAttribute(p.name+".status", status)
		p.txn.AddAttribute(p.name+".duration_ms", d.Milliseconds())
	}
	return d
}

func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (any, error),
	responder ResponseHandler,
) error {
	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", c.Path())
	}

	log := middleware.GetLogger(c).With().Str("route", c.Path()).Logger()
	total := time.Now()

	validate := startPhase(txn, "validation")
	if err := validation.BindAndValidate(c, req); err != nil {
		d := validate.end("failed")
		log.Info().Err(err).Dur("validation_duration", d).Msg("request validation failed")
		return err
	}
	validationDuration := validate.end("success")

	run := startPhase(txn, "handler")
	result, err := handler(c, req)
	if err != nil {
		// GlobalErrorHandler logs the cause at the right level.
		logOutcome(log.Debug(), run.end("error"), validationDuration, total).Err(err).Msg("handler returned error")
		return err
	}
	handlerDuration := run.end("success")

	if txn != nil {
		txn.AddAttribute("total.duration_ms", time.Since(total).Milliseconds())
		responder.AddAttributes(txn, result)
	}
	logOutcome(log.Debug(), handlerDuration, validationDuration, total).Msg("request completed")

	return responder.Handle(c, result)
}

func logOutcome(e *zerolog.Event, handlerDur, validationDur time.Duration, start time.Time) *zerolog.Event {
	return e.
		Dur("handler_duration", handlerDur).
		Dur("validation_duration", validationDur).
		Dur("total_duration", time.Since(start))
}

// Handle adapts a typed handler to echo. Each request binds into a fresh
// value of req's type, so req itself is never written to.
//
//	api.POST("/employees", handler.Handle(h, h.CreateEmployee, http.StatusCreated, &employee.CreateEmployeeRequest{}))
func Handle[Req validation.Validatable, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	req Req,
) echo.HandlerFunc {
	responder := JSONResponseHandler{status: status}
	return func(c echo.Context) error {
		return handleRequest(c, newRequest(req), func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, responder)
	}
}

// newRequest returns a zero value of the type prototype points to. Non-pointer
// prototypes are returned unchanged.
func newRequest[Req any](prototype Req) Req {
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Pointer {
		return prototype
	}
	return reflect.New(t.Elem()).Interface().(Req)
}
