package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/deppfellow/employees-api/internal/config"
	"github.com/deppfellow/employees-api/internal/database"
	"github.com/deppfellow/employees-api/internal/errs"
	"github.com/deppfellow/employees-api/internal/handler"
	"github.com/deppfellow/employees-api/internal/repository"
	"github.com/deppfellow/employees-api/internal/router"
	"github.com/deppfellow/employees-api/internal/server"
	"github.com/deppfellow/employees-api/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	listQuery   = `SELECT id, name, salary FROM employee`
	getQuery    = `SELECT id, name, salary FROM employee WHERE id = $1`
	createQuery = `INSERT INTO employee (name, salary) VALUES ($1, $2) RETURNING id`
	updateQuery = `UPDATE employee SET name = COALESCE($1, name), salary = COALESCE($2, salary) WHERE id = $3`
	deleteQuery = `DELETE FROM employee WHERE id = $1`
)

var columns = []string{"id", "name", "salary"}

// syncBuffer lets the test read log output written by the handlers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testApp struct {
	echo *echo.Echo
	mock pgxmock.PgxPoolIface
	logs *syncBuffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logs := &syncBuffer{}
	log := zerolog.New(logs).With().Timestamp().Logger()

	cfg := config.Default()
	cfg.Server.RateLimit = 0

	s := server.NewWithDatabase(cfg, &log, nil, database.NewFromPool(mock, &log))
	services := service.NewServices(repository.NewRepositories(s))

	return &testApp{
		echo: router.NewRouter(s, handler.NewHandlers(s, services)),
		mock: mock,
		logs: logs,
	}
}

func (a *testApp) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func assertMessage(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()

	assert.Equal(t, status, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, message, body["message"])
}

// decimalPtr matches a *decimal.Decimal bound argument by value.
type decimalPtr struct{ want decimal.Decimal }

func (d decimalPtr) Match(v any) bool {
	got, ok := v.(*decimal.Decimal)
	return ok && got != nil && got.Equal(d.want)
}

// decimalValue matches a decimal.Decimal bound argument by value.
type decimalValue struct{ want decimal.Decimal }

func (d decimalValue) Match(v any) bool {
	got, ok := v.(decimal.Decimal)
	return ok && got.Equal(d.want)
}

func strPtr(s string) *string { return &s }

func TestListEmployees(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(1), "Ana", decimal.RequireFromString("1500.50")).
			AddRow(int64(2), "Bruno", decimal.RequireFromString("2000")))

	rec := app.do(http.MethodGet, "/api/employees", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Ana","salary":"1500.5"},{"id":2,"name":"Bruno","salary":"2000"}]`, rec.Body.String())
	require.NoError(t, app.mock.ExpectationsWereMet())
}

func TestListEmployees_Empty(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectQuery(regexp.QuoteMeta(listQuery)).WillReturnRows(pgxmock.NewRows(columns))

	rec := app.do(http.MethodGet, "/api/employees", "")

	assertMessage(t, rec, http.StatusNotFound, "No hay empleados registrados")
	assert.Equal(t, "NOT_FOUND", rec.Header().Get(errs.ErrorCodeHeader))
	require.NoError(t, app.mock.ExpectationsWereMet())
}

func TestListEmployeesForDeletion(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectQuery(regexp.QuoteMeta(listQuery)).WillReturnRows(pgxmock.NewRows(columns))
	app.mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(4), "Dora", decimal.NewFromInt(900)))

	assertMessage(t, app.do(http.MethodGet, "/api/employees-delete", ""), http.StatusNotFound, "No hay empleados para eliminar")

	rec := app.do(http.MethodGet, "/api/employees-delete", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":4,"name":"Dora","salary":"900"}]`, rec.Body.String())
	require.NoError(t, app.mock.ExpectationsWereMet())
}

func TestGetEmployee(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
		WithArgs("7").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(7), "Ana", decimal.RequireFromString("1500.50")))

	rec := app.do(http.MethodGet, "/api/employees/7", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"name":"Ana","salary":"1500.5"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.NoError(t, app.mock.ExpectationsWereMet())
}

func TestGetEmployee_NeverCreated(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
		WithArgs("999").
		WillReturnRows(pgxmock.NewRows(columns))

	assertMessage(t, app.do(http.MethodGet, "/api/employees/999", ""), http.StatusNotFound, "Empleado no encontrado")
	require.NoError(t, app.mock.ExpectationsWereMet())
}

func TestCreateEmployee(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectQuery(regexp.QuoteMeta(createQuery)).
		WithArgs("Carla", decimal.RequireFromString("1800.25")).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(12)))

	rec := app.do(http.MethodPost, "/api/employees", `{"name":"Carla","salary":1800.25}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":12,"name":"Carla","salary":"1800.25"}`, rec.Body.String())
	require.NoError(t, app.mock.ExpectationsWereMet())
}

func TestCreateEmployee_MissingFieldsNeverWrites(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"name absent":   `{"salary":1000}`,
		"salary absent": `{"name":"Ana"}`,
		"both absent":   `{}`,
		"empty name":    `{"name":"","salary":1000}`,
		"zero salary":   `{"name":"Ana","salary":0}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app := newTestApp(t)

			rec := app.do(http.MethodPost, "/api/employees", body)

			assertMessage(t, rec, http.StatusBadRequest, "Nombre y salario son requeridos")
			require.NoError(t, app.mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateEmployee_MergeKeepsOmittedFields(t *testing.T) {
	t.Parallel()

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		t.Run(method+" salary only", func(t *testing.T) {
			t.Parallel()

			app := newTestApp(t)
			app.mock.ExpectExec(regexp.QuoteMeta(updateQuery)).
				WithArgs((*string)(nil), decimalPtr{decimal.NewFromInt(3000)}, "5").
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			app.mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
				WithArgs("5").
				WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(5), "Ana", decimal.NewFromInt(3000)))

			rec := app.do(method, "/api/employees/5", `{"salary":3000}`)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"id":5,"name":"Ana","salary":"3000"}`, rec.Body.String())
			require.NoError(t, app.mock.ExpectationsWereMet())
		})

		t.Run(method+" name only", func(t *testing.T) {
			t.Parallel()

			app := newTestApp(t)
			app.mock.ExpectExec(regexp.QuoteMeta(updateQuery)).
				WithArgs(strPtr("Bea"), (*decimal.Decimal)(nil), "5").
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			app.mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
				WithArgs("5").
				WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(5), "Bea", decimal.NewFromInt(1200)))

			rec := app.do(method, "/api/employees/5", `{"name":"Bea"}`)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"id":5,"name":"Bea","salary":"1200"}`, rec.Body.String())
			require.NoError(t, app.mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateEmployee_PayloadNotSharedBetweenRequests(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectExec(regexp.QuoteMeta(updateQuery)).
		WithArgs((*string)(nil), decimalPtr{decimal.NewFromInt(5000)}, "1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	app.mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
		WithArgs("1").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(1), "Ana", decimal.NewFromInt(5000)))
	app.mock.ExpectExec(regexp.QuoteMeta(updateQuery)).
		WithArgs(strPtr("Bea"), (*decimal.Decimal)(nil), "1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	app.mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
		WithArgs("1").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(1), "Bea", decimal.NewFromInt(5000)))

	assert.Equal(t, http.StatusOK, app.do(http.MethodPatch, "/api/employees/1", `{"salary":5000}`).Code)
	assert.Equal(t, http.StatusOK, app.do(http.MethodPatch, "/api/employees/1", `{"name":"Bea"}`).Code)
	require.NoError(t, app.mock.ExpectationsWereMet())
}

func TestUpdateEmployee_NoFields(t *testing.T) {
	t.Parallel()

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		app := newTestApp(t)

		rec := app.do(method, "/api/employees/5", `{}`)

		assertMessage(t, rec, http.StatusBadRequest, "Se requiere al menos un campo para actualizar")
		require.NoError(t, app.mock.ExpectationsWereMet())
	}
}

func TestUpdateEmployee_NotFound(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectExec(regexp.QuoteMeta(updateQuery)).
		WithArgs(strPtr("Bea"), (*decimal.Decimal)(nil), "77").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assertMessage(t, app.do(http.MethodPut, "/api/employees/77", `{"name":"Bea"}`), http.StatusNotFound, "Empleado no encontrado")
	require.NoError(t, app.mock.ExpectationsWereMet())
}

func TestUpdateEmployee_DeletedBeforeReadBack(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectExec(regexp.QuoteMeta(updateQuery)).
		WithArgs(strPtr("Bea"), (*decimal.Decimal)(nil), "5").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	app.mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
		WithArgs("5").
		WillReturnRows(pgxmock.NewRows(columns))

	assertMessage(t, app.do(http.MethodPatch, "/api/employees/5", `{"name":"Bea"}`),
		http.StatusNotFound, "Empleado no encontrado tras actualizar")
	require.NoError(t, app.mock.ExpectationsWereMet())
}

func TestDeleteEmployee_ThenGetIsNotFound(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).
		WithArgs("3").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	app.mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
		WithArgs("3").
		WillReturnRows(pgxmock.NewRows(columns))
	app.mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).
		WithArgs("3").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assertMessage(t, app.do(http.MethodDelete, "/api/employees/3", ""), http.StatusOK, "Empleado eliminado correctamente")
	assertMessage(t, app.do(http.MethodGet, "/api/employees/3", ""), http.StatusNotFound, "Empleado no encontrado")
	assertMessage(t, app.do(http.MethodDelete, "/api/employees/3", ""), http.StatusNotFound, "Empleado no encontrado")
	require.NoError(t, app.mock.ExpectationsWereMet())
}

func TestUnmatchedRoutes(t *testing.T) {
	t.Parallel()

	cases := []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/api"},
		{http.MethodGet, "/api/employees/1/extra"},
		{http.MethodDelete, "/api/employees"},
		{http.MethodPost, "/api/employees/1"},
		{http.MethodPost, "/api/employees-delete"},
		{http.MethodPut, "/api/employees"},
		{http.MethodOptions, "/nope"},
		{http.MethodOptions, "/api/employees-delete"},
		{http.MethodOptions, "/api/employees/1"},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			t.Parallel()

			app := newTestApp(t)
			rec := app.do(tc.method, tc.path, "")

			assertMessage(t, rec, http.StatusNotFound, "endpoint Not found")
			require.NoError(t, app.mock.ExpectationsWereMet())
		})
	}
}

func TestCORSPreflightStillAnswered(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/employees", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	app.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestBindFailuresUseOperationMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		method      string
		path        string
		body        string
		contentType string
		message     string
	}{
		{
			name: "create without content type", method: http.MethodPost, path: "/api/employees",
			body: `{"name":"Ana","salary":10}`, message: "Nombre y salario son requeridos",
		},
		{
			name: "create with numeric name", method: http.MethodPost, path: "/api/employees",
			body: `{"name":123,"salary":10}`, contentType: echo.MIMEApplicationJSON, message: "Nombre y salario son requeridos",
		},
		{
			name: "create with non-numeric salary", method: http.MethodPost, path: "/api/employees",
			body: `{"name":"Ana","salary":"abc"}`, contentType: echo.MIMEApplicationJSON, message: "Nombre y salario son requeridos",
		},
		{
			name: "update without content type", method: http.MethodPut, path: "/api/employees/1",
			body: `{"name":"Ana"}`, message: "Se requiere al menos un campo para actualizar",
		},
		{
			name: "update with numeric name", method: http.MethodPut, path: "/api/employees/1",
			body: `{"name":123}`, contentType: echo.MIMEApplicationJSON, message: "Se requiere al menos un campo para actualizar",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			app := newTestApp(t)

			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set(echo.HeaderContentType, tc.contentType)
			}
			rec := httptest.NewRecorder()
			app.echo.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"message":"`+tc.message+`"}`, rec.Body.String())
			require.NoError(t, app.mock.ExpectationsWereMet())
		})
	}
}

func TestCreateEmployee_StringZeroSalaryIsProvided(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectQuery(regexp.QuoteMeta(createQuery)).
		WithArgs("Ana", decimalValue{decimal.Zero}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(13)))

	rec := app.do(http.MethodPost, "/api/employees", `{"name":"Ana","salary":"0"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":13,"name":"Ana","salary":"0"}`, rec.Body.String())
	require.NoError(t, app.mock.ExpectationsWereMet())
}

func TestPersistenceFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		method  string
		path    string
		body    string
		expect  func(m pgxmock.PgxPoolIface)
		message string
	}{
		{
			name: "list", method: http.MethodGet, path: "/api/employees",
			expect:  func(m pgxmock.PgxPoolIface) { m.ExpectQuery(regexp.QuoteMeta(listQuery)).WillReturnError(assert.AnError) },
			message: "Error al obtener empleados",
		},
		{
			name: "list for delete", method: http.MethodGet, path: "/api/employees-delete",
			expect:  func(m pgxmock.PgxPoolIface) { m.ExpectQuery(regexp.QuoteMeta(listQuery)).WillReturnError(assert.AnError) },
			message: "Error al obtener empleados para eliminar",
		},
		{
			name: "get", method: http.MethodGet, path: "/api/employees/1",
			expect:  func(m pgxmock.PgxPoolIface) { m.ExpectQuery(regexp.QuoteMeta(getQuery)).WillReturnError(assert.AnError) },
			message: "Error al obtener empleado",
		},
		{
			name: "create", method: http.MethodPost, path: "/api/employees", body: `{"name":"Ana","salary":10}`,
			expect:  func(m pgxmock.PgxPoolIface) { m.ExpectQuery(regexp.QuoteMeta(createQuery)).WillReturnError(assert.AnError) },
			message: "Error al crear empleado",
		},
		{
			name: "update", method: http.MethodPut, path: "/api/employees/1", body: `{"name":"Ana"}`,
			expect:  func(m pgxmock.PgxPoolIface) { m.ExpectExec(regexp.QuoteMeta(updateQuery)).WillReturnError(assert.AnError) },
			message: "Error al actualizar empleado",
		},
		{
			name: "update read back", method: http.MethodPatch, path: "/api/employees/1", body: `{"name":"Ana"}`,
			expect: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec(regexp.QuoteMeta(updateQuery)).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				m.ExpectQuery(regexp.QuoteMeta(getQuery)).WillReturnError(assert.AnError)
			},
			message: "Error al actualizar empleado",
		},
		{
			name: "delete", method: http.MethodDelete, path: "/api/employees/1",
			expect:  func(m pgxmock.PgxPoolIface) { m.ExpectExec(regexp.QuoteMeta(deleteQuery)).WillReturnError(assert.AnError) },
			message: "Error al borrar empleado",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			app := newTestApp(t)
			tc.expect(app.mock)

			rec := app.do(tc.method, tc.path, tc.body)

			assertMessage(t, rec, http.StatusInternalServerError, tc.message)
			assert.NotContains(t, rec.Body.String(), assert.AnError.Error())

			logs := app.logs.String()
			assert.Contains(t, logs, `"level":"error"`)
			assert.Contains(t, logs, assert.AnError.Error())
			require.NoError(t, app.mock.ExpectationsWereMet())
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.mock.ExpectQuery(regexp.QuoteMeta(listQuery)).WillReturnRows(pgxmock.NewRows(columns))

	app.do(http.MethodGet, "/api/employees", "")
	app.do(http.MethodGet, "/missing", "")

	rec := app.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `employees_http_requests_total{method="GET",route="/api/employees",status="404"} 1`)
	assert.Contains(t, body, `employees_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, body, `employees_db_query_duration_seconds_count{query_type="list_employees"} 1`)
}

func TestRateLimitedAPI(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	log := zerolog.Nop()
	cfg := config.Default()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 1

	s := server.NewWithDatabase(cfg, &log, nil, database.NewFromPool(mock, &log))
	e := router.NewRouter(s, handler.NewHandlers(s, service.NewServices(repository.NewRepositories(s))))

	mock.ExpectQuery(regexp.QuoteMeta(listQuery)).WillReturnRows(pgxmock.NewRows(columns))

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/employees", nil))
	assert.Equal(t, http.StatusNotFound, first.Code)

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/employees", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", second.Header().Get(errs.ErrorCodeHeader))

	// system routes are not limited
	status := httptest.NewRecorder()
	e.ServeHTTP(status, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, status.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}
