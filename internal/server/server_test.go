package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/timecheck/pkg/analyzer"
	"github.com/ccollicutt/timecheck/pkg/config"
	"github.com/ccollicutt/timecheck/pkg/output"
	"github.com/ccollicutt/timecheck/pkg/sheet/sheettest"
)

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	a, err := analyzer.NewAnalyzer(config.DefaultPipeline())
	require.NoError(t, err)

	s, err := New(cfg, a, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func violatingWorkbook(t *testing.T) []byte {
	return sheettest.Bytes(t, sheettest.Workbook{
		Header: sheettest.DefaultHeader(),
		Rows: [][]any{
			sheettest.TimeRow("2024.01.01 10:00:00", "2024.01.01 10:00:30"),
			sheettest.TimeRow("2024.01.01 11:00:00", "2024.01.01 11:05:00"),
		},
	})
}

func passingWorkbook(t *testing.T) []byte {
	return sheettest.Bytes(t, sheettest.Workbook{
		Header: sheettest.DefaultHeader(),
		Rows: [][]any{
			sheettest.TimeRow("2024.01.01 10:00:00", "2024.01.01 10:01:00"),
		},
	})
}

func uploadRequest(t *testing.T, path, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Time Violation Checker")
	assert.Contains(t, rec.Body.String(), `name="file"`)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestCheckPage_Violations(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "/check", "shift.xlsx", violatingWorkbook(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Violation(s) found!")
	assert.Contains(t, body, "Violated Row Numbers: [9]")
	assert.Contains(t, body, "Start Time")
	assert.Contains(t, body, "Time Difference (s)")
	assert.Contains(t, body, "2024-01-01 10:00:30")
	assert.Contains(t, body, "<td>30</td>")
}

func TestCheckPage_ViolatedRowList(t *testing.T) {
	s := newTestServer(t, nil)
	data := sheettest.Bytes(t, sheettest.Workbook{
		Header: sheettest.DefaultHeader(),
		Rows: [][]any{
			sheettest.TimeRow("2024.01.01 10:00:00", "2024.01.01 10:00:30"),
			sheettest.TimeRow("2024.01.01 11:00:00", "2024.01.01 11:00:10"),
		},
	})

	rec := serve(s, uploadRequest(t, "/check", "shift.xlsx", data))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Violated Row Numbers: [9, 10]")
}

func TestCheckPage_Pass(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "/check", "shift.xlsx", passingWorkbook(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No violations found!")
	assert.Contains(t, rec.Body.String(), "&gt;= 60 seconds")
}

func TestCheckPage_LoadError(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "/check", "shift.xlsx", []byte("not a workbook")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error reading the file:")
}

func TestCheckPage_WrongExtension(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "/check", "shift.csv", []byte("a,b\n")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid file type")
}

func TestCheckPage_MissingFile(t *testing.T) {
	s := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/check", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to read uploaded file")
}

func TestCheckPage_TooLarge(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.MaxUploadBytes = 512
	s := newTestServer(t, cfg)

	rec := serve(s, uploadRequest(t, "/check", "shift.xlsx", violatingWorkbook(t)))

	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error reading the file:")
}

func TestCheckAPI_Violations(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "/api/check", "shift.xlsx", violatingWorkbook(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report output.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, analyzer.StatusFail, report.Status)
	assert.Equal(t, []int{9}, report.ViolatedRows)
	require.Len(t, report.Violations, 1)
	assert.InDelta(t, 30, report.Violations[0].TimeDifference, 1e-9)
	assert.Equal(t, "shift.xlsx", report.Metadata.Source)
	assert.NotEmpty(t, report.Metadata.RunID)
}

func TestCheckAPI_Pass(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "/api/check", "shift.xlsx", passingWorkbook(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	var report output.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, analyzer.StatusPass, report.Status)
	assert.Empty(t, report.ViolatedRows)
}

func TestCheckAPI_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantKind output.ErrorKind
	}{
		{
			name:     "not a workbook",
			data:     []byte("hello"),
			wantKind: output.ErrorKindLoad,
		},
		{
			name: "missing sheet",
			data: sheettest.Bytes(t, sheettest.Workbook{
				Sheet:  "Other",
				Header: sheettest.DefaultHeader(),
			}),
			wantKind: output.ErrorKindLoad,
		},
		{
			name: "too few columns",
			data: sheettest.Bytes(t, sheettest.Workbook{
				Header: []any{"Begin", "Operator", "Line"},
				Rows:   [][]any{{"2024.01.01 10:00:00", "op", "L1"}},
			}),
			wantKind: output.ErrorKindSchema,
		},
	}

	s := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, uploadRequest(t, "/api/check", "shift.xlsx", tt.data))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var report output.ErrorReport
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.Equal(t, "error", report.Status)
			assert.Equal(t, tt.wantKind, report.Kind)
			assert.NotEmpty(t, report.Error)
		})
	}
}

func TestCheckAPI_Webhooks(t *testing.T) {
	var received atomic.Int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	cfg := config.DefaultConfig()
	cfg.Webhooks = []config.WebhookConfig{
		{Name: "violations", URL: hook.URL, Trigger: config.WebhookTriggerOnViolations},
		{Name: "muted", URL: hook.URL, Trigger: config.WebhookTriggerNever},
	}
	s := newTestServer(t, cfg)

	rec := serve(s, uploadRequest(t, "/api/check", "shift.xlsx", violatingWorkbook(t)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), received.Load())

	rec = serve(s, uploadRequest(t, "/api/check", "shift.xlsx", passingWorkbook(t)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), received.Load(), "pass report should not fire on_violations hook")
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/check", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
