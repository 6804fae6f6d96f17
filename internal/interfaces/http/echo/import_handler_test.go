package echo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/account-admin/internal/application/account"
	httpecho "github.com/mohammadpnp/account-admin/internal/interfaces/http/echo"
)

type fakePreview struct {
	output app.PreviewAccountImportOutput
	err    error
}

func (f *fakePreview) Execute(ctx context.Context, in app.ImportAccountsInput) (app.PreviewAccountImportOutput, error) {
	return f.output, f.err
}

type fakeStart struct {
	output app.StartAccountImportOutput
	err    error
	got    app.ImportAccountsInput
}

func (f *fakeStart) Execute(ctx context.Context, in app.ImportAccountsInput) (app.StartAccountImportOutput, error) {
	f.got = in
	if f.err != nil {
		return app.StartAccountImportOutput{}, f.err
	}
	return f.output, nil
}

type fakeStatus struct {
	output app.GetUploadStatusOutput
	err    error
}

func (f *fakeStatus) Execute(ctx context.Context, uploadID string) (app.GetUploadStatusOutput, error) {
	return f.output, f.err
}

func newServer(start *fakeStart, preview *fakePreview, status *fakeStatus, accounts *httpecho.AccountHandler) *echo.Echo {
	e := echo.New()
	e.Validator = httpecho.NewValidator()
	if start == nil {
		start = &fakeStart{}
	}
	if preview == nil {
		preview = &fakePreview{}
	}
	if status == nil {
		status = &fakeStatus{}
	}
	if accounts == nil {
		accounts = httpecho.NewAccountHandler(&fakeList{}, &fakeDeleteOne{}, &fakeDeleteAll{})
	}
	httpecho.RegisterRoutes(e, httpecho.NewImportHandler(preview, start, status, 1024), accounts, "s3cret")
	return e
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	return got
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	body, ok := decodeBody(t, rec)["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error payload, got %s", rec.Body.String())
	}
	code, _ := body["code"].(string)
	return code
}

func TestImportHandlerSourcePathAccepted(t *testing.T) {
	t.Parallel()

	start := &fakeStart{output: app.StartAccountImportOutput{UploadID: "run-1", Status: "idle", Total: 2}}
	e := newServer(start, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/accounts", bytes.NewReader([]byte(`{"source_path":"accounts.json"}`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	data, ok := decodeBody(t, rec)["data"].(map[string]any)
	if !ok || data["upload_id"] != "run-1" {
		t.Fatalf("unexpected data payload: %s", rec.Body.String())
	}
	if start.got.SourcePath != "accounts.json" {
		t.Fatalf("unexpected source path: %q", start.got.SourcePath)
	}
}

func TestImportHandlerMultipartUpload(t *testing.T) {
	t.Parallel()

	start := &fakeStart{output: app.StartAccountImportOutput{UploadID: "run-1"}}
	e := newServer(start, nil, nil, nil)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "accounts.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("account_id,uid,password\nA1,U1,P1\n"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/accounts", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if start.got.Filename != "accounts.csv" || len(start.got.Content) == 0 {
		t.Fatalf("unexpected input: %+v", start.got)
	}
}

func TestImportHandlerMultipartTooLarge(t *testing.T) {
	t.Parallel()

	e := newServer(nil, nil, nil, nil)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, _ := w.CreateFormFile("file", "accounts.json")
	_, _ = part.Write(bytes.Repeat([]byte("x"), 2048))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/accounts", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestImportHandlerMissingSourcePath(t *testing.T) {
	t.Parallel()

	e := newServer(nil, nil, nil, nil)

	for _, raw := range []string{`{}`, `{"source_path":`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/accounts", bytes.NewReader([]byte(raw)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", raw, rec.Code)
		}
	}
}

func TestImportHandlerErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{err: &app.ParseError{Kind: app.ErrMalformedDocument}, status: http.StatusUnprocessableEntity, code: "malformed_document"},
		{err: &app.ParseError{Kind: app.ErrUnrecognizedShape}, status: http.StatusUnprocessableEntity, code: "unrecognized_shape"},
		{err: &app.ParseError{Kind: app.ErrNoValidRecords}, status: http.StatusUnprocessableEntity, code: "no_valid_records"},
		{err: app.ErrInvalidImportSource, status: http.StatusBadRequest, code: "invalid_source"},
		{err: app.ErrReadImportSource, status: http.StatusBadRequest, code: "unreadable_source"},
		{err: app.ErrUploadInProgress, status: http.StatusConflict, code: "upload_in_progress"},
		{err: app.ErrStartUpload, status: http.StatusInternalServerError, code: "internal_error"},
	}

	for _, tc := range cases {
		e := newServer(&fakeStart{err: tc.err}, nil, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/accounts", bytes.NewReader([]byte(`{"source_path":"accounts.json"}`)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, req)

		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		if got := errorCode(t, rec); got != tc.code {
			t.Fatalf("%v: expected code %s, got %s", tc.err, tc.code, got)
		}
	}
}

func TestImportHandlerPreview(t *testing.T) {
	t.Parallel()

	preview := &fakePreview{output: app.PreviewAccountImportOutput{Format: "json", Accepted: 2, Dropped: 1}}
	e := newServer(nil, preview, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/accounts/preview", bytes.NewReader([]byte(`{"source_path":"accounts.json"}`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, _ := decodeBody(t, rec)["data"].(map[string]any)
	if data["accepted"] != float64(2) {
		t.Fatalf("unexpected preview: %s", rec.Body.String())
	}
}

func TestImportHandlerUploadStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status *fakeStatus
		code   int
	}{
		{status: &fakeStatus{output: app.GetUploadStatusOutput{ID: "run-1", State: "completed"}}, code: http.StatusOK},
		{status: &fakeStatus{err: app.ErrInvalidUploadID}, code: http.StatusBadRequest},
		{status: &fakeStatus{err: app.ErrUploadNotFound}, code: http.StatusNotFound},
	}

	for _, tc := range cases {
		e := newServer(nil, nil, tc.status, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/accounts/run-1", nil)
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, req)

		if rec.Code != tc.code {
			t.Fatalf("expected %d, got %d", tc.code, rec.Code)
		}
	}
}
