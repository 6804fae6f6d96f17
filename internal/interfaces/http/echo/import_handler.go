package echo

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/account-admin/internal/application/account"
)

type ImportHandler struct {
	preview  app.PreviewAccountImport
	start    app.StartAccountImport
	status   app.GetUploadStatus
	maxBytes int64
}

type importAccountsRequest struct {
	SourcePath string `json:"source_path" validate:"required"`
}

func NewImportHandler(preview app.PreviewAccountImport, start app.StartAccountImport, status app.GetUploadStatus, maxBytes int64) *ImportHandler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &ImportHandler{preview: preview, start: start, status: status, maxBytes: maxBytes}
}

func (h *ImportHandler) PreviewAccounts(c echo.Context) error {
	in, err := h.readInput(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", err.Error())
	}

	out, err := h.preview.Execute(c.Request().Context(), in)
	if err != nil {
		return importError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ImportHandler) ImportAccounts(c echo.Context) error {
	in, err := h.readInput(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", err.Error())
	}

	out, err := h.start.Execute(c.Request().Context(), in)
	if err != nil {
		return importError(c, err)
	}
	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *ImportHandler) GetUploadStatus(c echo.Context) error {
	out, err := h.status.Execute(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, app.ErrInvalidUploadID) {
			return errorJSON(c, http.StatusBadRequest, "invalid_id", "upload id must be a valid UUID")
		}
		if errors.Is(err, app.ErrUploadNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "upload not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal_error", "failed to get upload status")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

// readInput accepts either a multipart upload in field "file" or a JSON body
// naming a file under the import directory.
func (h *ImportHandler) readInput(c echo.Context) (app.ImportAccountsInput, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return app.ImportAccountsInput{}, errors.New("multipart field \"file\" is required")
		}
		if fileHeader.Size > h.maxBytes {
			return app.ImportAccountsInput{}, fmt.Errorf("file exceeds %d bytes", h.maxBytes)
		}

		f, err := fileHeader.Open()
		if err != nil {
			return app.ImportAccountsInput{}, errors.New("uploaded file cannot be read")
		}
		defer f.Close()

		content, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
		if err != nil {
			return app.ImportAccountsInput{}, errors.New("uploaded file cannot be read")
		}
		if len(content) == 0 {
			return app.ImportAccountsInput{}, errors.New("uploaded file is empty")
		}

		return app.ImportAccountsInput{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get(echo.HeaderContentType),
			Content:     content,
		}, nil
	}

	var req importAccountsRequest
	if err := c.Bind(&req); err != nil {
		return app.ImportAccountsInput{}, errors.New("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return app.ImportAccountsInput{}, errors.New("source_path is required")
	}
	return app.ImportAccountsInput{SourcePath: req.SourcePath}, nil
}

func importError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, app.ErrMalformedDocument):
		return errorJSON(c, http.StatusUnprocessableEntity, "malformed_document", err.Error())
	case errors.Is(err, app.ErrUnrecognizedShape):
		return errorJSON(c, http.StatusUnprocessableEntity, "unrecognized_shape", err.Error())
	case errors.Is(err, app.ErrNoValidRecords):
		return errorJSON(c, http.StatusUnprocessableEntity, "no_valid_records", err.Error())
	case errors.Is(err, app.ErrInvalidImportSource):
		return errorJSON(c, http.StatusBadRequest, "invalid_source", "source must be a .json, .csv or .tsv document within the size limit")
	case errors.Is(err, app.ErrReadImportSource):
		return errorJSON(c, http.StatusBadRequest, "unreadable_source", "source document cannot be read")
	case errors.Is(err, app.ErrUploadInProgress):
		return errorJSON(c, http.StatusConflict, "upload_in_progress", "this document is already being uploaded")
	default:
		return errorJSON(c, http.StatusInternalServerError, "internal_error", "failed to start upload")
	}
}
