package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/org-hierarchy/internal/api/dto"
	"github.com/spec-kit/org-hierarchy/internal/auth"
	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/importfile"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	"github.com/spec-kit/org-hierarchy/internal/service"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var errImportRejected = errors.New("import rejected")

// ImportsHandler exposes bulk employee imports.
type ImportsHandler struct {
	uow          *service.UnitOfWork
	imports      *service.ImportService
	maxRows      int
	maxFileBytes int
}

// NewImportsHandler constructs handler. Zero limits disable the checks.
func NewImportsHandler(uow *service.UnitOfWork, imports *service.ImportService, maxRows, maxFileBytes int) *ImportsHandler {
	return &ImportsHandler{uow: uow, imports: imports, maxRows: maxRows, maxFileBytes: maxFileBytes}
}

// ImportEmployees handles POST /imports/employees. The body is either a JSON
// row list or a multipart upload with a CSV or XLSX "file" field. A rejected
// batch answers 422 with the per-row report.
func (h *ImportsHandler) ImportEmployees(c *fiber.Ctx) error {
	rows, dryRun, err := h.readRows(c)
	if err != nil {
		return err
	}
	dryRun = dryRun || parseBoolQuery(c, "dry_run", false)

	var result *service.ImportResult
	err = h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		result, err = h.imports.ImportEmployees(c.UserContext(), tx, auth.ActorID(c), rows, service.ImportOptions{
			DryRun:  dryRun,
			MaxRows: h.maxRows,
		})
		if err == nil && result.Failed() {
			return errImportRejected
		}
		return err
	})
	switch {
	case errors.Is(err, errImportRejected):
		return c.Status(http.StatusUnprocessableEntity).JSON(data(result))
	case err != nil:
		return err
	case dryRun:
		return c.JSON(data(result))
	default:
		return c.Status(http.StatusCreated).JSON(data(result))
	}
}

// Template handles GET /imports/template.
func (h *ImportsHandler) Template(c *fiber.Ctx) error {
	f, err := importfile.Template()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Attachment("employee_import_template.xlsx")
	return c.Send(buf.Bytes())
}

func (h *ImportsHandler) readRows(c *fiber.Ctx) ([]domain.ImportRow, bool, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		var req dto.ImportRequest
		if err := parseBody(c, &req); err != nil {
			return nil, false, err
		}
		return req.ToImportRows(), req.DryRun, nil
	}

	header, err := c.FormFile("file")
	if err != nil {
		return nil, false, apperrors.NewValidationError("file is required", map[string]any{"file": "is required"})
	}
	if h.maxFileBytes > 0 && header.Size > int64(h.maxFileBytes) {
		return nil, false, apperrors.NewValidationError("import file is too large", map[string]any{
			"max_bytes": h.maxFileBytes,
			"bytes":     header.Size,
		})
	}
	file, err := header.Open()
	if err != nil {
		return nil, false, apperrors.NewInternalError(err)
	}
	defer file.Close()

	rows, err := importfile.Decode(header.Filename, file)
	if err != nil {
		return nil, false, err
	}
	dryRun := false
	if v := c.FormValue("dry_run"); v != "" {
		dryRun = v == "true" || v == "1"
	}
	return rows, dryRun, nil
}
