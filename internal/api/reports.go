package api

import (
	"bytes"
	"embed"
	"errors"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/illegalcall/esgtracker/internal/models"
	"github.com/illegalcall/esgtracker/internal/storage"
)

const (
	defaultReportsLimit = 20
	maxReportsLimit     = 100
)

//go:embed templates/*.html
var templateFS embed.FS

var exportTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html"))

var (
	errReportNotFound = errors.New("report not found")
	errUnauthorized   = errors.New("unauthorized")
)

func (s *Server) handleListReports(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	limit := c.QueryInt("limit", defaultReportsLimit)
	if limit <= 0 || limit > maxReportsLimit {
		limit = defaultReportsLimit
	}

	reports, err := s.store.ListReports(c.UserContext(), user.UserID, limit)
	if err != nil {
		s.logger.Error("Error fetching reports", "user_id", user.UserID, "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to fetch reports")
	}
	return c.JSON(fiber.Map{"reports": reports})
}

func (s *Server) handleGetReport(c *fiber.Ctx) error {
	r, err := s.loadReport(c)
	if err != nil {
		return s.reportError(c, err)
	}
	return c.JSON(models.ReportResponse{
		Report:      r.ESGReport(),
		CompanyName: r.CompanyName,
		Industry:    r.Industry,
	})
}

// handleExportReport renders the report as a printable HTML page.
func (s *Server) handleExportReport(c *fiber.Ctx) error {
	r, err := s.loadReport(c)
	if err != nil {
		return s.reportError(c, err)
	}

	var buf bytes.Buffer
	err = exportTemplate.Execute(&buf, map[string]interface{}{
		"CompanyName": r.CompanyName,
		"Industry":    r.Industry,
		"Report":      r.ESGReport(),
	})
	if err != nil {
		s.logger.Error("Failed to render report export", "report_id", r.ID, "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to export report")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

// loadReport reads the caller's report through the cache. Reports of other
// users are indistinguishable from missing ones.
func (s *Server) loadReport(c *fiber.Ctx) (*models.Report, error) {
	user, ok := currentUser(c)
	if !ok {
		return nil, errUnauthorized
	}
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return nil, errReportNotFound
	}

	ctx := c.UserContext()
	if s.reportCache != nil {
		cached, err := s.reportCache.Get(ctx, user.UserID, id)
		if err != nil {
			s.logger.Warn("Report cache read failed", "report_id", id, "error", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	r, err := s.store.GetReport(ctx, user.UserID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errReportNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.reportCache != nil {
		if err := s.reportCache.Set(ctx, r); err != nil {
			s.logger.Warn("Failed to cache report", "report_id", id, "error", err)
		}
	}
	return r, nil
}

func (s *Server) reportError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errUnauthorized):
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, errReportNotFound):
		return errorResponse(c, fiber.StatusNotFound, "Report not found")
	default:
		s.logger.Error("Failed to fetch report", "id", c.Params("id"), "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to fetch report")
	}
}
