package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/surplus/internal/backup"
	"github.com/nao1215/surplus/internal/database"
	"github.com/nao1215/surplus/internal/export"
	"github.com/nao1215/surplus/internal/model"
)

// indexPage is the data rendered by index.html.
type indexPage struct {
	Flashes []Flash
}

// devicesPage is the data rendered by devices.html.
type devicesPage struct {
	Flashes []Flash
	Devices []model.Device
	Query   string
	Count   int
}

func (s *Server) handleIndex(c *gin.Context) {
	flashes, err := popFlashes(c)
	if err != nil {
		s.fail(c, "failed to read flash notices", err)
		return
	}
	c.HTML(http.StatusOK, "index.html", indexPage{Flashes: flashes})
}

// handleAdd validates the form, stores the device and redirects.
// Validation failures go back to the form; success goes to the list.
func (s *Server) handleAdd(c *gin.Context) {
	device, err := model.NewDevice(
		c.PostForm("serial_number"),
		c.PostForm("tag_number"),
		c.PostForm("device_type"),
		s.now(),
	)
	if err != nil {
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			s.fail(c, "failed to build device", err)
			return
		}
		if err := addFlash(c, CategoryDanger, verr.Message); err != nil {
			s.fail(c, "failed to queue flash notice", err)
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	if _, err := s.store.Insert(c.Request.Context(), device); err != nil {
		s.fail(c, "failed to insert device", err)
		return
	}
	requestLog(s.logger, c).Info("device added",
		"id", device.ID,
		"serial_number", device.SerialNumber,
		"device_type", device.DeviceType,
	)

	if err := addFlash(c, CategorySuccess, device.DeviceType+" added successfully."); err != nil {
		s.fail(c, "failed to queue flash notice", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/devices")
}

// handleDevices lists devices newest first, filtered by the q parameter.
func (s *Server) handleDevices(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	devices, err := s.store.List(c.Request.Context(), database.ListOptions{
		Query: query,
		Order: database.OrderNewestFirst,
	})
	if err != nil {
		s.fail(c, "failed to list devices", err)
		return
	}

	flashes, err := popFlashes(c)
	if err != nil {
		s.fail(c, "failed to read flash notices", err)
		return
	}

	c.HTML(http.StatusOK, "devices.html", devicesPage{
		Flashes: flashes,
		Devices: devices,
		Query:   query,
		Count:   len(devices),
	})
}

// handleExport sends every device oldest first as a download.
// The format parameter selects csv (default), markdown or json.
func (s *Server) handleExport(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	devices, err := s.store.List(c.Request.Context(), database.ListOptions{
		Order: database.OrderOldestFirst,
	})
	if err != nil {
		s.fail(c, "failed to list devices", err)
		return
	}

	// Rendered into memory first so a failure still yields a clean 500.
	var buf bytes.Buffer
	writer, err := export.NewWriter(format, &buf)
	if err != nil {
		s.fail(c, "failed to create export writer", err)
		return
	}
	if err := writer.Write(devices); err != nil {
		s.fail(c, "failed to write export", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// handleBackup snapshots the application tree and sends the archive.
// The database WAL is checkpointed first so the archived devices.db holds every
// row on its own. A failed checkpoint is logged and the backup still runs; the
// archive then needs its -wal file to be complete.
func (s *Server) handleBackup(c *gin.Context) {
	if err := s.store.Checkpoint(c.Request.Context()); err != nil {
		requestLog(s.logger, c).Warn("database checkpoint failed before backup", "error", err)
	}

	result, err := s.archiver.Create(c.Request.Context())
	if err != nil {
		s.fail(c, "failed to create backup", err)
		return
	}
	requestLog(s.logger, c).Info("backup served", "name", result.Name, "files", len(result.Files))

	c.Header("Content-Type", backup.ContentType)
	c.FileAttachment(result.Path, result.Name)
}

// handleHealth reports liveness together with the stored device count.
func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()

	if err := s.store.Ping(ctx); err != nil {
		requestLog(s.logger, c).Error("database ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		requestLog(s.logger, c).Error("device count failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "devices": count})
}

// fail logs err and answers 500 without exposing details.
func (s *Server) fail(c *gin.Context, msg string, err error) {
	requestLog(s.logger, c).Error(msg, "error", err)
	c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
