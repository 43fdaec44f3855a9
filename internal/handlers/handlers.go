package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"tessera/internal/cache"
	"tessera/internal/errors"
	"tessera/internal/external"
	"tessera/internal/models"
	"tessera/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handlers struct {
	services     *service.Services
	valkeyClient *cache.ValkeyClient
	provider     external.PaymentProvider
}

func NewHandlers(services *service.Services, valkeyClient *cache.ValkeyClient, provider external.PaymentProvider) *Handlers {
	return &Handlers{
		services:     services,
		valkeyClient: valkeyClient,
		provider:     provider,
	}
}

// Catalog handlers

// CreateEvent - POST /api/events
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.services.Catalog.CreateEvent(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to create event", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	c.JSON(http.StatusCreated, event)
}

// ListEvents - GET /api/events
func (h *Handlers) ListEvents(c *gin.Context) {
	query := c.Query("query")
	date := c.Query("date")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	if page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be >= 1"})
		return
	}
	if pageSize < 1 || pageSize > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be between 1 and 100"})
		return
	}

	events, err := h.services.Catalog.ListEvents(c.Request.Context(), query, date, page, pageSize)
	if err != nil {
		slog.Error("Failed to list events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}

	if events == nil {
		events = []models.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// GetEvent - GET /api/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	event, err := h.services.Catalog.GetEvent(c.Request.Context(), id)
	if err != nil {
		if err == errors.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		slog.Error("Failed to get event", "event_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get event"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// CreateTicketClass - POST /api/events/:id/classes
func (h *Handlers) CreateTicketClass(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req models.CreateTicketClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	class, err := h.services.Catalog.CreateTicketClass(c.Request.Context(), eventID, &req)
	if err != nil {
		if err == errors.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		slog.Error("Failed to create ticket class", "event_id", eventID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ticket class"})
		return
	}

	c.JSON(http.StatusCreated, class)
}

// ListTicketClasses - GET /api/events/:id/classes
func (h *Handlers) ListTicketClasses(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	classes, err := h.services.Catalog.ListTicketClasses(c.Request.Context(), eventID)
	if err != nil {
		slog.Error("Failed to list ticket classes", "event_id", eventID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ticket classes"})
		return
	}

	if classes == nil {
		classes = []models.TicketClass{}
	}
	c.JSON(http.StatusOK, classes)
}

// GetAvailability - GET /api/events/:id/availability
// Serves the short-lived cached snapshot when one exists; stale reads up
// to the cache TTL are acceptable here, the reservation path never trusts
// this number.
func (h *Handlers) GetAvailability(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if h.valkeyClient != nil {
		if rawJSON, err := h.valkeyClient.GetAvailabilityRaw(c.Request.Context(), eventID); err == nil {
			c.Data(http.StatusOK, "application/json", rawJSON)
			return
		}
	}

	availability, err := h.services.Catalog.Availability(c.Request.Context(), eventID)
	if err != nil {
		if err == errors.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		slog.Error("Failed to get availability", "event_id", eventID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get availability"})
		return
	}

	if availability == nil {
		availability = []models.ClassAvailability{}
	}

	if h.valkeyClient != nil {
		if err := h.valkeyClient.SetAvailability(c.Request.Context(), eventID, availability); err != nil {
			slog.Warn("Failed to cache availability", "event_id", eventID, "error", err)
		}
	}

	c.JSON(http.StatusOK, availability)
}
