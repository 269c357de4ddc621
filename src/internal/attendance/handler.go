package attendance

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"smartroll-attendance-svc/src/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	CheckIn(c *gin.Context)
	RouterPush(c *gin.Context)
	GetStatus(c *gin.Context)
	GetSessionLogs(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service Service
}

func NewHandler(cfg *config.Configuration, service Service) Handler {
	return &handler{
		config:  cfg,
		service: service,
	}
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}

func (h *handler) CheckIn(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req CheckInRequest
	if err := bindJSON(c, &req); err != nil {
		logrus.WithError(err).Warn("Invalid check-in body")
		sendErrorResponse(c, http.StatusBadRequest, CodeInvalidRequest, "request body must be a JSON object")
		return
	}
	req.PeerAddress = c.RemoteIP()

	logrus.WithFields(logrus.Fields{
		"session_id":     req.SessionID,
		"device_address": req.DeviceAddress,
		"peer_address":   req.PeerAddress,
	}).Info("Check-in request received")

	result, err := h.service.CheckIn(ctx, &req)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *handler) RouterPush(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req RouterPushRequest
	if err := bindJSON(c, &req); err != nil {
		logrus.WithError(err).Warn("Invalid router push body")
		sendErrorResponse(c, http.StatusBadRequest, CodeInvalidRequest, "request body must be a JSON object")
		return
	}

	logrus.WithFields(logrus.Fields{
		"session_id":   req.SessionID,
		"device_count": len(req.DeviceList),
	}).Info("Router push request received")

	result, err := h.service.RouterPush(ctx, &req)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *handler) GetStatus(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	deviceAddress := c.Query("device_address")
	sessionID := c.Query("session_id")

	logrus.WithFields(logrus.Fields{
		"session_id":     sessionID,
		"device_address": deviceAddress,
	}).Info("Status request received")

	result, err := h.service.GetStatus(ctx, deviceAddress, sessionID)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *handler) GetSessionLogs(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	sessionID := c.Param("session_id")
	logrus.WithField("session_id", sessionID).Info("Session log request received")

	entries, err := h.service.ListLogs(ctx, sessionID)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// bindJSON treats an empty body as an empty object so absent fields are
// reported as missing_fields rather than a malformed request.
func bindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
