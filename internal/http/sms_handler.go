package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageRouter es lo que el transporte necesita del router de conversación.
type MessageRouter interface {
	HandleMessage(ctx context.Context, senderID, text string) string
}

// SMSHandler expone el router por webhook de Twilio y por API JSON.
type SMSHandler struct {
	logger           *zap.Logger
	router           MessageRouter
	twilioAuthToken  string
	twilioWebhookURL string
}

func NewSMSHandler(logger *zap.Logger, router MessageRouter, twilioAuthToken, twilioWebhookURL string) *SMSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMSHandler{
		logger:           logger,
		router:           router,
		twilioAuthToken:  strings.TrimSpace(twilioAuthToken),
		twilioWebhookURL: strings.TrimSpace(twilioWebhookURL),
	}
}

// TwilioWebhook maneja POST /sms/twilio y responde TwiML.
func (h *SMSHandler) TwilioWebhook(c *gin.Context) {
	if h.twilioAuthToken != "" {
		webhookURL := h.twilioWebhookURL
		if webhookURL == "" {
			webhookURL = buildAbsoluteURL(c.Request)
		}
		if !validTwilioSignature(c.Request, h.twilioAuthToken, webhookURL) {
			h.logger.Warn("twilio signature rejected", zap.String("url", webhookURL))
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
	}

	inbound, err := parseTwilioInbound(c.Request)
	if err != nil {
		h.logger.Warn("invalid twilio webhook", zap.Error(err))
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	sender := NormalizeE164(inbound.From)
	if sender == "" {
		h.logger.Warn("twilio webhook without sender", zap.String("message_sid", inbound.MessageSid))
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	reply := h.router.HandleMessage(c.Request.Context(), sender, inbound.Body)
	c.XML(http.StatusOK, twimlResponse{Message: reply})
}

// PostMessage maneja POST /api/messages.
func (h *SMSHandler) PostMessage(c *gin.Context) {
	var req struct {
		SenderID string `json:"sender_id" binding:"required"`
		Text     string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sender := strings.TrimSpace(req.SenderID)
	if sender == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender_id required"})
		return
	}

	if claims, ok := GetAuthClaims(c); ok {
		h.logger.Debug("api message", zap.String("client_id", claims.ClientID))
	}
	reply := h.router.HandleMessage(c.Request.Context(), sender, req.Text)
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
