package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/customer-analytics-api/logger"
	"github.com/kendall-kelly/customer-analytics-api/services"
)

// ClientMessage is one attributed text in a sentiment request
type ClientMessage struct {
	ClientID *uint  `json:"client_id"`
	Text     string `json:"text"`
}

// SentimentRequest is the body of POST /api/ai/sentiment. With neither list set, every
// stored message of the tenant is scored.
type SentimentRequest struct {
	TenantID           *uint           `json:"tenant_id"`
	Messages           []string        `json:"messages"`
	ClientMessagePairs []ClientMessage `json:"client_message_pairs"`
}

// SentimentResult is one scored text
type SentimentResult struct {
	ClientID *uint                   `json:"client_id,omitempty"`
	Text     string                  `json:"text"`
	Score    services.SentimentScore `json:"score"`
}

// Sentiment handles POST /api/ai/sentiment
func Sentiment(c *gin.Context) {
	var req SentimentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	tenantID, ok := resolveTenant(c, req.TenantID)
	if !ok {
		return
	}

	scorer := services.GetSentimentScorer()
	results := make([]SentimentResult, 0, len(req.Messages)+len(req.ClientMessagePairs))
	for _, text := range req.Messages {
		results = append(results, SentimentResult{Text: text, Score: scorer.Score(text)})
	}
	for _, pair := range req.ClientMessagePairs {
		results = append(results, SentimentResult{ClientID: pair.ClientID, Text: pair.Text, Score: scorer.Score(pair.Text)})
	}

	if len(req.Messages) == 0 && len(req.ClientMessagePairs) == 0 {
		store, ok := recordStore(c)
		if !ok {
			return
		}
		for _, m := range store.Messages(tenantID) {
			clientID := m.ClientID
			results = append(results, SentimentResult{ClientID: &clientID, Text: m.Content, Score: scorer.Score(m.Content)})
		}
	}

	logger.L().Info("sentiment computed", "tenant_id", tenantID, "texts", len(results))
	c.JSON(http.StatusOK, gin.H{"sentiments": results, "count": len(results)})
}
