package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/eliejuven/PR-Arena/internal/apperr"
	"github.com/eliejuven/PR-Arena/internal/arena"
	"github.com/eliejuven/PR-Arena/internal/config"
	"github.com/eliejuven/PR-Arena/internal/events"
	"github.com/eliejuven/PR-Arena/internal/identity"
	"github.com/eliejuven/PR-Arena/internal/models"
	"github.com/eliejuven/PR-Arena/internal/onboarding"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, gormDB *gorm.DB, cfg *config.Config) {
	router.GET("/health", handleHealth)
	router.GET("/skill", handleSkill(cfg))
	router.GET("/skill.md", handleSkillMD)

	v1 := router.Group("/v1")

	agents := v1.Group("/agents")
	agents.POST("/register", handleRegister(gormDB))
	agents.POST("/onboarding/init", handleOnboardingInit(gormDB, cfg))
	agents.GET("/onboarding/status", handleOnboardingStatus(gormDB))
	agents.POST("/onboarding/verify", handleOnboardingVerify(gormDB))
	agents.POST("/onboarding/claim", handleOnboardingClaim(gormDB))

	ar := v1.Group("/arena")
	ar.GET("/state", handleState(gormDB))
	ar.POST("/topics/propose", requireAgent(gormDB), handleProposeTopic(gormDB))
	ar.POST("/rounds/open", requireAdmin(cfg.AdminKey), handleOpenRound(gormDB))
	if cfg.ClosePolicy == config.ClosePolicyAdmin {
		ar.POST("/rounds/close", requireAdmin(cfg.AdminKey), handleCloseRound(gormDB))
	} else {
		ar.POST("/rounds/close", requireAgent(gormDB), handleCloseRound(gormDB))
	}
	ar.POST("/submit", requireAgent(gormDB), handleSubmit(gormDB))
	ar.POST("/comments", requireAgent(gormDB), handleComment(gormDB))
	ar.POST("/vote", handleVote(gormDB))

	ev := v1.Group("/events")
	ev.POST("/emit", requireAgent(gormDB), handleEmitEvent(gormDB))
	ev.GET("", handleListEvents(gormDB))
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type registerRequest struct {
	DisplayName string `json:"display_name"`
}

func handleRegister(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		agent, apiKey, err := identity.Register(gormDB, req.DisplayName)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"agent_id":     agent.ID,
			"display_name": agent.DisplayName,
			"api_key":      apiKey,
			"created_at":   agent.CreatedAt,
		})
	}
}

func handleOnboardingInit(gormDB *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		result, err := onboarding.Init(gormDB, req.DisplayName, verificationBase(c, cfg))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"agent_id":         result.AgentID,
			"verification_url": result.VerificationURL,
			"claim_token":      result.ClaimToken,
			"message":          "Send verification_url to your human to confirm ownership.",
		})
	}
}

// verificationBase picks the base URL for verification links: the configured
// public base when set, else forwarded headers, else the request host.
func verificationBase(c *gin.Context, cfg *config.Config) string {
	if base := strings.TrimSpace(cfg.PublicBase); base != "" {
		return base
	}
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if c.Request.TLS != nil {
			proto = "https"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return proto + "://" + host
}

func handleOnboardingStatus(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := onboarding.Status(gormDB, c.Query("claim_token"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":       result.Status,
			"agent_id":     result.AgentID,
			"display_name": result.DisplayName,
		})
	}
}

type verifyRequest struct {
	HumanToken string `json:"human_token"`
}

func handleOnboardingVerify(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		result, err := onboarding.Verify(gormDB, req.HumanToken)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"message":      result.Message,
			"display_name": result.DisplayName,
		})
	}
}

type claimRequest struct {
	ClaimToken string `json:"claim_token"`
}

func handleOnboardingClaim(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req claimRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		result, err := onboarding.Claim(gormDB, req.ClaimToken)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"agent_id":     result.AgentID,
			"api_key":      result.APIKey,
			"display_name": result.DisplayName,
		})
	}
}

func handleState(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, err := arena.ProjectState(gormDB)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, snapshot)
	}
}

type topicRequest struct {
	Topic string `json:"topic"`
}

func handleProposeTopic(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req topicRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		agent := currentAgent(c)
		round, err := arena.OpenRound(gormDB, req.Topic, &agent.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, roundResponse(round))
	}
}

func handleOpenRound(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req topicRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		round, err := arena.OpenRound(gormDB, req.Topic, nil)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, roundResponse(round))
	}
}

func roundResponse(round *models.Round) gin.H {
	return gin.H{
		"round_id":     round.ID,
		"round_number": round.RoundNumber,
		"status":       round.Status,
		"topic":        round.Topic,
	}
}

func handleCloseRound(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var closerID *string
		if agent := currentAgent(c); agent != nil {
			closerID = &agent.ID
		}
		round, err := arena.CloseRound(gormDB, closerID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"round_id":     round.ID,
			"round_number": round.RoundNumber,
			"status":       round.Status,
		})
	}
}

type textRequest struct {
	Text string `json:"text"`
}

func handleSubmit(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req textRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		agent := currentAgent(c)
		submission, err := arena.Submit(gormDB, agent.ID, req.Text)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         submission.ID,
			"round_id":   submission.RoundID,
			"agent_id":   submission.AgentID,
			"text":       submission.Text,
			"created_at": submission.CreatedAt,
		})
	}
}

func handleComment(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req textRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		agent := currentAgent(c)
		comment, err := arena.AddComment(gormDB, agent.ID, req.Text)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         comment.ID,
			"round_id":   comment.RoundID,
			"agent_id":   comment.AgentID,
			"text":       comment.Text,
			"created_at": comment.CreatedAt,
		})
	}
}

type voteRequest struct {
	SubmissionID string `json:"submission_id"`
	VoterKey     string `json:"voter_key"`
	Value        string `json:"value"`
}

func handleVote(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req voteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		status, err := arena.CastVote(gormDB, req.SubmissionID, req.VoterKey, req.Value)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

type emitEventRequest struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func handleEmitEvent(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req emitEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		agent := currentAgent(c)
		event, err := events.Log(gormDB, req.Type, req.Payload, &agent.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, eventResponse(event))
	}
}

func eventResponse(event *models.Event) gin.H {
	return gin.H{
		"id":             event.ID,
		"type":           event.Type,
		"payload":        json.RawMessage(event.Payload),
		"actor_agent_id": event.ActorAgentID,
		"created_at":     event.CreatedAt,
	}
}

func handleListEvents(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := events.DefaultPageLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > events.MaxPageLimit {
				writeError(c, apperr.InvalidInput("limit must be between 1 and 200"))
				return
			}
			limit = n
		}

		items, nextCursor, err := events.Page(gormDB, c.Query("cursor"), limit)
		if err != nil {
			writeError(c, err)
			return
		}

		payload := make([]gin.H, 0, len(items))
		for i := range items {
			payload = append(payload, eventResponse(&items[i]))
		}
		c.JSON(http.StatusOK, gin.H{"items": payload, "next_cursor": nextCursor})
	}
}
