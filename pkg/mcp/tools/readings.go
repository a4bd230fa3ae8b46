package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/logging"
	"github.com/tarotlab/tarot-engine/pkg/models"
	"github.com/tarotlab/tarot-engine/pkg/services"
)

// ReadingToolDeps holds the services the reading tools call into.
// Daily may be nil, in which case get_daily_card is not registered.
type ReadingToolDeps struct {
	Catalog  *deck.Catalog
	Readings services.ReadingService
	Daily    services.DailyCardService
	Logger   *zap.Logger
}

type spreadSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	CardCount   int      `json:"card_count"`
	IsPremium   bool     `json:"is_premium"`
	Positions   []string `json:"positions"`
}

type listSpreadsResult struct {
	Spreads []spreadSummary `json:"spreads"`
	Count   int             `json:"count"`
}

type cardSummary struct {
	Position    int    `json:"position"`
	PositionFor string `json:"position_name"`
	CardID      string `json:"card_id"`
	Card        string `json:"card"`
	Orientation string `json:"orientation"`
	Meaning     string `json:"meaning,omitempty"`
}

type readingSummary struct {
	ID             string              `json:"id"`
	SpreadID       string              `json:"spread_id"`
	Topic          string              `json:"topic"`
	Question       string              `json:"question,omitempty"`
	Cards          []cardSummary       `json:"cards"`
	OverallMessage string              `json:"overall_message"`
	AIText         string              `json:"ai_text,omitempty"`
	Source         string              `json:"source"`
	Patterns       []string            `json:"patterns,omitempty"`
	Probability    *models.Probability `json:"probability,omitempty"`
	CreatedAt      string              `json:"created_at"`
}

func summarizeReading(r *models.Reading) readingSummary {
	out := readingSummary{
		ID:             r.ID.String(),
		SpreadID:       r.SpreadID,
		Topic:          string(r.Topic),
		Question:       r.Question,
		OverallMessage: r.OverallMessage,
		AIText:         r.AIText,
		Source:         r.Source,
		Probability:    r.Probability,
		CreatedAt:      r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Cards:          make([]cardSummary, 0, len(r.Cards)),
	}
	for _, dc := range r.Cards {
		c := cardSummary{
			Position:    dc.Position.Position,
			PositionFor: dc.Position.Name,
			CardID:      dc.Card.ID,
			Card:        dc.Card.DisplayName(),
			Orientation: string(dc.Orientation),
		}
		if dc.Interpretation != nil {
			c.Meaning = dc.Interpretation.Text()
		}
		out.Cards = append(out.Cards, c)
	}
	for _, p := range r.Patterns {
		out.Patterns = append(out.Patterns, p.Description)
	}
	return out
}

// RegisterReadingTools adds the tarot tools to the MCP server.
func RegisterReadingTools(s *server.MCPServer, deps *ReadingToolDeps) {
	registerListSpreadsTool(s, deps)
	registerDrawReadingTool(s, deps)
	registerGetReadingTool(s, deps)
	if deps.Daily != nil {
		registerDailyCardTool(s, deps)
	}
}

func topicNames() []string {
	names := make([]string, len(models.Topics))
	for i, t := range models.Topics {
		names[i] = string(t)
	}
	return names
}

func registerListSpreadsTool(s *server.MCPServer, deps *ReadingToolDeps) {
	tool := mcp.NewTool(
		"list_spreads",
		mcp.WithDescription("Lists the tarot spreads available for readings, with their positions and whether they require premium access."),
		mcp.WithString("topic",
			mcp.Description("Only return spreads usable for this topic"),
			mcp.Enum(topicNames()...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var topic models.Topic
		if raw := trimString(req.GetString("topic", "")); raw != "" {
			t, err := models.ParseTopic(raw)
			if err != nil {
				return NewErrorResultWithDetails("invalid_topic", err.Error(),
					map[string]any{"valid_topics": topicNames()}), nil
			}
			topic = t
		}

		result := listSpreadsResult{Spreads: []spreadSummary{}}
		for _, sp := range deps.Catalog.Spreads(ctx) {
			if topic != "" && !sp.SupportsTopic(topic) {
				continue
			}
			summary := spreadSummary{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				CardCount:   sp.CardCount,
				IsPremium:   sp.IsPremium,
			}
			for _, p := range sp.Positions {
				summary.Positions = append(summary.Positions, p.Name)
			}
			result.Spreads = append(result.Spreads, summary)
		}
		result.Count = len(result.Spreads)
		return jsonResult(result)
	})
}

func registerDrawReadingTool(s *server.MCPServer, deps *ReadingToolDeps) {
	tool := mcp.NewTool(
		"draw_reading",
		mcp.WithDescription("Draws cards for a spread and returns the interpreted reading. "+
			"Premium spreads and AI-written interpretations require premium=true."),
		mcp.WithString("spread_id",
			mcp.Required(),
			mcp.Description("Spread to deal, as returned by list_spreads"),
		),
		mcp.WithString("topic",
			mcp.Description("Life area the reading focuses on (default general)"),
			mcp.Enum(topicNames()...),
		),
		mcp.WithString("question",
			mcp.Description("Optional question the reading should address"),
		),
		mcp.WithBoolean("premium",
			mcp.Description("Whether the requester has premium access"),
			mcp.DefaultBool(false),
		),
		mcp.WithString("user_id",
			mcp.Description("Optional user the reading is stored for"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		spreadID, err := req.RequireString("spread_id")
		if err != nil || trimString(spreadID) == "" {
			return NewErrorResult("invalid_parameters", "spread_id is required"), nil
		}

		createReq := services.CreateReadingRequest{
			SpreadID:  trimString(spreadID),
			Topic:     trimString(req.GetString("topic", "")),
			Question:  req.GetString("question", ""),
			IsPremium: req.GetBool("premium", false),
		}
		if uid := trimString(req.GetString("user_id", "")); uid != "" {
			createReq.UserID = &uid
		}

		reading, err := deps.Readings.CreateReading(ctx, createReq)
		if err != nil {
			if errors.Is(err, apperrors.ErrSpreadNotFound) {
				return NewErrorResultWithDetails("spread_not_found",
					fmt.Sprintf("no spread with id %q", createReq.SpreadID),
					map[string]any{"valid_spreads": spreadIDs(ctx, deps.Catalog)}), nil
			}
			if code := ServiceErrorCode(err); code != "" {
				deps.Logger.Debug("draw_reading rejected",
					zap.String("code", code),
					zap.String("question", logging.SanitizeQuestion(createReq.Question)))
			}
			return serviceErrorResult(fmt.Errorf("failed to draw reading: %w", err))
		}

		return jsonResult(summarizeReading(reading))
	})
}

func registerGetReadingTool(s *server.MCPServer, deps *ReadingToolDeps) {
	tool := mcp.NewTool(
		"get_reading",
		mcp.WithDescription("Returns a previously drawn reading by id."),
		mcp.WithString("reading_id",
			mcp.Required(),
			mcp.Description("Reading id returned by draw_reading"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("reading_id")
		if err != nil {
			return NewErrorResult("invalid_parameters", "reading_id is required"), nil
		}
		id, err := uuid.Parse(trimString(raw))
		if err != nil {
			return NewErrorResult("invalid_reading_id", "reading_id must be a UUID"), nil
		}

		reading, err := deps.Readings.GetReading(ctx, id)
		if err != nil {
			return serviceErrorResult(err)
		}
		return jsonResult(summarizeReading(reading))
	})
}

type dailyCardResult struct {
	UserID      string `json:"user_id"`
	Date        string `json:"date"`
	CardID      string `json:"card_id"`
	Card        string `json:"card"`
	Orientation string `json:"orientation"`
	Message     string `json:"message"`
}

func registerDailyCardTool(s *server.MCPServer, deps *ReadingToolDeps) {
	tool := mcp.NewTool(
		"get_daily_card",
		mcp.WithDescription("Returns the user's card of the day, drawing it on first request."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("User the card belongs to"),
		),
		mcp.WithString("date",
			mcp.Description("Day in YYYY-MM-DD (default today, UTC)"),
		),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uid, err := req.RequireString("user_id")
		if err != nil || trimString(uid) == "" {
			return NewErrorResult("invalid_parameters", "user_id is required"), nil
		}

		card, err := deps.Daily.GetDailyCard(ctx, trimString(uid), trimString(req.GetString("date", "")))
		if err != nil {
			return serviceErrorResult(err)
		}
		return jsonResult(dailyCardResult{
			UserID:      card.UserID,
			Date:        card.Date,
			CardID:      card.Card.ID,
			Card:        card.Card.DisplayName(),
			Orientation: string(card.Orientation),
			Message:     card.Message,
		})
	})
}

func spreadIDs(ctx context.Context, catalog *deck.Catalog) []string {
	spreads := catalog.Spreads(ctx)
	ids := make([]string, len(spreads))
	for i, sp := range spreads {
		ids[i] = sp.ID
	}
	return ids
}
