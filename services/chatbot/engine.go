package chatbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"puretrack/errs"
	"puretrack/logger"
	shipmentModel "puretrack/models/shipment"
	settingsService "puretrack/services/settings"
	statusService "puretrack/services/status"
	"puretrack/types"

	"google.golang.org/genai"
	"gorm.io/gorm"
)

// snapshotLimit caps how many shipments are serialized into the model
// context. Keeps prompts bounded on large fleets.
const snapshotLimit = 100

const systemPrompt = `You are a logistics assistant for a shipment tracking system.
Answer questions about the shipments listed below. Timestamps are UTC.
Be concise and factual; when a shipment is not in the list, say so instead of guessing.
Health meaning: LATE = planned ETA already passed, AT_RISK = ETA within 5 days, ON_TRACK otherwise.`

// Chunk is one streamed piece of the assistant's answer. Err is set on the
// final chunk when generation failed mid-stream.
type Chunk struct {
	Text string
	Err  error
}

// Stream answers a question about the current shipments, emitting the reply
// incrementally. The returned channel is closed when generation finishes and
// must be drained by a single consumer. Cancelling ctx stops generation.
func Stream(ctx context.Context, db *gorm.DB, apiLog *logger.AsyncLogger, question string) (<-chan Chunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errs.Validationf("message is required")
	}

	cfg, err := settingsService.LoadAI(db)
	if err != nil {
		return nil, err
	}
	if cfg.Provider != "gemini" {
		return nil, errs.Validationf("unsupported AI provider: %s", cfg.Provider)
	}

	snapshot, err := buildSnapshot(db)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errs.Externalf("could not create AI client: %v", err)
	}

	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{Text: systemPrompt + "\n\n" + snapshot + "\n\nQuestion: " + question},
			},
		},
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		start := time.Now()
		var streamErr error

		for resp, err := range client.Models.GenerateContentStream(ctx, cfg.Model, contents, &genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.2)),
		}) {
			if err != nil {
				streamErr = err
				break
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case out <- Chunk{Text: text}:
			case <-ctx.Done():
				streamErr = ctx.Err()
			}
			if streamErr != nil {
				break
			}
		}

		if apiLog != nil {
			entry := types.ApiCallEntry{
				Provider:   "GEMINI",
				Endpoint:   cfg.Model,
				Method:     "STREAM",
				DurationMs: time.Since(start).Milliseconds(),
				CreatedAt:  time.Now(),
			}
			if streamErr != nil {
				entry.ErrorMessage = streamErr.Error()
			} else {
				entry.StatusCode = 200
			}
			apiLog.Log(entry)
		}

		if streamErr != nil {
			out <- Chunk{Err: errs.Externalf("AI generation failed: %v", streamErr)}
		}
	}()
	return out, nil
}

// buildSnapshot serializes the active shipment fleet into a compact table the
// model can reason over.
func buildSnapshot(db *gorm.DB) (string, error) {
	var shipments []shipmentModel.Shipment
	if err := db.Order("id DESC").Limit(snapshotLimit).Find(&shipments).Error; err != nil {
		return "", errs.Wrap(err, "load shipments for assistant")
	}

	now := time.Now().UTC()
	var b strings.Builder
	fmt.Fprintf(&b, "Shipments (%d most recent):\n", len(shipments))
	for _, s := range shipments {
		fmt.Fprintf(&b, "- %s | status=%s | health=%s", s.Reference, s.Status, statusService.Health(&s, now))
		if s.Customer != nil && *s.Customer != "" {
			fmt.Fprintf(&b, " | customer=%s", *s.Customer)
		}
		if s.Origin != nil && *s.Origin != "" {
			fmt.Fprintf(&b, " | origin=%s", *s.Origin)
		}
		if s.Destination != nil && *s.Destination != "" {
			fmt.Fprintf(&b, " | destination=%s", *s.Destination)
		}
		if s.PlannedETA != nil {
			fmt.Fprintf(&b, " | planned_eta=%s", s.PlannedETA.Format("2006-01-02"))
		}
		if s.Vessel != nil && *s.Vessel != "" {
			fmt.Fprintf(&b, " | vessel=%s", *s.Vessel)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
