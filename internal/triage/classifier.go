package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"carelattice.app/triage/common/llm"
	"carelattice.app/triage/common/logger"
	"carelattice.app/triage/internal/model"
)

// ErrEmptyDescription is returned when the injury description is empty after
// trimming. It is the classifier's only hard failure; every external-service
// failure is absorbed by the fallback heuristic.
var ErrEmptyDescription = errors.New("injury description is empty")

const classifierInstruction = `You are a triage assistant for a rehabilitation center.
Classify the severity of the injury described by the user.
Respond with a single JSON object and nothing else, matching this schema:

%s

Rules:
- severity is a number from 0 to 10.
- severityLevel is "low" (severity <= 5), "moderate" (5 < severity <= 8) or "extreme" (severity > 8).
- buddyTier is the caregiver tier required: "bronze" for low, "silver" for moderate, "gold" for extreme.
- urgency is "low", "medium" or "high".
- riskFactors lists concrete risks present in the description.
- recommendedCare is one short sentence of recommended care.`

// classificationResult is the wire shape the external service is asked to
// return. Field names follow the service contract, not this codebase.
type classificationResult struct {
	Severity        *float64 `json:"severity"`
	SeverityLevel   string   `json:"severityLevel"`
	RiskFactors     []string `json:"riskFactors"`
	RecommendedCare string   `json:"recommendedCare"`
	Urgency         string   `json:"urgency"`
	BuddyTier       string   `json:"buddyTier"`
}

var severityTokenRe = regexp.MustCompile(`(?i)"?severity"?\s*[:=]\s*"?([0-9]+(?:\.[0-9]+)?)`)

// Classifier obtains a severity assessment for a free-text injury
// description. The external classification service is treated as untrusted
// and best-effort: a strict parse is attempted first, then a regex salvage
// of the severity token, then a local keyword heuristic. Callers always get
// a valid assessment for non-empty input.
type Classifier struct {
	client  llm.Client
	timeout time.Duration
}

// NewClassifier builds a classifier. client may be nil, in which case every
// request is served by the local heuristic.
func NewClassifier(client llm.Client, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Classifier{client: client, timeout: timeout}
}

func (c *Classifier) Classify(ctx context.Context, description string) (*model.SeverityAssessment, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "triage.classifier"})

	if c.client == nil {
		slog.DebugContext(ctx, "no classification service configured, using heuristic")
		return heuristicAssessment(description), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Complete(callCtx, llm.CompletionRequest{
		System:    fmt.Sprintf(classifierInstruction, schemaJSON()),
		Prompt:    description,
		MaxTokens: 1024,
	})
	if err != nil {
		slog.WarnContext(ctx, "classification service call failed, using heuristic",
			"error", err,
			"description", logger.Truncate(description, 120))
		return heuristicAssessment(description), nil
	}

	if assessment := parseStrict(ctx, resp.Content); assessment != nil {
		return assessment, nil
	}

	if assessment := parseSalvaged(ctx, resp.Content); assessment != nil {
		return assessment, nil
	}

	slog.WarnContext(ctx, "unusable classification response, using heuristic",
		"response", logger.Truncate(resp.Content, 200))
	return heuristicAssessment(description), nil
}

// parseStrict attempts the schema parse of the raw response. Returns nil if
// the response is not valid JSON or fails validation.
func parseStrict(ctx context.Context, raw string) *model.SeverityAssessment {
	raw = trimCodeFence(raw)

	var result classificationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		slog.DebugContext(ctx, "strict parse failed", "error", err)
		return nil
	}

	// A response without a severity score is a malformed response, not a
	// score of zero.
	if result.Severity == nil {
		slog.DebugContext(ctx, "response missing severity field")
		return nil
	}

	score := *result.Severity
	if score < 0 || score > 10 {
		slog.DebugContext(ctx, "severity score out of range", "score", score)
		return nil
	}

	level := model.SeverityLevel(result.SeverityLevel)
	if !level.Valid() {
		level = model.LevelForScore(score)
	}

	tier := model.Tier(result.BuddyTier)
	if !tier.Valid() {
		tier = model.TierForLevel(level)
	}

	urgency := model.Urgency(result.Urgency)
	if !urgency.Valid() {
		urgency = model.UrgencyForLevel(level)
	}

	return &model.SeverityAssessment{
		Score:           score,
		Level:           level,
		Urgency:         urgency,
		RiskFactors:     result.RiskFactors,
		RecommendedCare: result.RecommendedCare,
		RequiredTier:    tier,
		IsFallback:      false,
	}
}

// parseSalvaged extracts a numeric severity token from an otherwise
// malformed response and derives the remaining fields from the thresholds.
// The score still originates from the service, so the result is not marked
// as a fallback.
func parseSalvaged(ctx context.Context, raw string) *model.SeverityAssessment {
	m := severityTokenRe.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}

	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil || score < 0 || score > 10 {
		return nil
	}

	slog.DebugContext(ctx, "salvaged severity score from malformed response", "score", score)

	level := model.LevelForScore(score)
	return &model.SeverityAssessment{
		Score:           score,
		Level:           level,
		Urgency:         model.UrgencyForLevel(level),
		RecommendedCare: defaultCareForLevel(level),
		RequiredTier:    model.TierForLevel(level),
		IsFallback:      false,
	}
}

func trimCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func schemaJSON() string {
	schema := llm.GenerateSchemaFrom(classificationResult{})
	raw, err := json.Marshal(schema)
	if err != nil {
		// The schema is reflected from a static struct; this cannot fail at
		// runtime once it compiles.
		panic(fmt.Sprintf("marshaling classification schema: %v", err))
	}
	return string(raw)
}
