package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"faultdesk/internal/config"
	"faultdesk/internal/observability"
	contextutils "faultdesk/internal/utils"
)

// Strings returned when the generative service cannot answer
const (
	FallbackAnalysis = "AI analysis is currently unavailable."
	FallbackCoaching = "Coaching suggestions are currently unavailable."
)

// AI request outcomes recorded in metrics
const (
	aiOutcomeSuccess  = "success"
	aiOutcomeCached   = "cached"
	aiOutcomeDisabled = "disabled"
	aiOutcomeFailed   = "failed"
)

// analysisSchema is the structured reply requested from the model for Analyze
const analysisSchema = `{
  "type": "object",
  "required": ["summary"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "rootCause": {"type": "string"},
    "recommendation": {"type": "string"}
  }
}`

// AIServiceInterface is the generative-text collaborator. No method returns an
// error: failures degrade to a fallback string.
type AIServiceInterface interface {
	Refine(ctx context.Context, text, category string) string
	Analyze(ctx context.Context, text string) string
	Coach(ctx context.Context, text string) string
}

// Message is a chat completion message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the OpenAI-compatible request body
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ResponseFormat asks the model for a JSON object reply
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatResponse is the subset of the OpenAI-compatible reply we read
type ChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type analysisReply struct {
	Summary        string `json:"summary"`
	RootCause      string `json:"rootCause"`
	Recommendation string `json:"recommendation"`
}

// AIService calls an OpenAI-compatible chat completions endpoint.
type AIService struct {
	httpClient *http.Client
	cfg        config.AIConfig
	cache      *cache.Cache
	schema     *gojsonschema.Schema
	metrics    *observability.Metrics
	logger     *observability.Logger
}

// NewAIService creates a new AI service instance
func NewAIService(cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics) *AIService {
	aiCfg := cfg.AI
	if aiCfg.Timeout <= 0 {
		aiCfg.Timeout = config.AIRequestTimeout
	}
	if aiCfg.CacheTTL <= 0 {
		aiCfg.CacheTTL = config.AICacheTTL
	}

	httpClient := &http.Client{
		Timeout: aiCfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(analysisSchema))
	if err != nil {
		// the schema is a constant; this only trips on a bad edit
		panic(fmt.Sprintf("NewAIService: invalid analysis schema: %v", err))
	}

	if aiCfg.Enabled && aiCfg.URL == "" {
		logger.Error(context.Background(), "AI is enabled without an endpoint; AI features will use fallbacks",
			contextutils.WrapError(contextutils.ErrAIConfigInvalid, "ai.url is not set"))
	}

	return &AIService{
		httpClient: httpClient,
		cfg:        aiCfg,
		cache:      cache.New(aiCfg.CacheTTL, 2*aiCfg.CacheTTL),
		schema:     schema,
		metrics:    metrics,
		logger:     logger,
	}
}

// Enabled reports whether an endpoint is configured
func (s *AIService) Enabled() bool {
	return s.cfg.Enabled && s.cfg.URL != ""
}

// Refine rewrites text into clear, professional feedback. Falls back to text.
func (s *AIService) Refine(ctx context.Context, text, category string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	prompt := fmt.Sprintf(
		"Rewrite the following %s feedback so that it is clear, specific and professional. "+
			"Keep every fact and do not add new ones. Reply with the rewritten text only.\n\n%s",
		orDefault(category, "workplace"), text)

	out, err := s.complete(ctx, "refine", prompt, false)
	if err != nil {
		return text
	}
	return out
}

// Analyze summarizes a fault report. Falls back to FallbackAnalysis.
func (s *AIService) Analyze(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return FallbackAnalysis
	}
	prompt := "Analyze this customer-service fault report. Reply with a JSON object with the keys " +
		`"summary" (one or two sentences), "rootCause" and "recommendation".` + "\n\n" + text

	out, err := s.complete(ctx, "analyze", prompt, true)
	if err != nil {
		return FallbackAnalysis
	}
	return s.formatAnalysis(ctx, out)
}

// Coach returns a short coaching tip for the employee. Falls back to FallbackCoaching.
func (s *AIService) Coach(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return FallbackCoaching
	}
	prompt := "You are a supportive team lead. Based on the feedback below, give the employee " +
		"two or three concrete, encouraging suggestions to avoid the issue next time.\n\n" + text

	out, err := s.complete(ctx, "coach", prompt, false)
	if err != nil {
		return FallbackCoaching
	}
	return out
}

// formatAnalysis renders a schema-valid reply as text. Replies that are not the
// requested JSON are returned as-is.
func (s *AIService) formatAnalysis(ctx context.Context, raw string) string {
	result, err := s.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil || !result.Valid() {
		fields := map[string]interface{}{}
		if err != nil {
			fields["error"] = err.Error()
		} else if len(result.Errors()) > 0 {
			fields["error"] = result.Errors()[0].String()
		}
		s.logger.Debug(ctx, "AI analysis did not match schema; using raw text", fields)
		return raw
	}

	var reply analysisReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return raw
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(reply.Summary))
	if reply.RootCause != "" {
		b.WriteString("\n\nRoot cause: ")
		b.WriteString(strings.TrimSpace(reply.RootCause))
	}
	if reply.Recommendation != "" {
		b.WriteString("\nRecommendation: ")
		b.WriteString(strings.TrimSpace(reply.Recommendation))
	}
	return b.String()
}

func cacheKey(op, prompt string) string {
	sum := sha256.Sum256([]byte(op + "\x00" + prompt))
	return op + ":" + hex.EncodeToString(sum[:])
}

// complete runs one chat completion, memoizing successful replies.
func (s *AIService) complete(ctx context.Context, op, prompt string, jsonReply bool) (result0 string, err error) {
	ctx, span := observability.TraceAIFunction(ctx, op,
		attribute.String("ai.model", s.cfg.Model),
		attribute.Int("prompt.length", len(prompt)),
	)
	defer observability.FinishSpan(span, &err)

	if !s.Enabled() {
		s.metrics.RecordAIRequest(op, aiOutcomeDisabled)
		span.SetAttributes(attribute.String("call.result", aiOutcomeDisabled))
		if s.cfg.Enabled {
			return "", contextutils.WrapError(contextutils.ErrAIConfigInvalid, "ai.url is not set")
		}
		return "", contextutils.WrapError(contextutils.ErrServiceUnavailable, "AI is not configured")
	}

	key := cacheKey(op, prompt)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.RecordAIRequest(op, aiOutcomeCached)
		span.SetAttributes(attribute.String("call.result", aiOutcomeCached))
		return cached.(string), nil
	}

	content, err := s.callChat(ctx, prompt, jsonReply)
	if err != nil {
		s.metrics.RecordAIRequest(op, aiOutcomeFailed)
		s.logger.Warn(ctx, "AI request failed; using fallback", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
		return "", err
	}

	s.cache.Set(key, content, cache.DefaultExpiration)
	s.metrics.RecordAIRequest(op, aiOutcomeSuccess)
	span.SetAttributes(attribute.String("call.result", aiOutcomeSuccess), attribute.Int("content_length", len(content)))
	return content, nil
}

func (s *AIService) callChat(ctx context.Context, prompt string, jsonReply bool) (string, error) {
	reqBody := ChatRequest{
		Model:       s.cfg.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: 0.3,
		MaxTokens:   s.cfg.MaxTokens,
	}
	if jsonReply {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to marshal request body")
	}

	endpoint := strings.TrimRight(s.cfg.URL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", contextutils.WrapError(err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "faultdesk/1.0")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "HTTP request failed after %v: %v", time.Since(start), err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "API request failed with status %d", resp.StatusCode)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to parse AI response: %v", err)
	}
	if chatResp.Error != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", contextutils.WrapError(contextutils.ErrAIResponseInvalid, "no choices in AI response")
	}
	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if content == "" {
		return "", contextutils.WrapError(contextutils.ErrAIResponseInvalid, "AI returned empty content")
	}
	return content, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
