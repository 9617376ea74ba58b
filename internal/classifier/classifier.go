package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/internal/core"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrUnavailable marks transport-level failures: network errors,
	// non-2xx answers, empty completions.
	ErrUnavailable = errors.New("classifier unavailable")

	// ErrInvalidResponse marks classifier output that does not contain a
	// parseable JSON object.
	ErrInvalidResponse = errors.New("invalid classifier response")
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 10 * time.Second
	maxTokens      = 300
)

type (
	// ReceiptData are the structured fields extracted from a receipt
	// image. JSON names are the wire contract of the receipt endpoint.
	ReceiptData struct {
		Total       float64 `json:"total"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
		Vendor      string  `json:"vendor"`
	}

	Config struct {
		APIKey  string
		Model   string
		BaseURL string // override for tests and compatible gateways
		Timeout time.Duration
	}

	// Client sends receipt images to an OpenAI-compatible vision endpoint
	// and parses the constrained JSON it instructs the model to return.
	Client struct {
		api   *openai.Client
		model string
	}
)

func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	c.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{api: openai.NewClientWithConfig(c), model: cfg.Model}
}

// Classify sends a base64-encoded receipt image upstream and returns the
// extracted fields. The call is bounded by the configured timeout; there
// is no retry.
func (c *Client) Classify(ctx context.Context, imageBase64 string) (ReceiptData, error) {
	payload := strings.TrimSpace(imageBase64)
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, ";base64,"); i >= 0 {
			payload = payload[i+len(";base64,"):]
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: receiptPrompt()},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL(payload),
						Detail: openai.ImageURLDetailAuto,
					},
				},
			},
		}},
	})
	if err != nil {
		return ReceiptData{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return ReceiptData{}, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	return parseReceiptJSON(ctx, resp.Choices[0].Message.Content)
}

// receiptPrompt instructs the model to answer with nothing but the
// constrained JSON object.
func receiptPrompt() string {
	return fmt.Sprintf(`Analyze this receipt image and return only minified JSON in one line. No comments. No markdown.

RULES:
- "category" MUST be exactly one of: %s. Never invent new categories.
- "total" is the final amount paid, as a plain number without currency symbols.
- "vendor" is the store or merchant name as printed.
- "description" is a short summary of the purchase.
- If a field cannot be read, use "" for strings and 0 for the total.

OUTPUT JSON SCHEMA:
{"total":number,"category":string,"description":string,"vendor":string}`,
		strings.Join(core.ExpenseCategories(), ", "))
}

// dataURL wraps the raw base64 payload for the vision API, sniffing the
// image type from the decoded head. Unrecognizable payloads default to
// JPEG and are left for the upstream to reject.
func dataURL(payload string) string {
	mime := "image/jpeg"
	head := payload
	if len(head) > 684 {
		head = head[:684] // multiple of 4, decodes to the 512 sniff bytes
	}
	if b, err := base64.StdEncoding.DecodeString(head); err == nil && len(b) > 0 {
		if t := http.DetectContentType(b); strings.HasPrefix(t, "image/") {
			mime = t
		}
	}
	return "data:" + mime + ";base64," + payload
}

func parseReceiptJSON(ctx context.Context, content string) (ReceiptData, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return ReceiptData{}, fmt.Errorf("%w: no JSON object in output", ErrInvalidResponse)
	}

	var parsed struct {
		Total       any    `json:"total"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Vendor      string `json:"vendor"`
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return ReceiptData{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return ReceiptData{
		Total:       coerceTotal(ctx, parsed.Total),
		Category:    strings.TrimSpace(parsed.Category),
		Description: strings.TrimSpace(parsed.Description),
		Vendor:      strings.TrimSpace(parsed.Vendor),
	}, nil
}

// coerceTotal accepts numeric or string totals. Anything unparseable or
// negative collapses to 0 with a warning; the receipt is still recorded.
func coerceTotal(ctx context.Context, v any) float64 {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil && f >= 0 {
			return f
		}
	case string:
		s := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "$€£¥ "))
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
			return f
		}
	case nil:
		return 0
	}
	slog.WarnContext(ctx, "Receipt total unparseable, recording 0", "total", fmt.Sprint(v))
	return 0
}

// extractJSONObject returns the first balanced JSON object in s. Models
// wrap their JSON in prose or code fences often enough that strict
// whole-string parsing would reject good answers.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// Transaction maps the extracted fields onto a new expense. Every field is
// synthesized here, so the ledger's non-validating Insert path is the one
// to use downstream.
func (d ReceiptData) Transaction(now time.Time) core.Transaction {
	description := d.Description
	if description == "" {
		description = d.Vendor
	}
	if description == "" {
		description = "Receipt expense"
	}

	category := core.NormalizeCategory(core.Expense, d.Category)
	if category == "" {
		category = core.CategoryOther
	}

	return core.Transaction{
		Type:        core.Expense,
		Amount:      d.Total,
		Category:    category,
		Description: description,
		Date:        now.UTC().Format(core.DateLayout),
		Source:      core.Receipt,
		Vendor:      d.Vendor,
	}
}
