package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-overlay/internal/httpc"
	"github.com/teslashibe/go-overlay/pkg/frame"
)

// ErrNoAPIKey is returned when the Gemini classifier has no API key.
var ErrNoAPIKey = errors.New("detection: GOOGLE_API_KEY not set")

// GeminiConfig configures the Gemini scene classifier.
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Prompt      string
	MaxLabels   int
	JPEGQuality int
	Timeout     time.Duration
}

// DefaultGeminiConfig returns defaults for Gemini 2.0 Flash.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		Model:   "gemini-2.0-flash",
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Prompt: "Classify this camera frame. Reply with JSON only: " +
			`{"labels":[{"label":"<short scene or object label>","confidence":<0-1>}]}. ` +
			"Use at most 5 labels, most confident first.",
		MaxLabels:   5,
		JPEGQuality: 80,
		Timeout:     15 * time.Second,
	}
}

// GeminiClassifier labels whole frames with a remote multimodal model.
type GeminiClassifier struct {
	cfg    GeminiConfig
	client *http.Client
	closed atomic.Bool
}

var _ Detector[[]Label] = (*GeminiClassifier)(nil)

// NewGeminiClassifier validates cfg and creates a classifier.
func NewGeminiClassifier(cfg GeminiConfig) (*GeminiClassifier, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.MaxLabels <= 0 {
		cfg.MaxLabels = DefaultGeminiConfig().MaxLabels
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = DefaultGeminiConfig().JPEGQuality
	}
	return &GeminiClassifier{cfg: cfg, client: httpc.NewClient(cfg.Timeout)}, nil
}

// Detect encodes the upright frame as JPEG and asks the model for labels,
// most confident first.
func (g *GeminiClassifier) Detect(ctx context.Context, data []byte, meta frame.Metadata) ([]Label, error) {
	if g.closed.Load() {
		return nil, ErrClosed
	}

	img, err := frame.ToImage(data, meta)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: g.cfg.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": g.cfg.Prompt},
					{"inline_data": map[string]string{
						"mime_type": "image/jpeg",
						"data":      base64.StdEncoding.EncodeToString(buf.Bytes()),
					}},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0.2,
			"maxOutputTokens":  300,
			"responseMimeType": "application/json",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if result.Error.Message != "" {
			return nil, fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, result.Error.Message)
		}
		return nil, fmt.Errorf("gemini API error (status %d)", resp.StatusCode)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	return parseLabels(result.Candidates[0].Content.Parts[0].Text, g.cfg.MaxLabels)
}

// parseLabels decodes the model's JSON answer, tolerating a fenced code
// block around it.
func parseLabels(text string, limit int) ([]Label, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var parsed struct {
		Labels []Label `json:"labels"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}

	labels := parsed.Labels[:0]
	for _, l := range parsed.Labels {
		if l.Text == "" {
			continue
		}
		labels = append(labels, l)
	}
	sort.SliceStable(labels, func(i, j int) bool { return labels[i].Confidence > labels[j].Confidence })
	if len(labels) > limit {
		labels = labels[:limit]
	}
	return labels, nil
}

// Close implements Detector.
func (g *GeminiClassifier) Close() error {
	g.closed.Store(true)
	return nil
}

// geminiResponse is the response structure from Gemini API.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}
