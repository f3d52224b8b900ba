package dep

import (
	"bytes"
	"context"
	"crm/config"
	"crm/pkg/errutil"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	ErrEmptyCompletion = errors.New("empty completion")
	ErrNoJsonFound     = errors.New("no json found in completion")
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []*chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// CompletionService talks to an OpenAI-compatible chat completions API.
type CompletionService interface {
	ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Close(ctx context.Context) error
}

type completionService struct {
	baseUrl    string
	apiKey     string
	model      string
	maxRetries uint64
	client     *http.Client
}

func NewCompletionService(_ context.Context, cfg config.Completion) CompletionService {
	return &completionService{
		baseUrl:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

func (s *completionService) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body := &chatRequest{
		Model: s.model,
		Messages: []*chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	var content string
	op := func() error {
		var err error
		content, err = s.postChatCompletion(ctx, body)
		return err
	}

	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries)); err != nil {
		return "", errutil.UpstreamError(err)
	}

	return content, nil
}

func (s *completionService) Close(_ context.Context) error {
	return nil
}

func (s *completionService) postChatCompletion(ctx context.Context, body interface{}) (string, error) {
	js, err := json.Marshal(body)
	if err != nil {
		return "", backoff.Permanent(err)
	}

	url := fmt.Sprintf("%s/chat/completions", s.baseUrl)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(js))
	if err != nil {
		return "", backoff.Permanent(err)
	}

	req.Header.Add("accept", "application/json")
	req.Header.Add("content-type", "application/json")
	req.Header.Add("authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	res, err := s.client.Do(req)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = res.Body.Close()
	}()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode >= http.StatusInternalServerError || res.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("completion api status %d: %s", res.StatusCode, string(b))
	}

	chatRes := new(chatResponse)
	if err := json.Unmarshal(b, chatRes); err != nil {
		return "", backoff.Permanent(err)
	}

	if chatRes.Error != nil {
		return "", backoff.Permanent(fmt.Errorf("completion api error: %s, type: %s", chatRes.Error.Message, chatRes.Error.Type))
	}

	if len(chatRes.Choices) == 0 {
		return "", backoff.Permanent(ErrEmptyCompletion)
	}

	return chatRes.Choices[0].Message.Content, nil
}

// ExtractJson pulls the outermost json object out of a completion that
// may be wrapped in prose or markdown fences.
func ExtractJson(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJsonFound
	}
	return s[start : end+1], nil
}
