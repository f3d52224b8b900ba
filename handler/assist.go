package handler

import (
	"context"
	"crm/dep"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/validator"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const generateFilterSystemPrompt = `You translate natural language audience descriptions into a json filter tree.
Respond with a single json object only, shaped like:
{"combinator":"and","rules":[{"field":"spend","operator":"greaterThan","value":50}]}
Supported operators: equal, notEqual, greaterThan, lessThan, greaterThanOrEqual, lessThanOrEqual, contains, notContains, beginsWith, endsWith.
Supported combinators: and, or. Groups may nest via "rules".`

const suggestMessageSystemPrompt = `You write short marketing messages for small businesses.
Respond with a single json object only, shaped like:
{"messages":["...","...","..."]}
Each message is under 160 characters and may use the literal placeholder {{name}} for the customer's name.`

type AssistHandler interface {
	GenerateFilter(ctx context.Context, req *GenerateFilterRequest, res *GenerateFilterResponse) error
	SuggestMessage(ctx context.Context, req *SuggestMessageRequest, res *SuggestMessageResponse) error
}

type assistHandler struct {
	completionService dep.CompletionService
}

func NewAssistHandler(completionService dep.CompletionService) AssistHandler {
	return &assistHandler{
		completionService: completionService,
	}
}

type GenerateFilterRequest struct {
	ContextInfo

	Prompt *string  `json:"prompt,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

func (r *GenerateFilterRequest) GetPrompt() string {
	if r != nil && r.Prompt != nil {
		return *r.Prompt
	}
	return ""
}

type GenerateFilterResponse struct {
	Filters *entity.Rule `json:"filters,omitempty"`
}

var GenerateFilterValidator = validator.MustForm(map[string]validator.Validator{
	"ContextInfo": ContextInfoValidator,
	"prompt": &validator.String{
		MinLen: 1,
		MaxLen: 500,
	},
	"fields": &validator.Slice{
		Optional:  true,
		MaxLen:    100,
		Validator: &validator.String{},
	},
})

func (h *assistHandler) GenerateFilter(ctx context.Context, req *GenerateFilterRequest, res *GenerateFilterResponse) error {
	if err := GenerateFilterValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	userPrompt := req.GetPrompt()
	if len(req.Fields) > 0 {
		userPrompt = fmt.Sprintf("Available fields: %s.\n%s", strings.Join(req.Fields, ", "), userPrompt)
	}

	content, err := h.completionService.ChatCompletion(ctx, generateFilterSystemPrompt, userPrompt)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("chat completion failed: %v", err)
		return err
	}

	js, err := dep.ExtractJson(content)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("extract json failed: %v, content: %s", err, content)
		return errutil.UpstreamError(err)
	}

	filters := new(entity.Rule)
	if err := json.Unmarshal([]byte(js), filters); err != nil {
		log.Ctx(ctx).Error().Msgf("unmarshal filter failed: %v, json: %s", err, js)
		return errutil.UpstreamError(err)
	}

	if err := filters.Validate(); err != nil {
		log.Ctx(ctx).Error().Msgf("generated filter invalid: %v, json: %s", err, js)
		return errutil.UpstreamError(err)
	}

	res.Filters = filters

	return nil
}

type SuggestMessageRequest struct {
	ContextInfo

	Objective *string `json:"objective,omitempty"`
}

func (r *SuggestMessageRequest) GetObjective() string {
	if r != nil && r.Objective != nil {
		return *r.Objective
	}
	return ""
}

type SuggestMessageResponse struct {
	Messages []string `json:"messages,omitempty"`
}

var SuggestMessageValidator = validator.MustForm(map[string]validator.Validator{
	"ContextInfo": ContextInfoValidator,
	"objective": &validator.String{
		MinLen: 1,
		MaxLen: 500,
	},
})

func (h *assistHandler) SuggestMessage(ctx context.Context, req *SuggestMessageRequest, res *SuggestMessageResponse) error {
	if err := SuggestMessageValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	content, err := h.completionService.ChatCompletion(ctx, suggestMessageSystemPrompt, req.GetObjective())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("chat completion failed: %v", err)
		return err
	}

	js, err := dep.ExtractJson(content)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("extract json failed: %v, content: %s", err, content)
		return errutil.UpstreamError(err)
	}

	var suggestions struct {
		Messages []string `json:"messages"`
	}
	if err := json.Unmarshal([]byte(js), &suggestions); err != nil {
		log.Ctx(ctx).Error().Msgf("unmarshal suggestions failed: %v, json: %s", err, js)
		return errutil.UpstreamError(err)
	}

	if len(suggestions.Messages) == 0 {
		return errutil.UpstreamError(dep.ErrEmptyCompletion)
	}

	res.Messages = suggestions.Messages

	return nil
}
