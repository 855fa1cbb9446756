package openai

import (
	"context"
	"math"

	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// Handler 走 OpenAI 兼容协议的平台。
// 不止 OpenAI 自己，通义千问这类兼容平台也用它，换个 baseUrl 就行
type Handler struct {
	name   string
	client *openai.Client
}

func NewHandler(name, baseUrl, apikey string) *Handler {
	client := openai.NewClient(
		option.WithBaseURL(baseUrl),
		option.WithAPIKey(apikey),
	)
	return &Handler{
		name:   name,
		client: client,
	}
}

func (h *Handler) Name() string {
	return h.name
}

func (h *Handler) Handle(ctx context.Context, req domain.LLMRequest) (domain.LLMResponse, error) {
	params := h.buildParams(req)
	completion, err := h.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return domain.LLMResponse{}, err
	}
	tokens := completion.Usage.TotalTokens
	// 现在的报价都是 N/1k token，向上取整
	amt := math.Ceil(float64(tokens*req.Config.Price) / float64(1000))
	resp := domain.LLMResponse{
		Tokens: tokens,
		Amount: int64(amt),
	}
	if len(completion.Choices) > 0 {
		resp.Answer = completion.Choices[0].Message.Content
	}
	return resp, nil
}

func (h *Handler) StreamHandle(ctx context.Context, req domain.LLMRequest) (chan domain.StreamEvent, error) {
	params := h.buildParams(req)
	params.StreamOptions = openai.F(openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.F(true),
	})
	stream := h.client.Chat.Completions.NewStreaming(ctx, params)
	eventCh := make(chan domain.StreamEvent, 10)
	go h.recv(eventCh, stream, req.Config.Price)
	return eventCh, nil
}

func (h *Handler) recv(eventCh chan domain.StreamEvent,
	stream *ssestream.Stream[openai.ChatCompletionChunk], price int64) {
	defer close(eventCh)
	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].FinishReason == "" {
			delta := chunk.Choices[0].Delta.Content
			var content string
			if len(acc.Choices) > 0 {
				content = acc.Choices[0].Message.Content
			}
			eventCh <- domain.StreamEvent{
				Content: content,
				Delta:   delta,
			}
		}
	}
	if err := stream.Err(); err != nil {
		eventCh <- domain.StreamEvent{Error: err}
		return
	}
	evt := domain.StreamEvent{
		Done:   true,
		Tokens: acc.Usage.TotalTokens,
	}
	if len(acc.Choices) > 0 {
		evt.Content = acc.Choices[0].Message.Content
		evt.FinishReason = string(acc.Choices[0].FinishReason)
	}
	eventCh <- evt
}

func (h *Handler) buildParams(req domain.LLMRequest) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.Config.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.Config.SystemPrompt))
	}
	if len(req.Images) > 0 {
		// 多张照片放进同一次调用，保证跨页题号的上下文连续
		parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Images)+1)
		for _, img := range req.Images {
			parts = append(parts, openai.ImagePart(imageURL(img)))
		}
		parts = append(parts, openai.TextPart(req.Prompt()))
		msgs = append(msgs, openai.UserMessageParts(parts...))
	} else {
		msgs = append(msgs, openai.UserMessage(req.Prompt()))
	}
	params := openai.ChatCompletionNewParams{
		Messages: openai.F(msgs),
		Model:    openai.F(openai.ChatModel(req.Config.Model)),
	}
	if req.Config.Temperature > 0 {
		params.Temperature = openai.F(req.Config.Temperature)
	}
	if req.Config.TopP > 0 {
		params.TopP = openai.F(req.Config.TopP)
	}
	return params
}

// imageURL 没有外链就退化成 data URL
func imageURL(img domain.Image) string {
	if img.URL != "" {
		return img.URL
	}
	mime := img.MIME
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + img.Base64
}
