package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecodeclub/homework/internal/homework/internal/domain"
	"github.com/ecodeclub/homework/internal/llm"
	"github.com/ecodeclub/homework/internal/pkg/jsonx"
	"github.com/gotomicro/ego/core/elog"
	"github.com/lithammer/shortuuid/v4"
)

func (svc *parseService) Stream(ctx context.Context, req domain.ParseRequest) (chan domain.DeliveryEvent, error) {
	if err := svc.check(&req); err != nil {
		return nil, err
	}
	prompt := svc.composer.Compose(req.SubjectHint, req.Mode)
	events, provider, err := svc.aiSvc.Stream(ctx, llm.LLMRequest{
		Biz:      llm.BizHomeworkParse,
		Uid:      req.Uid,
		Tid:      shortuuid.New() + "_parse",
		Input:    []string{prompt},
		Images:   req.Images,
		Provider: req.Provider,
	})
	if err != nil {
		return nil, err
	}
	out := make(chan domain.DeliveryEvent, 16)
	go svc.relay(ctx, req, provider, events, out)
	return out, nil
}

// relay 把模型的流式事件转成交付帧。
// 帧序保证：start 最先，end 是成功的终态帧，之后才可能有 suggestions；
// 失败的终态帧只有 error，end 和 error 不会同时出现
func (svc *parseService) relay(ctx context.Context, req domain.ParseRequest,
	provider string, events chan llm.StreamEvent, out chan domain.DeliveryEvent) {
	defer close(out)
	start := time.Now()
	if !svc.emit(ctx, out, domain.DeliveryEvent{
		Type:     domain.EventStart,
		Provider: provider,
	}) {
		return
	}
	var full string
	for ev := range events {
		if ev.Error != nil {
			svc.emit(ctx, out, domain.DeliveryEvent{
				Type:    domain.EventError,
				Message: ev.Error.Error(),
			})
			return
		}
		if ev.Done {
			// 终态事件上挂的是累加器的全量内容，比逐帧拼出来的更可靠
			if ev.Content != "" {
				full = ev.Content
			}
			// 先校验再发 end，校验不过就只有 error 帧
			if _, verr := svc.validator.Validate(full); verr != nil {
				svc.logger.Warn("流式输出校验失败",
					elog.FieldErr(verr), elog.String("provider", provider))
				svc.aiSvc.MarkMalformed(provider)
				svc.emit(ctx, out, domain.DeliveryEvent{
					Type:    domain.EventError,
					Message: verr.Error(),
				})
				return
			}
			if !svc.emit(ctx, out, domain.DeliveryEvent{
				Type:         domain.EventEnd,
				Tokens:       ev.Tokens,
				FinishReason: ev.FinishReason,
				ElapsedMs:    time.Since(start).Milliseconds(),
			}) {
				return
			}
			if items := svc.suggestions(ctx, req.Uid, full); len(items) > 0 {
				svc.emit(ctx, out, domain.DeliveryEvent{
					Type:  domain.EventSuggestions,
					Items: items,
				})
			}
			return
		}
		full = ev.Content
		if !svc.emit(ctx, out, domain.DeliveryEvent{
			Type:    domain.EventContent,
			Content: ev.Content,
			Delta:   ev.Delta,
		}) {
			return
		}
	}
}

// suggestions 基于解析结果生成学习建议。失败只是少一帧，不影响主结果
func (svc *parseService) suggestions(ctx context.Context, uid int64, parsed string) []string {
	resp, err := svc.aiSvc.Invoke(ctx, llm.LLMRequest{
		Biz:   llm.BizHomeworkSuggest,
		Uid:   uid,
		Tid:   shortuuid.New() + "_suggest",
		Input: []string{parsed},
	})
	if err != nil {
		svc.logger.Warn("生成学习建议失败", elog.FieldErr(err))
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(jsonx.StripCodeFences(resp.Answer)), &items); err != nil {
		svc.logger.Warn("学习建议不是合法 JSON 数组", elog.FieldErr(err))
		return nil
	}
	return items
}

// emit 往外发一帧，客户端断开就停
func (svc *parseService) emit(ctx context.Context, out chan domain.DeliveryEvent, ev domain.DeliveryEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
