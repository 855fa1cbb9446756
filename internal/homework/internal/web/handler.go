package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ecodeclub/ginx"
	"github.com/ecodeclub/ginx/session"
	"github.com/ecodeclub/homework/internal/homework/internal/domain"
	"github.com/ecodeclub/homework/internal/homework/internal/service"
	"github.com/ecodeclub/homework/internal/llm"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/elog"
)

var _ ginx.Handler = &Handler{}

type Handler struct {
	svc    service.Service
	logger *elog.Component
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{
		svc:    svc,
		logger: elog.DefaultLogger.With(elog.FieldComponent("HomeworkHandler")),
	}
}

func (h *Handler) PublicRoutes(server *gin.Engine) {}

func (h *Handler) PrivateRoutes(server *gin.Engine) {
	server.POST("/homework/parse", ginx.BS(h.Parse))
	server.POST("/homework/stream", h.Stream)
	server.POST("/homework/task/detail", ginx.BS(h.TaskDetail))
}

func (h *Handler) Parse(ctx *ginx.Context, req ParseReq, sess session.Session) (ginx.Result, error) {
	outcome, err := h.svc.Parse(ctx.Request.Context(), domain.ParseRequest{
		Uid:         sess.Claims().Uid,
		Images:      newImages(req.Images),
		SubjectHint: req.SubjectHint,
		Mode:        domain.StructureMode(req.Mode),
		WithGrading: req.WithGrading,
		AllowDetach: req.AllowDetach,
		Provider:    req.Provider,
	})
	if err != nil {
		return h.errResult(err), err
	}
	mode := domain.StructureMode(req.Mode)
	return ginx.Result{
		Data: ParseResp{
			Detached: outcome.Detached,
			TaskId:   outcome.TaskId,
			Provider: outcome.Provider,
			Result:   newParseResultVO(outcome.Result, mode),
			Grades:   newGradeVOs(outcome.Grades),
		},
	}, nil
}

func (h *Handler) TaskDetail(ctx *ginx.Context, req TaskDetailReq, sess session.Session) (ginx.Result, error) {
	task, err := h.svc.Task(ctx.Request.Context(), sess.Claims().Uid, req.TaskId)
	if err != nil {
		return h.errResult(err), err
	}
	return ginx.Result{
		Data: TaskDetailResp{
			TaskId: task.TaskId,
			Status: string(task.Status),
			// 任务结果统一按层级结构交付
			Result:    newParseResultVO(task.Result, domain.ModeHierarchical),
			Grades:    newGradeVOs(task.Grades),
			ErrorCode: task.ErrorCode,
			ErrorMsg:  task.ErrorMsg,
			CreatedAt: task.CreatedAt,
		},
	}, nil
}

func (h *Handler) errResult(err error) ginx.Result {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return invalidInputResult
	case errors.Is(err, service.ErrMalformedOutput):
		return malformedOutputResult
	case errors.Is(err, service.ErrSchemaViolation):
		return schemaViolationResult
	case errors.Is(err, service.ErrSyncTimeout):
		return syncTimeoutResult
	case errors.Is(err, service.ErrTaskNotFound):
		return taskNotFoundResult
	case errors.Is(err, llm.ErrCircuitOpen), errors.Is(err, llm.ErrProviderCall):
		return providerUnavailableResult
	default:
		return systemErrorResult
	}
}

// Stream 流式解析，SSE 交付。帧序 start → content* → end → suggestions，
// 任何一步出错用 error 帧终止
func (h *Handler) Stream(ctx *gin.Context) {
	gtx := &ginx.Context{Context: ctx}
	sess, err := session.Get(gtx)
	if err != nil {
		h.logger.Error("获取 Session 失败", elog.FieldErr(err))
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req ParseReq
	if err := ctx.Bind(&req); err != nil {
		h.logger.Error("绑定参数失败", elog.FieldErr(err))
		ctx.AbortWithStatus(http.StatusBadRequest)
		return
	}

	events, err := h.svc.Stream(ctx.Request.Context(), domain.ParseRequest{
		Uid:         sess.Claims().Uid,
		Images:      newImages(req.Images),
		SubjectHint: req.SubjectHint,
		Mode:        domain.StructureMode(req.Mode),
		Provider:    req.Provider,
	})
	if err != nil {
		h.logger.Error("发起流式解析失败", elog.FieldErr(err))
		ctx.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := ctx.Writer.(http.Flusher)
	if !ok {
		h.logger.Error("不支持流式响应")
		ctx.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	for ev := range events {
		data, err := json.Marshal(newStreamFrame(ev))
		if err != nil {
			h.logger.Error("序列化流式帧失败", elog.FieldErr(err))
			return
		}
		if _, err := fmt.Fprintf(ctx.Writer, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
			// 客户端断开，上游会跟着取消
			h.logger.Debug("写流式帧失败", elog.FieldErr(err))
			return
		}
		flusher.Flush()
	}
}

// streamFrame 的 type 同时写在 SSE 的 event 行和 JSON 里，
// 不走 EventSource 的裸客户端只看 JSON 也能分辨帧
type streamFrame struct {
	Type         string   `json:"type"`
	Provider     string   `json:"provider,omitempty"`
	Content      string   `json:"content,omitempty"`
	Delta        string   `json:"delta,omitempty"`
	Tokens       int64    `json:"tokens,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
	ElapsedMs    int64    `json:"elapsedMs,omitempty"`
	Items        []string `json:"items,omitempty"`
	Message      string   `json:"message,omitempty"`
}

func newStreamFrame(ev domain.DeliveryEvent) streamFrame {
	return streamFrame{
		Type:         string(ev.Type),
		Provider:     ev.Provider,
		Content:      ev.Content,
		Delta:        ev.Delta,
		Tokens:       ev.Tokens,
		FinishReason: ev.FinishReason,
		ElapsedMs:    ev.ElapsedMs,
		Items:        ev.Items,
		Message:      ev.Message,
	}
}
