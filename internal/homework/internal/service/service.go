package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecodeclub/homework/internal/grading"
	"github.com/ecodeclub/homework/internal/homework/internal/domain"
	"github.com/ecodeclub/homework/internal/homework/internal/errs"
	"github.com/ecodeclub/homework/internal/homework/internal/event"
	"github.com/ecodeclub/homework/internal/homework/internal/repository"
	"github.com/ecodeclub/homework/internal/homework/internal/service/composer"
	"github.com/ecodeclub/homework/internal/homework/internal/service/validate"
	"github.com/ecodeclub/homework/internal/llm"
	"github.com/gotomicro/ego/core/elog"
	"github.com/lithammer/shortuuid/v4"
)

var (
	ErrInvalidInput    = errors.New("请求参数非法")
	ErrSyncTimeout     = errors.New("同步解析超时")
	ErrTaskNotFound    = repository.ErrTaskNotFound
	ErrMalformedOutput = validate.ErrMalformedOutput
	ErrSchemaViolation = validate.ErrSchemaViolation
)

const (
	// 层级结构要多一轮结构推理，给更长的时间
	defaultHierarchicalTimeout = 300 * time.Second
	defaultFlatTimeout         = 180 * time.Second
	// 同步等这么久还没好就转后台
	defaultDetachAfter = 10 * time.Second
)

//go:generate mockgen -source=./service.go -destination=../../mocks/homework.mock.go -package=homeworkmocks -typed=true Service
type Service interface {
	// Parse 同步解析。AllowDetach 时可能转后台，返回 Detached + TaskId
	Parse(ctx context.Context, req domain.ParseRequest) (domain.ParseOutcome, error)
	// Stream 流式解析，帧序：start → content* → end → suggestions，或者任意时刻 error 终止
	Stream(ctx context.Context, req domain.ParseRequest) (chan domain.DeliveryEvent, error)
	// Task 查后台任务。只能查自己的
	Task(ctx context.Context, uid int64, taskId string) (domain.BackgroundTask, error)
}

type parseService struct {
	aiSvc     llm.Service
	gradeSvc  grading.Service
	composer  *composer.Composer
	validator *validate.Validator
	taskRepo  repository.TaskRepository
	producer  event.TaskEventProducer

	hierarchicalTimeout time.Duration
	flatTimeout         time.Duration
	detachAfter         time.Duration
	logger              *elog.Component
}

type Option func(*parseService)

func WithTimeouts(hierarchical, flat time.Duration) Option {
	return func(s *parseService) {
		s.hierarchicalTimeout = hierarchical
		s.flatTimeout = flat
	}
}

func WithDetachAfter(d time.Duration) Option {
	return func(s *parseService) {
		s.detachAfter = d
	}
}

func NewParseService(aiSvc llm.Service,
	gradeSvc grading.Service,
	taskRepo repository.TaskRepository,
	producer event.TaskEventProducer,
	opts ...Option) Service {
	svc := &parseService{
		aiSvc:               aiSvc,
		gradeSvc:            gradeSvc,
		composer:            composer.NewComposer(),
		validator:           validate.NewValidator(),
		taskRepo:            taskRepo,
		producer:            producer,
		hierarchicalTimeout: defaultHierarchicalTimeout,
		flatTimeout:         defaultFlatTimeout,
		detachAfter:         defaultDetachAfter,
		logger:              elog.DefaultLogger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc *parseService) Parse(ctx context.Context, req domain.ParseRequest) (domain.ParseOutcome, error) {
	if err := svc.check(&req); err != nil {
		return domain.ParseOutcome{}, err
	}
	if !req.AllowDetach {
		ctx, cancel := context.WithTimeout(ctx, svc.timeout(req.Mode))
		defer cancel()
		outcome, err := svc.runPipeline(ctx, req)
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ParseOutcome{}, ErrSyncTimeout
		}
		return outcome, err
	}
	return svc.parseWithDetach(ctx, req)
}

// parseWithDetach 流水线一开始就在可脱离的上下文里跑，
// 软超时触发时调用方拿着 taskId 走人，流水线原地继续
func (svc *parseService) parseWithDetach(ctx context.Context, req domain.ParseRequest) (domain.ParseOutcome, error) {
	taskId := shortuuid.New()
	// 脱离之后不再受调用方取消的影响
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), svc.timeout(req.Mode))

	type result struct {
		outcome domain.ParseOutcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		defer cancel()
		outcome, err := svc.runPipeline(taskCtx, req)
		done <- result{outcome: outcome, err: err}
	}()

	timer := time.NewTimer(svc.detachAfter)
	defer timer.Stop()
	select {
	case r := <-done:
		return r.outcome, r.err
	case <-timer.C:
	case <-ctx.Done():
	}
	// 流水线可能恰好在这一瞬间跑完了，结果还在通道里，那就内联返回
	select {
	case r := <-done:
		return r.outcome, r.err
	default:
	}
	// 转后台：先登记任务再放调用方走，之后由守望协程收尾
	task := domain.BackgroundTask{
		TaskId:    taskId,
		Uid:       req.Uid,
		Status:    domain.TaskStatusRunning,
		CreatedAt: time.Now().UnixMilli(),
	}
	// 登记不依赖 taskCtx，流水线恰好这时结束也不影响
	regCtx, regCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer regCancel()
	if err := svc.taskRepo.Save(regCtx, task); err != nil {
		svc.logger.Error("登记后台任务失败",
			elog.FieldErr(err), elog.String("taskId", taskId))
		return domain.ParseOutcome{}, fmt.Errorf("登记后台任务失败: %w", err)
	}
	go func() {
		r := <-done
		svc.finishTask(taskCtx, task, r.outcome, r.err)
	}()
	return domain.ParseOutcome{Detached: true, TaskId: taskId}, nil
}

// finishTask 后台流水线收尾：更新任务状态并发通知意图。
// 流水线可能是超时死掉的，收尾要用自己的上下文。
// task 是脱离时登记的那份，创建时间原样保留
func (svc *parseService) finishTask(ctx context.Context, task domain.BackgroundTask,
	outcome domain.ParseOutcome, err error) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	switch {
	case errors.Is(err, context.Canceled):
		// 进程退出这类内部中断，调用方没法主动走到这里
		task.Status = domain.TaskStatusCancelled
		task.ErrorCode, task.ErrorMsg = svc.classify(err)
	case err != nil:
		task.Status = domain.TaskStatusFailed
		task.ErrorCode, task.ErrorMsg = svc.classify(err)
	default:
		task.Status = domain.TaskStatusCompleted
		task.Result = outcome.Result
		task.Grades = outcome.Grades
	}
	if serr := svc.taskRepo.Save(ctx, task); serr != nil {
		svc.logger.Error("保存后台任务结果失败",
			elog.FieldErr(serr), elog.String("taskId", task.TaskId))
		return
	}
	evt := event.TaskCompletedEvent{
		TaskId:    task.TaskId,
		Uid:       task.Uid,
		Status:    string(task.Status),
		ErrorCode: task.ErrorCode,
	}
	// 通知发不出去不影响任务本身，调用方还能轮询到结果
	if perr := svc.producer.Produce(ctx, evt); perr != nil {
		svc.logger.Error("发送任务完成通知失败",
			elog.FieldErr(perr), elog.String("taskId", task.TaskId))
	}
}

func (svc *parseService) classify(err error) (code string, msg string) {
	switch {
	case errors.Is(err, validate.ErrMalformedOutput):
		return fmt.Sprintf("%d", errs.MalformedOutput.Code), errs.MalformedOutput.Msg
	case errors.Is(err, validate.ErrSchemaViolation):
		return fmt.Sprintf("%d", errs.SchemaViolation.Code), errs.SchemaViolation.Msg
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("%d", errs.SyncTimeout.Code), errs.SyncTimeout.Msg
	case errors.Is(err, llm.ErrCircuitOpen), errors.Is(err, llm.ErrProviderCall):
		return fmt.Sprintf("%d", errs.ProviderUnavailable.Code), errs.ProviderUnavailable.Msg
	default:
		return fmt.Sprintf("%d", errs.SystemError.Code), errs.SystemError.Msg
	}
}

// runPipeline 解析主流水线：组装提示词 → 调模型 → 校验归一化 → 可选批改。
// 输出无法解析时回填熔断器并换一个平台重试一次
func (svc *parseService) runPipeline(ctx context.Context, req domain.ParseRequest) (domain.ParseOutcome, error) {
	prompt := svc.composer.Compose(req.SubjectHint, req.Mode)
	resp, err := svc.aiSvc.Invoke(ctx, llm.LLMRequest{
		Biz:      llm.BizHomeworkParse,
		Uid:      req.Uid,
		Tid:      shortuuid.New() + "_parse",
		Input:    []string{prompt},
		Images:   req.Images,
		Provider: req.Provider,
	})
	if err != nil {
		return domain.ParseOutcome{}, err
	}
	res, verr := svc.validator.Validate(resp.Answer)
	if verr != nil {
		svc.logger.Warn("模型输出校验失败，换平台重试",
			elog.FieldErr(verr), elog.String("provider", resp.Provider))
		svc.aiSvc.MarkMalformed(resp.Provider)
		res, resp, verr = svc.retryOther(ctx, req, prompt, resp.Provider)
		if verr != nil {
			return domain.ParseOutcome{}, verr
		}
	}
	outcome := domain.ParseOutcome{
		Result:   &res,
		Provider: resp.Provider,
	}
	if req.WithGrading {
		outcome.Grades = svc.gradeSvc.GradeAll(ctx, req.Uid, svc.toQuestions(res))
	}
	return outcome, nil
}

// retryOther 换一个没用过的平台再解析一次，第二次还不行就放弃
func (svc *parseService) retryOther(ctx context.Context, req domain.ParseRequest,
	prompt string, used string) (domain.ParseResult, llm.LLMResponse, error) {
	var other string
	for _, p := range svc.aiSvc.Providers() {
		if p != used {
			other = p
			break
		}
	}
	if other == "" {
		return domain.ParseResult{}, llm.LLMResponse{}, fmt.Errorf("没有可用的备选平台: %w", llm.ErrProviderCall)
	}
	resp, err := svc.aiSvc.Invoke(ctx, llm.LLMRequest{
		Biz:      llm.BizHomeworkParse,
		Uid:      req.Uid,
		Tid:      shortuuid.New() + "_parse",
		Input:    []string{prompt},
		Images:   req.Images,
		Provider: other,
	})
	if err != nil {
		return domain.ParseResult{}, llm.LLMResponse{}, err
	}
	res, verr := svc.validator.Validate(resp.Answer)
	if verr != nil {
		svc.aiSvc.MarkMalformed(resp.Provider)
		return domain.ParseResult{}, llm.LLMResponse{}, verr
	}
	return res, resp, nil
}

func (svc *parseService) toQuestions(res domain.ParseResult) []grading.Question {
	leaves := res.Leaves()
	qs := make([]grading.Question, 0, len(leaves))
	for _, l := range leaves {
		qs = append(qs, grading.Question{
			Id:            l.Id,
			Subject:       string(res.Subject),
			PromptText:    l.PromptText,
			StudentAnswer: l.StudentAnswer,
			StructureType: string(l.StructureType),
		})
	}
	return qs
}

func (svc *parseService) Task(ctx context.Context, uid int64, taskId string) (domain.BackgroundTask, error) {
	task, err := svc.taskRepo.Get(ctx, taskId)
	if err != nil {
		return domain.BackgroundTask{}, err
	}
	// 不能看别人的任务，伪装成不存在
	if task.Uid != uid {
		return domain.BackgroundTask{}, ErrTaskNotFound
	}
	return task, nil
}

func (svc *parseService) check(req *domain.ParseRequest) error {
	if len(req.Images) == 0 {
		return fmt.Errorf("%w: 没有作业照片", ErrInvalidInput)
	}
	if req.Mode == "" {
		req.Mode = domain.ModeHierarchical
	}
	if !req.Mode.IsValid() {
		return fmt.Errorf("%w: 不认识的交付结构 %q", ErrInvalidInput, req.Mode)
	}
	return nil
}

func (svc *parseService) timeout(mode domain.StructureMode) time.Duration {
	if mode == domain.ModeFlat {
		return svc.flatTimeout
	}
	return svc.hierarchicalTimeout
}
