package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ecodeclub/homework/internal/grading/internal/domain"
	"github.com/ecodeclub/homework/internal/llm"
	"github.com/ecodeclub/homework/internal/pkg/jsonx"
	"github.com/gotomicro/ego/core/elog"
	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/errgroup"
)

const (
	// 单次解析里并发批改的上限。逐题批改相互独立，可以随便并行
	defaultMaxConcurrent = 5
	// 批改调用独立的超时，比解析短得多
	defaultGradeTimeout = 30 * time.Second
	// 反馈长度上限
	maxFeedbackRunes = 500
	// Score 达到这条线算答对
	correctThreshold = 0.9
)

//go:generate mockgen -source=./grade.go -destination=../../mocks/grading.mock.go -package=gradingmocks -typed=true Service
type Service interface {
	// Grade 批改一道题。批改失败只降级这一题，绝不影响整体结果
	Grade(ctx context.Context, uid int64, q domain.Question) domain.GradeRecord
	// GradeAll 批量批改，有界并行，结果按题 id 返回
	GradeAll(ctx context.Context, uid int64, qs []domain.Question) map[string]domain.GradeRecord
}

type llmGradingService struct {
	aiSvc         llm.Service
	maxConcurrent int
	timeout       time.Duration
	logger        *elog.Component
}

func NewLLMGradingService(aiSvc llm.Service) Service {
	return &llmGradingService{
		aiSvc:         aiSvc,
		maxConcurrent: defaultMaxConcurrent,
		timeout:       defaultGradeTimeout,
		logger:        elog.DefaultLogger,
	}
}

func (svc *llmGradingService) Grade(ctx context.Context, uid int64, q domain.Question) domain.GradeRecord {
	// 空白作答不值得花一次调用，直接 0 分
	if q.IsBlank() {
		return domain.GradeRecord{
			Score:      0,
			IsCorrect:  false,
			Feedback:   "没有作答",
			Confidence: 1.0,
		}
	}
	gradeCtx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()
	tid := shortuuid.New()
	resp, err := svc.aiSvc.Invoke(gradeCtx, llm.LLMRequest{
		Uid: uid,
		Tid: tid + "_grade",
		Biz: llm.BizHomeworkGrade,
		// 学科，题干，学生作答
		Input: []string{q.Subject, q.PromptText, q.StudentAnswer},
	})
	if err != nil {
		svc.logger.Error("批改调用失败，降级处理",
			elog.String("qid", q.Id),
			elog.FieldErr(err))
		return unavailableRecord()
	}
	record, err := parseVerdict(resp.Answer)
	if err != nil {
		svc.logger.Error("批改结果解析失败，降级处理",
			elog.String("qid", q.Id),
			elog.FieldErr(err))
		return unavailableRecord()
	}
	return record
}

func (svc *llmGradingService) GradeAll(ctx context.Context, uid int64, qs []domain.Question) map[string]domain.GradeRecord {
	var mu sync.Mutex
	res := make(map[string]domain.GradeRecord, len(qs))
	var eg errgroup.Group
	eg.SetLimit(svc.maxConcurrent)
	for _, q := range qs {
		eg.Go(func() error {
			record := svc.Grade(ctx, uid, q)
			mu.Lock()
			res[q.Id] = record
			mu.Unlock()
			return nil
		})
	}
	// Grade 自己消化所有错误，这里不会有 err
	_ = eg.Wait()
	return res
}

// parseVerdict 解析批改结论。评分就按这里算出来的数走，
// 模型在反馈措辞上的随机性不影响分数
func parseVerdict(answer string) (domain.GradeRecord, error) {
	var verdict struct {
		Score      float64 `json:"score"`
		Feedback   string  `json:"feedback"`
		Confidence float64 `json:"confidence"`
	}
	cleaned := jsonx.StripCodeFences(answer)
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return domain.GradeRecord{}, fmt.Errorf("批改结论不是合法 JSON: %w", err)
	}
	score := clamp01(verdict.Score)
	feedback := strings.TrimSpace(verdict.Feedback)
	if feedback == "" {
		// 模型偶尔只给分不给评语，批改结果不能没有反馈
		if score >= correctThreshold {
			feedback = "回答正确"
		} else {
			feedback = "回答有误"
		}
	}
	return domain.GradeRecord{
		Score:      score,
		IsCorrect:  score >= correctThreshold,
		Feedback:   truncate(feedback, maxFeedbackRunes),
		Confidence: clamp01(verdict.Confidence),
	}, nil
}

func unavailableRecord() domain.GradeRecord {
	return domain.GradeRecord{
		Score:      0,
		IsCorrect:  false,
		Feedback:   "批改服务暂不可用",
		Confidence: 0,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
