package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ecodeclub/homework/internal/grading"
	"github.com/ecodeclub/homework/internal/homework/internal/domain"
	"github.com/ecodeclub/homework/internal/homework/internal/event"
	"github.com/ecodeclub/homework/internal/homework/internal/repository"
	"github.com/ecodeclub/homework/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAnswer = `{"subject":"math","subjectConfidence":0.9,
"questions":[{"displayNumber":"1","promptText":"1+1=","studentAnswer":"2",
"structureType":"calculation",
"recognitionConfidence":{"promptText":0.9,"studentAnswer":0.9,"legibility":"clear"}}],
"totalQuestionCount":1}`

// fakeLLM 按调用顺序吐配置好的回答
type fakeLLM struct {
	mu        sync.Mutex
	answers   []llm.LLMResponse
	errs      []error
	requests  []llm.LLMRequest
	malformed []string
	providers []string
	// 不为空时 Invoke 阻塞到它关闭
	block chan struct{}
	// 流式事件
	streamEvents []llm.StreamEvent
}

func (f *fakeLLM) Invoke(ctx context.Context, req llm.LLMRequest) (llm.LLMResponse, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return llm.LLMResponse{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.requests)
	f.requests = append(f.requests, req)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return llm.LLMResponse{}, f.errs[idx]
	}
	if idx < len(f.answers) {
		return f.answers[idx], nil
	}
	return llm.LLMResponse{Answer: validAnswer, Provider: "gpt"}, nil
}

func (f *fakeLLM) Stream(ctx context.Context, req llm.LLMRequest) (chan llm.StreamEvent, string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	ch := make(chan llm.StreamEvent, len(f.streamEvents))
	for _, ev := range f.streamEvents {
		ch <- ev
	}
	close(ch)
	return ch, "gpt", nil
}

func (f *fakeLLM) MarkMalformed(provider string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.malformed = append(f.malformed, provider)
}

func (f *fakeLLM) Providers() []string {
	if len(f.providers) > 0 {
		return f.providers
	}
	return []string{"gpt", "zhipu"}
}

func (f *fakeLLM) Status() []llm.ProviderStatus { return nil }

func (f *fakeLLM) calls() []llm.LLMRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.LLMRequest{}, f.requests...)
}

func (f *fakeLLM) marks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.malformed...)
}

type fakeGrading struct {
	mu    sync.Mutex
	seen  [][]grading.Question
	grade grading.GradeRecord
}

func (f *fakeGrading) Grade(ctx context.Context, uid int64, q grading.Question) grading.GradeRecord {
	return f.grade
}

func (f *fakeGrading) GradeAll(ctx context.Context, uid int64, qs []grading.Question) map[string]grading.GradeRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, qs)
	res := make(map[string]grading.GradeRecord, len(qs))
	for _, q := range qs {
		res[q.Id] = f.grade
	}
	return res
}

type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]domain.BackgroundTask
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[string]domain.BackgroundTask)}
}

func (m *memTaskRepo) Get(ctx context.Context, taskId string) (domain.BackgroundTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[taskId]
	if !ok {
		return domain.BackgroundTask{}, repository.ErrTaskNotFound
	}
	return task, nil
}

func (m *memTaskRepo) Save(ctx context.Context, task domain.BackgroundTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.TaskId] = task
	return nil
}

type memProducer struct {
	mu     sync.Mutex
	events []event.TaskCompletedEvent
}

func (m *memProducer) Produce(ctx context.Context, evt event.TaskCompletedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *memProducer) all() []event.TaskCompletedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]event.TaskCompletedEvent{}, m.events...)
}

func testImages() []llm.Image {
	return []llm.Image{{URL: "https://example.com/hw.jpg"}}
}

func TestParse_同步成功并批改(t *testing.T) {
	t.Parallel()
	ai := &fakeLLM{}
	grader := &fakeGrading{grade: grading.GradeRecord{Score: 1, IsCorrect: true, Feedback: "正确", Confidence: 0.95}}
	svc := NewParseService(ai, grader, newMemTaskRepo(), &memProducer{})

	outcome, err := svc.Parse(context.Background(), domain.ParseRequest{
		Uid:         123,
		Images:      testImages(),
		SubjectHint: "math",
		WithGrading: true,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Detached)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, domain.SubjectMath, outcome.Result.Subject)
	assert.Equal(t, "gpt", outcome.Provider)
	// 批改结果按题 id 挂在旁边
	require.Len(t, outcome.Grades, 1)
	rec, ok := outcome.Grades["q1"]
	require.True(t, ok)
	assert.True(t, rec.IsCorrect)
	// 批改拿到的是原样作答
	require.Len(t, grader.seen, 1)
	assert.Equal(t, "2", grader.seen[0][0].StudentAnswer)
}

func TestParse_参数校验(t *testing.T) {
	t.Parallel()
	svc := NewParseService(&fakeLLM{}, &fakeGrading{}, newMemTaskRepo(), &memProducer{})

	_, err := svc.Parse(context.Background(), domain.ParseRequest{Uid: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Parse(context.Background(), domain.ParseRequest{
		Uid: 1, Images: testImages(), Mode: "tree",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParse_坏输出换平台重试(t *testing.T) {
	t.Parallel()
	ai := &fakeLLM{
		answers: []llm.LLMResponse{
			{Answer: "我无法解析这张图片", Provider: "gpt"},
			{Answer: validAnswer, Provider: "zhipu"},
		},
	}
	svc := NewParseService(ai, &fakeGrading{}, newMemTaskRepo(), &memProducer{})

	outcome, err := svc.Parse(context.Background(), domain.ParseRequest{
		Uid: 1, Images: testImages(),
	})
	require.NoError(t, err)
	assert.Equal(t, "zhipu", outcome.Provider)
	// 坏输出回填给了熔断器
	assert.Equal(t, []string{"gpt"}, ai.marks())
	// 重试指定了另一个平台
	calls := ai.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "zhipu", calls[1].Provider)
}

func TestParse_两次都失败(t *testing.T) {
	t.Parallel()
	ai := &fakeLLM{
		answers: []llm.LLMResponse{
			{Answer: "not json", Provider: "gpt"},
			{Answer: "still not json", Provider: "zhipu"},
		},
	}
	svc := NewParseService(ai, &fakeGrading{}, newMemTaskRepo(), &memProducer{})

	_, err := svc.Parse(context.Background(), domain.ParseRequest{
		Uid: 1, Images: testImages(),
	})
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.Equal(t, []string{"gpt", "zhipu"}, ai.marks())
}

func TestParse_软超时转后台(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	ai := &fakeLLM{block: block}
	repo := newMemTaskRepo()
	producer := &memProducer{}
	svc := NewParseService(ai, &fakeGrading{}, repo, producer,
		WithDetachAfter(20*time.Millisecond),
		WithTimeouts(2*time.Second, 2*time.Second))

	outcome, err := svc.Parse(context.Background(), domain.ParseRequest{
		Uid: 7, Images: testImages(), AllowDetach: true,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Detached)
	require.NotEmpty(t, outcome.TaskId)
	assert.Nil(t, outcome.Result)

	// 脱离的瞬间任务就已经登记了
	task, err := svc.Task(context.Background(), 7, outcome.TaskId)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusRunning, task.Status)
	createdAt := task.CreatedAt
	require.NotZero(t, createdAt)

	// 放行流水线，任务应该走到完成并发出通知
	close(block)
	assert.Eventually(t, func() bool {
		task, err := repo.Get(context.Background(), outcome.TaskId)
		return err == nil && task.Status == domain.TaskStatusCompleted
	}, time.Second, 10*time.Millisecond)
	task, err = repo.Get(context.Background(), outcome.TaskId)
	require.NoError(t, err)
	require.NotNil(t, task.Result)
	assert.Equal(t, 1, task.Result.TotalQuestionCount)
	// 收尾不改登记时的创建时间
	assert.Equal(t, createdAt, task.CreatedAt)
	events := producer.all()
	require.Len(t, events, 1)
	assert.Equal(t, outcome.TaskId, events[0].TaskId)
	assert.Equal(t, string(domain.TaskStatusCompleted), events[0].Status)
}

func TestParse_快速完成不转后台(t *testing.T) {
	t.Parallel()
	repo := newMemTaskRepo()
	producer := &memProducer{}
	svc := NewParseService(&fakeLLM{}, &fakeGrading{}, repo, producer,
		WithDetachAfter(time.Second))

	outcome, err := svc.Parse(context.Background(), domain.ParseRequest{
		Uid: 1, Images: testImages(), AllowDetach: true,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Detached)
	require.NotNil(t, outcome.Result)
	// 内联返回就不该有任务，也不该有通知
	repo.mu.Lock()
	assert.Empty(t, repo.tasks)
	repo.mu.Unlock()
	assert.Empty(t, producer.all())
}

func TestTask_只能查自己的(t *testing.T) {
	t.Parallel()
	repo := newMemTaskRepo()
	require.NoError(t, repo.Save(context.Background(), domain.BackgroundTask{
		TaskId: "t1", Uid: 7, Status: domain.TaskStatusRunning,
	}))
	svc := NewParseService(&fakeLLM{}, &fakeGrading{}, repo, &memProducer{})

	_, err := svc.Task(context.Background(), 8, "t1")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = svc.Task(context.Background(), 7, "no-such-task")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	task, err := svc.Task(context.Background(), 7, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusRunning, task.Status)
}

func collect(t *testing.T, ch chan domain.DeliveryEvent) []domain.DeliveryEvent {
	t.Helper()
	var res []domain.DeliveryEvent
	timeout := time.After(time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return res
			}
			res = append(res, ev)
		case <-timeout:
			t.Fatal("等待流式事件超时")
		}
	}
}

func TestStream_帧序(t *testing.T) {
	t.Parallel()
	ai := &fakeLLM{
		streamEvents: []llm.StreamEvent{
			{Content: "{\"sub", Delta: "{\"sub"},
			{Content: validAnswer, Delta: "..."},
			{Done: true, Tokens: 100, FinishReason: "stop"},
		},
		// Done 之后的 Invoke 是学习建议
		answers: []llm.LLMResponse{
			{Answer: `["复习进位加法","注意书写"]`, Provider: "gpt"},
		},
	}
	svc := NewParseService(ai, &fakeGrading{}, newMemTaskRepo(), &memProducer{})

	ch, err := svc.Stream(context.Background(), domain.ParseRequest{
		Uid: 1, Images: testImages(),
	})
	require.NoError(t, err)
	events := collect(t, ch)
	require.Len(t, events, 5)
	assert.Equal(t, domain.EventStart, events[0].Type)
	assert.Equal(t, "gpt", events[0].Provider)
	assert.Equal(t, domain.EventContent, events[1].Type)
	assert.Equal(t, domain.EventContent, events[2].Type)
	assert.Equal(t, domain.EventEnd, events[3].Type)
	assert.Equal(t, int64(100), events[3].Tokens)
	// 建议严格排在 end 之后
	assert.Equal(t, domain.EventSuggestions, events[4].Type)
	assert.Equal(t, []string{"复习进位加法", "注意书写"}, events[4].Items)
}

func TestStream_建议失败不影响主结果(t *testing.T) {
	t.Parallel()
	ai := &fakeLLM{
		streamEvents: []llm.StreamEvent{
			{Content: validAnswer, Delta: validAnswer},
			{Done: true, FinishReason: "stop"},
		},
		answers: []llm.LLMResponse{
			{Answer: "这不是数组", Provider: "gpt"},
		},
	}
	svc := NewParseService(ai, &fakeGrading{}, newMemTaskRepo(), &memProducer{})

	ch, err := svc.Stream(context.Background(), domain.ParseRequest{
		Uid: 1, Images: testImages(),
	})
	require.NoError(t, err)
	events := collect(t, ch)
	// start, content, end，没有 suggestions 也没有 error
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventEnd, events[2].Type)
}

func TestStream_终态事件携带全量内容(t *testing.T) {
	t.Parallel()
	// 最后一个增量可能跟着终态事件一起到，全量以终态事件上的为准
	ai := &fakeLLM{
		streamEvents: []llm.StreamEvent{
			{Content: "{\"sub", Delta: "{\"sub"},
			{Done: true, Content: validAnswer, FinishReason: "stop"},
		},
	}
	svc := NewParseService(ai, &fakeGrading{}, newMemTaskRepo(), &memProducer{})

	ch, err := svc.Stream(context.Background(), domain.ParseRequest{
		Uid: 1, Images: testImages(),
	})
	require.NoError(t, err)
	events := collect(t, ch)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventEnd, events[2].Type)
	assert.Empty(t, ai.marks())
}

func TestStream_坏输出回填熔断器(t *testing.T) {
	t.Parallel()
	ai := &fakeLLM{
		streamEvents: []llm.StreamEvent{
			{Content: "不是 JSON", Delta: "不是 JSON"},
			{Done: true, FinishReason: "stop"},
		},
	}
	svc := NewParseService(ai, &fakeGrading{}, newMemTaskRepo(), &memProducer{})

	ch, err := svc.Stream(context.Background(), domain.ParseRequest{
		Uid: 1, Images: testImages(),
	})
	require.NoError(t, err)
	events := collect(t, ch)
	// 校验不过就不发 end，失败的终态帧只有 error
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventContent, events[1].Type)
	assert.Equal(t, domain.EventError, events[2].Type)
	assert.Equal(t, []string{"gpt"}, ai.marks())
}

func TestStream_上游出错(t *testing.T) {
	t.Parallel()
	ai := &fakeLLM{
		streamEvents: []llm.StreamEvent{
			{Content: "部分", Delta: "部分"},
			{Error: context.DeadlineExceeded},
		},
	}
	svc := NewParseService(ai, &fakeGrading{}, newMemTaskRepo(), &memProducer{})

	ch, err := svc.Stream(context.Background(), domain.ParseRequest{
		Uid: 1, Images: testImages(),
	})
	require.NoError(t, err)
	events := collect(t, ch)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventStart, events[0].Type)
	assert.Equal(t, domain.EventContent, events[1].Type)
	assert.Equal(t, domain.EventError, events[2].Type)
}
