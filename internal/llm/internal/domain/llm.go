package domain

import (
	"fmt"

	"github.com/ecodeclub/ekit/slice"
)

const (
	// BizHomeworkParse 拍照作业解析
	BizHomeworkParse = "homework_parse"
	// BizHomeworkGrade 逐题批改
	BizHomeworkGrade = "homework_grade"
	// BizHomeworkSuggest 解析完成之后的学习建议，属于二次增强
	BizHomeworkSuggest = "homework_suggest"
)

type LLMRequest struct {
	Biz string
	Uid int64
	// 请求id
	Tid string
	// 用户的输入
	Input []string
	// 作业照片，视觉模型的输入
	Images []Image
	// 调用方指定的首选平台，可以为空
	Provider string
	// 业务相关的配置
	Config BizConfig

	// prompt 将 input 和 PromptTemplate 结合之后生成的正儿八经的 Prompt
	prompt string
}

func (req *LLMRequest) Prompt() string {
	if req.prompt == "" {
		args := slice.Map(req.Input, func(idx int, src string) any {
			return src
		})
		req.prompt = fmt.Sprintf(req.Config.PromptTemplate, args...)
	}
	return req.prompt
}

// Image 一张作业照片。优先用 URL，没有 URL 就用 base64
type Image struct {
	URL    string
	Base64 string
	// image/jpeg 之类的
	MIME string
}

type LLMResponse struct {
	// 花费的token
	Tokens int64
	// 花费的金额
	Amount int64
	// llm 的回答
	Answer string
	// 真正执行了调用的平台
	Provider string
}

type BizConfig struct {
	Id  int64
	Biz string
	// 使用的模型
	Model string
	// 多少分钱/1000 token
	Price int64

	Temperature float64
	TopP        float64

	// 系统 Prompt
	SystemPrompt string
	// 允许的最长输入
	// 这里我们不用计算 token，只需要简单约束一下字符串长度就可以
	MaxInput int
	// 提示词模板，一般使用 %s
	PromptTemplate string
	Utime          int64
}

type StreamEvent struct {
	// 累积内容，客户端可以直接用最新快照
	Content string
	// 本次新增的内容，客户端也可以增量重建
	Delta string
	// 错误
	Error error
	// 是否结束
	Done bool
	// 结束时才有的统计
	Tokens       int64
	FinishReason string
}

type LLMRecord struct {
	Id             int64
	Tid            string
	Uid            int64
	Biz            string
	Tokens         int64
	Amount         int64
	Input          []string
	Status         RecordStatus
	Provider       string
	PromptTemplate string
	Answer         string
	Ctime          int64
	Utime          int64
}

type RecordStatus uint8

func (g RecordStatus) ToUint8() uint8 {
	return uint8(g)
}

const (
	RecordStatusProcessing RecordStatus = 0
	RecordStatusSuccess    RecordStatus = 1
	RecordStatusFailed     RecordStatus = 2
)

// ProviderStatus 熔断器的诊断信息，管理端用
type ProviderStatus struct {
	Provider            string
	State               string
	ConsecutiveFailures int
	LastFailureTime     int64
	NextAttemptTime     int64
	TotalRequests       int64
	SuccessfulRequests  int64
	FailedRequests      int64
	CircuitOpenCount    int64
}
