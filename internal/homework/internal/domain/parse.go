package domain

import (
	"github.com/ecodeclub/homework/internal/grading"
	"github.com/ecodeclub/homework/internal/llm"
)

// ParseRequest 一次作业解析请求
type ParseRequest struct {
	Uid    int64
	Images []llm.Image
	// 调用方对学科的提示，可以为空
	SubjectHint string
	Mode        StructureMode
	// 解析完顺带逐题批改
	WithGrading bool
	// 同步等太久时允许转后台，拿 taskId 回去轮询
	AllowDetach bool
	// 指定首选平台，可以为空
	Provider string
}

// ParseOutcome 同步解析的结果。转后台时只有 TaskId
type ParseOutcome struct {
	Detached bool
	TaskId   string
	Result   *ParseResult
	Grades   map[string]grading.GradeRecord
	// 实际执行了调用的平台
	Provider string
}
