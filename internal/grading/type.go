package grading

import (
	"github.com/ecodeclub/homework/internal/grading/internal/domain"
	"github.com/ecodeclub/homework/internal/grading/internal/service"
)

type Question = domain.Question
type GradeRecord = domain.GradeRecord

// Service 方便测试
type Service = service.Service
