package homework

import (
	"github.com/ecodeclub/homework/internal/homework/internal/domain"
	"github.com/ecodeclub/homework/internal/homework/internal/service"
	"github.com/ecodeclub/homework/internal/homework/internal/web"
)

type ParseRequest = domain.ParseRequest
type ParseOutcome = domain.ParseOutcome
type ParseResult = domain.ParseResult
type BackgroundTask = domain.BackgroundTask
type DeliveryEvent = domain.DeliveryEvent
type StructureMode = domain.StructureMode
type Subject = domain.Subject
type Service = service.Service
type Handler = web.Handler

const (
	ModeHierarchical = domain.ModeHierarchical
	ModeFlat         = domain.ModeFlat
)

var (
	ErrInvalidInput    = service.ErrInvalidInput
	ErrSyncTimeout     = service.ErrSyncTimeout
	ErrTaskNotFound    = service.ErrTaskNotFound
	ErrMalformedOutput = service.ErrMalformedOutput
	ErrSchemaViolation = service.ErrSchemaViolation
)
