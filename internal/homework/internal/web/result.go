package web

import (
	"github.com/ecodeclub/ginx"
	"github.com/ecodeclub/homework/internal/homework/internal/errs"
)

var (
	systemErrorResult = ginx.Result{
		Code: errs.SystemError.Code,
		Msg:  errs.SystemError.Msg,
	}
	invalidInputResult = ginx.Result{
		Code: errs.InvalidInput.Code,
		Msg:  errs.InvalidInput.Msg,
	}
	malformedOutputResult = ginx.Result{
		Code: errs.MalformedOutput.Code,
		Msg:  errs.MalformedOutput.Msg,
	}
	schemaViolationResult = ginx.Result{
		Code: errs.SchemaViolation.Code,
		Msg:  errs.SchemaViolation.Msg,
	}
	syncTimeoutResult = ginx.Result{
		Code: errs.SyncTimeout.Code,
		Msg:  errs.SyncTimeout.Msg,
	}
	providerUnavailableResult = ginx.Result{
		Code: errs.ProviderUnavailable.Code,
		Msg:  errs.ProviderUnavailable.Msg,
	}
	taskNotFoundResult = ginx.Result{
		Code: errs.TaskNotFound.Code,
		Msg:  errs.TaskNotFound.Msg,
	}
)
