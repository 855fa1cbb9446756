package web

import (
	"github.com/ecodeclub/ginx"
	"github.com/ecodeclub/homework/internal/llm/internal/errs"
)

var (
	systemErrorResult = ginx.Result{
		Code: errs.SystemError.Code,
		Msg:  errs.SystemError.Msg,
	}
)
