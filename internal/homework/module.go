package homework

import (
	"github.com/ecodeclub/homework/internal/homework/internal/web"
)

type Module struct {
	Svc Service
	Hdl *web.Handler
}
