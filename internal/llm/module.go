package llm

import (
	"github.com/ecodeclub/homework/internal/llm/internal/web"
)

type Module struct {
	Svc          Service
	ConfigSvc    ConfigService
	AdminHandler *web.AdminHandler
}
