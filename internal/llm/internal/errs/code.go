package errs

var (
	SystemError  = ErrorCode{Code: 521001, Msg: "系统错误"}
	CircuitOpen  = ErrorCode{Code: 521002, Msg: "AI 平台熔断中，请稍后重试"}
	ProviderCall = ErrorCode{Code: 521003, Msg: "AI 平台调用失败"}
)

type ErrorCode struct {
	Code int
	Msg  string
}
