package errs

var (
	SystemError         = ErrorCode{Code: 522001, Msg: "系统错误"}
	InvalidInput        = ErrorCode{Code: 522002, Msg: "请求参数非法"}
	MalformedOutput     = ErrorCode{Code: 522003, Msg: "模型输出无法解析"}
	SchemaViolation     = ErrorCode{Code: 522004, Msg: "模型输出结构非法"}
	SyncTimeout         = ErrorCode{Code: 522005, Msg: "解析超时，请稍后重试"}
	ProviderUnavailable = ErrorCode{Code: 522006, Msg: "AI 平台暂不可用"}
	TaskNotFound        = ErrorCode{Code: 522007, Msg: "任务不存在或已过期"}
)

type ErrorCode struct {
	Code int
	Msg  string
}
