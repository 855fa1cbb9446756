package web

type Config struct {
	Id             int64   `json:"id"`
	Biz            string  `json:"biz"`
	MaxInput       int     `json:"maxInput"`
	Model          string  `json:"model"`
	Price          int64   `json:"price"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"topP"`
	SystemPrompt   string  `json:"systemPrompt"`
	PromptTemplate string  `json:"promptTemplate"`
}

type ConfigRequest struct {
	Config Config `json:"config"`
}

type ConfigInfoReq struct {
	Id int64 `json:"id"`
}

// ProviderStatus 熔断器诊断信息
type ProviderStatus struct {
	Provider            string `json:"provider"`
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	LastFailureTime     int64  `json:"lastFailureTime"`
	NextAttemptTime     int64  `json:"nextAttemptTime"`
	TotalRequests       int64  `json:"totalRequests"`
	SuccessfulRequests  int64  `json:"successfulRequests"`
	FailedRequests      int64  `json:"failedRequests"`
	CircuitOpenCount    int64  `json:"circuitOpenCount"`
}
