package domain

// Question 批改输入。只带批改需要的字段，和解析结果解耦
type Question struct {
	Id            string
	Subject       string
	PromptText    string
	StudentAnswer string
	StructureType string
}

// IsBlank 没有作答
func (q Question) IsBlank() bool {
	for _, r := range q.StudentAnswer {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// GradeRecord 单题批改结果。挂在解析结果旁边，绝不写回原始提取内容
type GradeRecord struct {
	// 0.0 ~ 1.0：1.0 全对，0.5~0.9 部分正确，0.0 方法错误或者空白
	Score float64 `json:"score"`
	// Score >= 0.9 视为答对
	IsCorrect bool `json:"isCorrect"`
	// 非空白作答必有内容，长度有上限
	Feedback   string  `json:"feedback"`
	Confidence float64 `json:"confidence"`
}
