package validate

// 模型按约定输出的原始结构。
// 模型是不可信的生成方，这里的所有字段都只是"声称"，
// 要经过校验和归一化才能变成 domain.ParseResult

type rawParseOutput struct {
	Subject           string       `json:"subject"`
	SubjectConfidence float64      `json:"subjectConfidence"`
	Sections          []rawSection `json:"sections"`
	// 平铺输出时模型可能不分区，题目直接在顶层
	Questions          []rawQuestion `json:"questions"`
	TotalQuestionCount int           `json:"totalQuestionCount"`
}

type rawSection struct {
	Title         string        `json:"title"`
	Instructions  string        `json:"instructions"`
	StructureKind string        `json:"structureKind"`
	Questions     []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	DisplayNumber     string        `json:"displayNumber"`
	IsComposite       bool          `json:"isComposite"`
	SharedInstruction string        `json:"sharedInstruction"`
	Subquestions      []rawQuestion `json:"subquestions"`

	PromptText    string `json:"promptText"`
	StudentAnswer string `json:"studentAnswer"`
	// 多空题模型经常把每个空单独给一个片段
	AnswerFragments  []string      `json:"answerFragments"`
	StructureType    string        `json:"structureType"`
	HasVisualElement bool          `json:"hasVisualElement"`
	IsBlank          bool          `json:"isBlank"`
	Confidence       rawConfidence `json:"recognitionConfidence"`
}

type rawConfidence struct {
	PromptText    float64 `json:"promptText"`
	StudentAnswer float64 `json:"studentAnswer"`
	Legibility    string  `json:"legibility"`
}
