package domain

import "strings"

// StructureMode 交付结构：层级结构保留大题套小题，平铺结构把小题全部展开
type StructureMode string

const (
	ModeHierarchical StructureMode = "hierarchical"
	ModeFlat         StructureMode = "flat"
)

func (m StructureMode) IsValid() bool {
	return m == ModeHierarchical || m == ModeFlat
}

// Subject 学科。封闭枚举 + "other:xxx" 逃逸
type Subject string

const (
	SubjectMath      Subject = "math"
	SubjectChinese   Subject = "chinese"
	SubjectEnglish   Subject = "english"
	SubjectPhysics   Subject = "physics"
	SubjectChemistry Subject = "chemistry"
	SubjectBiology   Subject = "biology"
	SubjectScience   Subject = "science"
)

const otherPrefix = "other:"

// ParseSubject 不认识的学科统一落到 other:xxx，不报错
func ParseSubject(s string) Subject {
	sub := Subject(strings.TrimSpace(strings.ToLower(s)))
	switch sub {
	case SubjectMath, SubjectChinese, SubjectEnglish,
		SubjectPhysics, SubjectChemistry, SubjectBiology, SubjectScience:
		return sub
	}
	if strings.HasPrefix(string(sub), otherPrefix) {
		return sub
	}
	return Subject(otherPrefix + string(sub))
}

// IsKnown 是否在封闭枚举里
func (s Subject) IsKnown() bool {
	return !strings.HasPrefix(string(s), otherPrefix)
}

// StructureType 题型
type StructureType string

const (
	StructureShortAnswer    StructureType = "short-answer"
	StructureMultipleChoice StructureType = "multiple-choice"
	StructureFillMultiBlank StructureType = "fill-in-multi-blank"
	StructureCalculation    StructureType = "calculation"
	StructureDiagram        StructureType = "diagram"
	StructureLongAnswer     StructureType = "long-answer"
	StructureSequence       StructureType = "sequence"
)

// Legibility 字迹可读程度
type Legibility string

const (
	LegibilityClear     Legibility = "clear"
	LegibilityPartial   Legibility = "partial"
	LegibilityIllegible Legibility = "illegible"
)

// RecognitionConfidence 识别置信度
type RecognitionConfidence struct {
	PromptText    float64
	StudentAnswer float64
	Legibility    Legibility
}

// LeafQuestion 可以独立批改的最小单位。
// StudentAnswer 是从照片上原样抄下来的学生作答，
// 任何环节都不许把它"修正"成算出来的正确答案
type LeafQuestion struct {
	Id            string
	DisplayNumber string
	PromptText    string
	StudentAnswer string
	StructureType StructureType
	// 题目带图或者图表
	HasVisualElement bool
	// 明确空白的题，题干和作答都可以为空
	IsBlank    bool
	Confidence RecognitionConfidence
}

// CompositeQuestion 一条共享说明下挂多个带标号小题的大题
type CompositeQuestion struct {
	Id            string
	DisplayNumber string
	// 引出整组小题的共享说明
	SharedInstruction string
	Subquestions      []LeafQuestion
}

// QuestionNode 标签联合：大题或者独立小题，恰好一个非 nil。
// 消费方必须两个分支都处理
type QuestionNode struct {
	Composite *CompositeQuestion
	Leaf      *LeafQuestion
}

func NewCompositeNode(c CompositeQuestion) QuestionNode {
	return QuestionNode{Composite: &c}
}

func NewLeafNode(l LeafQuestion) QuestionNode {
	return QuestionNode{Leaf: &l}
}

func (n QuestionNode) DisplayNumber() string {
	if n.Composite != nil {
		return n.Composite.DisplayNumber
	}
	if n.Leaf != nil {
		return n.Leaf.DisplayNumber
	}
	return ""
}

// Section 题目分区，比如"一、选择题"
type Section struct {
	Title        string
	Instructions string
	// 分区的结构类型，比如选择题区、计算题区
	StructureKind string
	Questions     []QuestionNode
}

// ParseResult 一次解析的最终产物，校验通过之后不再修改
type ParseResult struct {
	Subject           Subject
	SubjectConfidence float64
	Sections          []Section
	// 顶层题目数，大题算一道
	TotalQuestionCount int
}

// TopLevelCount 数顶层节点，大题算一个
func (r ParseResult) TopLevelCount() int {
	var count int
	for _, sec := range r.Sections {
		count += len(sec.Questions)
	}
	return count
}

// Leaves 拿到所有可批改的小题，大题展开
func (r ParseResult) Leaves() []LeafQuestion {
	var res []LeafQuestion
	for _, sec := range r.Sections {
		for _, node := range sec.Questions {
			switch {
			case node.Composite != nil:
				res = append(res, node.Composite.Subquestions...)
			case node.Leaf != nil:
				res = append(res, *node.Leaf)
			}
		}
	}
	return res
}

// FlatQuestion 平铺模式下的单条记录，小题带着原始的大题标号
type FlatQuestion struct {
	Id                  string
	DisplayNumber       string
	ParentDisplayNumber string
	SharedInstruction   string
	PromptText          string
	StudentAnswer       string
	StructureType       StructureType
	HasVisualElement    bool
	IsBlank             bool
	Confidence          RecognitionConfidence
}

// ToFlat 把层级结构展开成平铺结构，保持绝对顺序，不丢任何作答内容
func (r ParseResult) ToFlat() []FlatQuestion {
	var res []FlatQuestion
	for _, sec := range r.Sections {
		for _, node := range sec.Questions {
			switch {
			case node.Composite != nil:
				c := node.Composite
				for _, sub := range c.Subquestions {
					res = append(res, FlatQuestion{
						Id:                  sub.Id,
						DisplayNumber:       sub.DisplayNumber,
						ParentDisplayNumber: c.DisplayNumber,
						SharedInstruction:   c.SharedInstruction,
						PromptText:          sub.PromptText,
						StudentAnswer:       sub.StudentAnswer,
						StructureType:       sub.StructureType,
						HasVisualElement:    sub.HasVisualElement,
						IsBlank:             sub.IsBlank,
						Confidence:          sub.Confidence,
					})
				}
			case node.Leaf != nil:
				l := node.Leaf
				res = append(res, FlatQuestion{
					Id:               l.Id,
					DisplayNumber:    l.DisplayNumber,
					PromptText:       l.PromptText,
					StudentAnswer:    l.StudentAnswer,
					StructureType:    l.StructureType,
					HasVisualElement: l.HasVisualElement,
					IsBlank:          l.IsBlank,
					Confidence:       l.Confidence,
				})
			}
		}
	}
	return res
}
