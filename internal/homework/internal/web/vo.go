package web

import (
	"github.com/ecodeclub/homework/internal/grading"
	"github.com/ecodeclub/homework/internal/homework/internal/domain"
	"github.com/ecodeclub/homework/internal/llm"
)

type ImageVO struct {
	URL    string `json:"url"`
	Base64 string `json:"base64"`
	MIME   string `json:"mime"`
}

type ParseReq struct {
	Images      []ImageVO `json:"images"`
	SubjectHint string    `json:"subjectHint"`
	// hierarchical 或者 flat，不传默认 hierarchical
	Mode        string `json:"mode"`
	WithGrading bool   `json:"withGrading"`
	AllowDetach bool   `json:"allowDetach"`
	// 指定首选平台，可以不传
	Provider string `json:"provider"`
}

type ParseResp struct {
	Detached bool           `json:"detached"`
	TaskId   string         `json:"taskId,omitempty"`
	Provider string         `json:"provider,omitempty"`
	Result   *ParseResultVO `json:"result,omitempty"`
	// 按题 id 挂批改结果
	Grades map[string]GradeVO `json:"grades,omitempty"`
}

// ParseResultVO 层级交付填 Sections，平铺交付填 Questions
type ParseResultVO struct {
	Subject            string           `json:"subject"`
	SubjectConfidence  float64          `json:"subjectConfidence"`
	Sections           []SectionVO      `json:"sections,omitempty"`
	Questions          []FlatQuestionVO `json:"questions,omitempty"`
	TotalQuestionCount int              `json:"totalQuestionCount"`
}

type SectionVO struct {
	Title         string       `json:"title"`
	Instructions  string       `json:"instructions,omitempty"`
	StructureKind string       `json:"structureKind,omitempty"`
	Questions     []QuestionVO `json:"questions"`
}

type QuestionVO struct {
	Id            string `json:"id"`
	DisplayNumber string `json:"displayNumber"`
	IsComposite   bool   `json:"isComposite"`
	// 大题才有
	SharedInstruction string       `json:"sharedInstruction,omitempty"`
	Subquestions      []QuestionVO `json:"subquestions,omitempty"`
	// 小题才有
	PromptText       string        `json:"promptText,omitempty"`
	StudentAnswer    string        `json:"studentAnswer,omitempty"`
	StructureType    string        `json:"structureType,omitempty"`
	HasVisualElement bool          `json:"hasVisualElement,omitempty"`
	IsBlank          bool          `json:"isBlank,omitempty"`
	Confidence       *ConfidenceVO `json:"recognitionConfidence,omitempty"`
}

type FlatQuestionVO struct {
	Id                  string        `json:"id"`
	DisplayNumber       string        `json:"displayNumber"`
	ParentDisplayNumber string        `json:"parentDisplayNumber,omitempty"`
	SharedInstruction   string        `json:"sharedInstruction,omitempty"`
	PromptText          string        `json:"promptText"`
	StudentAnswer       string        `json:"studentAnswer"`
	StructureType       string        `json:"structureType"`
	HasVisualElement    bool          `json:"hasVisualElement,omitempty"`
	IsBlank             bool          `json:"isBlank,omitempty"`
	Confidence          *ConfidenceVO `json:"recognitionConfidence,omitempty"`
}

type ConfidenceVO struct {
	PromptText    float64 `json:"promptText"`
	StudentAnswer float64 `json:"studentAnswer"`
	Legibility    string  `json:"legibility"`
}

type GradeVO struct {
	Score      float64 `json:"score"`
	IsCorrect  bool    `json:"isCorrect"`
	Feedback   string  `json:"feedback"`
	Confidence float64 `json:"confidence"`
}

type TaskDetailReq struct {
	TaskId string `json:"taskId"`
}

type TaskDetailResp struct {
	TaskId    string             `json:"taskId"`
	Status    string             `json:"status"`
	Result    *ParseResultVO     `json:"result,omitempty"`
	Grades    map[string]GradeVO `json:"grades,omitempty"`
	ErrorCode string             `json:"errorCode,omitempty"`
	ErrorMsg  string             `json:"errorMsg,omitempty"`
	CreatedAt int64              `json:"createdAt"`
}

func newImages(vos []ImageVO) []llm.Image {
	res := make([]llm.Image, 0, len(vos))
	for _, vo := range vos {
		res = append(res, llm.Image{
			URL:    vo.URL,
			Base64: vo.Base64,
			MIME:   vo.MIME,
		})
	}
	return res
}

func newParseResultVO(res *domain.ParseResult, mode domain.StructureMode) *ParseResultVO {
	if res == nil {
		return nil
	}
	vo := &ParseResultVO{
		Subject:            string(res.Subject),
		SubjectConfidence:  res.SubjectConfidence,
		TotalQuestionCount: res.TotalQuestionCount,
	}
	if mode == domain.ModeFlat {
		for _, q := range res.ToFlat() {
			vo.Questions = append(vo.Questions, FlatQuestionVO{
				Id:                  q.Id,
				DisplayNumber:       q.DisplayNumber,
				ParentDisplayNumber: q.ParentDisplayNumber,
				SharedInstruction:   q.SharedInstruction,
				PromptText:          q.PromptText,
				StudentAnswer:       q.StudentAnswer,
				StructureType:       string(q.StructureType),
				HasVisualElement:    q.HasVisualElement,
				IsBlank:             q.IsBlank,
				Confidence:          newConfidenceVO(q.Confidence),
			})
		}
		return vo
	}
	for _, sec := range res.Sections {
		secVO := SectionVO{
			Title:         sec.Title,
			Instructions:  sec.Instructions,
			StructureKind: sec.StructureKind,
		}
		for _, node := range sec.Questions {
			secVO.Questions = append(secVO.Questions, newQuestionVO(node))
		}
		vo.Sections = append(vo.Sections, secVO)
	}
	return vo
}

func newQuestionVO(node domain.QuestionNode) QuestionVO {
	if node.Composite != nil {
		c := node.Composite
		vo := QuestionVO{
			Id:                c.Id,
			DisplayNumber:     c.DisplayNumber,
			IsComposite:       true,
			SharedInstruction: c.SharedInstruction,
		}
		for _, sub := range c.Subquestions {
			vo.Subquestions = append(vo.Subquestions, newLeafVO(sub))
		}
		return vo
	}
	return newLeafVO(*node.Leaf)
}

func newLeafVO(l domain.LeafQuestion) QuestionVO {
	return QuestionVO{
		Id:               l.Id,
		DisplayNumber:    l.DisplayNumber,
		PromptText:       l.PromptText,
		StudentAnswer:    l.StudentAnswer,
		StructureType:    string(l.StructureType),
		HasVisualElement: l.HasVisualElement,
		IsBlank:          l.IsBlank,
		Confidence:       newConfidenceVO(l.Confidence),
	}
}

func newConfidenceVO(c domain.RecognitionConfidence) *ConfidenceVO {
	return &ConfidenceVO{
		PromptText:    c.PromptText,
		StudentAnswer: c.StudentAnswer,
		Legibility:    string(c.Legibility),
	}
}

func newGradeVOs(grades map[string]grading.GradeRecord) map[string]GradeVO {
	if len(grades) == 0 {
		return nil
	}
	res := make(map[string]GradeVO, len(grades))
	for id, g := range grades {
		res[id] = GradeVO{
			Score:      g.Score,
			IsCorrect:  g.IsCorrect,
			Feedback:   g.Feedback,
			Confidence: g.Confidence,
		}
	}
	return res
}
