package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ecodeclub/homework/internal/homework/internal/domain"
	"github.com/ecodeclub/homework/internal/pkg/jsonx"
	"github.com/gotomicro/ego/core/elog"
)

var (
	// ErrMalformedOutput 连 JSON 都解析不出来，只能换个模型重试
	ErrMalformedOutput = fmt.Errorf("模型输出不是合法 JSON")
	// ErrSchemaViolation JSON 合法但结构不符合约定，且不在可修复范围内
	ErrSchemaViolation = fmt.Errorf("模型输出结构非法")
)

var structureTypes = map[domain.StructureType]struct{}{
	domain.StructureShortAnswer:    {},
	domain.StructureMultipleChoice: {},
	domain.StructureFillMultiBlank: {},
	domain.StructureCalculation:    {},
	domain.StructureDiagram:        {},
	domain.StructureLongAnswer:     {},
	domain.StructureSequence:       {},
}

// Validator 把模型的原始输出校验、归一化成 ParseResult。
// 可修复的异常（多空题答案碎片、重复题号）就地修复，其余一律拒绝
type Validator struct {
	logger *elog.Component
}

func NewValidator() *Validator {
	return &Validator{
		logger: elog.DefaultLogger,
	}
}

func (v *Validator) Validate(raw string) (domain.ParseResult, error) {
	cleaned := jsonx.StripCodeFences(raw)
	var out rawParseOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return domain.ParseResult{}, fmt.Errorf("%w: %s", ErrMalformedOutput, err.Error())
	}
	sections := out.Sections
	if len(sections) == 0 {
		if len(out.Questions) == 0 {
			return domain.ParseResult{}, fmt.Errorf("%w: 没有任何题目", ErrSchemaViolation)
		}
		// 模型没分区就当成一个匿名区
		sections = []rawSection{{Questions: out.Questions}}
	}

	res := domain.ParseResult{
		Subject:           domain.ParseSubject(out.Subject),
		SubjectConfidence: clamp01(out.SubjectConfidence),
	}
	seq := 0
	for i, rs := range sections {
		if len(rs.Questions) == 0 {
			return domain.ParseResult{}, fmt.Errorf("%w: 第 %d 个分区没有题目", ErrSchemaViolation, i+1)
		}
		sec := domain.Section{
			Title:         rs.Title,
			Instructions:  rs.Instructions,
			StructureKind: rs.StructureKind,
		}
		qs := mergeDuplicates(rs.Questions)
		for _, rq := range qs {
			node, err := v.buildNode(rq, &seq)
			if err != nil {
				return domain.ParseResult{}, err
			}
			sec.Questions = append(sec.Questions, node)
		}
		res.Sections = append(res.Sections, sec)
	}
	if out.TotalQuestionCount != res.TopLevelCount() {
		return domain.ParseResult{}, fmt.Errorf("%w: 题目总数声称 %d，实际 %d",
			ErrSchemaViolation, out.TotalQuestionCount, res.TopLevelCount())
	}
	res.TotalQuestionCount = out.TotalQuestionCount
	return res, nil
}

func (v *Validator) buildNode(rq rawQuestion, seq *int) (domain.QuestionNode, error) {
	if rq.IsComposite {
		if len(rq.Subquestions) == 0 {
			return domain.QuestionNode{}, fmt.Errorf("%w: 复合题 %q 没有子题",
				ErrSchemaViolation, rq.DisplayNumber)
		}
		subs := mergeDuplicates(rq.Subquestions)
		if err := checkContiguous(subs); err != nil {
			return domain.QuestionNode{}, fmt.Errorf("%w: 复合题 %q %s",
				ErrSchemaViolation, rq.DisplayNumber, err.Error())
		}
		*seq++
		comp := domain.CompositeQuestion{
			Id:                fmt.Sprintf("q%d", *seq),
			DisplayNumber:     rq.DisplayNumber,
			SharedInstruction: rq.SharedInstruction,
		}
		for _, sub := range subs {
			if sub.IsComposite {
				return domain.QuestionNode{}, fmt.Errorf("%w: 复合题 %q 的子题 %q 仍是复合题",
					ErrSchemaViolation, rq.DisplayNumber, sub.DisplayNumber)
			}
			leaf, err := v.buildLeaf(sub, seq)
			if err != nil {
				return domain.QuestionNode{}, err
			}
			comp.Subquestions = append(comp.Subquestions, leaf)
		}
		return domain.NewCompositeNode(comp), nil
	}
	leaf, err := v.buildLeaf(rq, seq)
	if err != nil {
		return domain.QuestionNode{}, err
	}
	return domain.NewLeafNode(leaf), nil
}

func (v *Validator) buildLeaf(rq rawQuestion, seq *int) (domain.LeafQuestion, error) {
	answer := rq.StudentAnswer
	if answer == "" && len(rq.AnswerFragments) > 0 {
		answer = fillFragments(rq.PromptText, rq.AnswerFragments)
		v.logger.Debug("合并多空题答案片段",
			elog.String("displayNumber", rq.DisplayNumber),
			elog.Int("fragments", len(rq.AnswerFragments)))
	}
	blank := rq.IsBlank || strings.TrimSpace(answer) == ""
	if strings.TrimSpace(rq.PromptText) == "" && blank && !rq.IsBlank {
		return domain.LeafQuestion{}, fmt.Errorf("%w: 题目 %q 既没有题干也没有作答",
			ErrSchemaViolation, rq.DisplayNumber)
	}
	st := domain.StructureType(rq.StructureType)
	if _, ok := structureTypes[st]; !ok {
		if st != "" {
			return domain.LeafQuestion{}, fmt.Errorf("%w: 题目 %q 的题型 %q 不在枚举内",
				ErrSchemaViolation, rq.DisplayNumber, st)
		}
		st = domain.StructureShortAnswer
	}
	*seq++
	return domain.LeafQuestion{
		Id:               fmt.Sprintf("q%d", *seq),
		DisplayNumber:    rq.DisplayNumber,
		PromptText:       rq.PromptText,
		StudentAnswer:    answer,
		StructureType:    st,
		HasVisualElement: rq.HasVisualElement,
		IsBlank:          blank,
		Confidence: domain.RecognitionConfidence{
			PromptText:    clamp01(rq.Confidence.PromptText),
			StudentAnswer: clamp01(rq.Confidence.StudentAnswer),
			Legibility:    parseLegibility(rq.Confidence.Legibility),
		},
	}, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func parseLegibility(s string) domain.Legibility {
	switch domain.Legibility(s) {
	case domain.LegibilityClear, domain.LegibilityPartial, domain.LegibilityIllegible:
		return domain.Legibility(s)
	default:
		return domain.LegibilityPartial
	}
}
