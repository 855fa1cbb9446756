package validate

import (
	"testing"

	"github.com/ecodeclub/homework/internal/homework/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_层级结构(t *testing.T) {
	t.Parallel()
	raw := `{
  "subject": "math",
  "subjectConfidence": 0.95,
  "sections": [{
    "title": "一、计算题",
    "questions": [
      {
        "displayNumber": "1",
        "isComposite": true,
        "sharedInstruction": "用竖式计算",
        "subquestions": [
          {"displayNumber": "a", "promptText": "12 + 34 =", "studentAnswer": "46",
           "structureType": "calculation",
           "recognitionConfidence": {"promptText": 0.99, "studentAnswer": 0.9, "legibility": "clear"}},
          {"displayNumber": "b", "promptText": "56 - 7 =", "studentAnswer": "49",
           "structureType": "calculation",
           "recognitionConfidence": {"promptText": 0.99, "studentAnswer": 0.85, "legibility": "clear"}}
        ]
      },
      {"displayNumber": "2", "promptText": "最大的两位数是多少", "studentAnswer": "99",
       "structureType": "short-answer",
       "recognitionConfidence": {"promptText": 0.98, "studentAnswer": 0.97, "legibility": "clear"}}
    ]
  }],
  "totalQuestionCount": 2
}`
	v := NewValidator()
	res, err := v.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectMath, res.Subject)
	assert.Equal(t, 2, res.TotalQuestionCount)
	require.Len(t, res.Sections, 1)
	require.Len(t, res.Sections[0].Questions, 2)

	comp := res.Sections[0].Questions[0].Composite
	require.NotNil(t, comp)
	assert.Nil(t, res.Sections[0].Questions[0].Leaf)
	assert.Equal(t, "用竖式计算", comp.SharedInstruction)
	require.Len(t, comp.Subquestions, 2)
	assert.Equal(t, "46", comp.Subquestions[0].StudentAnswer)

	leaf := res.Sections[0].Questions[1].Leaf
	require.NotNil(t, leaf)
	assert.Equal(t, "99", leaf.StudentAnswer)
	// id 按遍历顺序生成
	assert.Equal(t, "q1", comp.Id)
	assert.Equal(t, "q2", comp.Subquestions[0].Id)
	assert.Equal(t, "q4", leaf.Id)
}

func TestValidator_多空题答案片段合并(t *testing.T) {
	t.Parallel()
	raw := "```json\n" + `{
  "subject": "math",
  "subjectConfidence": 0.9,
  "questions": [
    {"displayNumber": "1", "promptText": "___ = ___ tens ___ ones",
     "answerFragments": ["65", "6", "5"],
     "structureType": "fill-in-multi-blank",
     "recognitionConfidence": {"promptText": 0.9, "studentAnswer": 0.8, "legibility": "clear"}}
  ],
  "totalQuestionCount": 1
}` + "\n```"
	res, err := NewValidator().Validate(raw)
	require.NoError(t, err)
	leaf := res.Sections[0].Questions[0].Leaf
	require.NotNil(t, leaf)
	assert.Equal(t, "65 = 6 tens 5 ones", leaf.StudentAnswer)
	assert.False(t, leaf.IsBlank)
}

func TestValidator_重复题号合并(t *testing.T) {
	t.Parallel()
	raw := `{
  "subject": "english",
  "subjectConfidence": 0.9,
  "questions": [
    {"displayNumber": "3", "promptText": "letter right of o", "studentAnswer": "r",
     "structureType": "short-answer",
     "recognitionConfidence": {"promptText": 0.9, "studentAnswer": 0.9, "legibility": "clear"}},
    {"displayNumber": "3", "promptText": "letter left of t", "studentAnswer": "r",
     "structureType": "short-answer",
     "recognitionConfidence": {"promptText": 0.9, "studentAnswer": 0.7, "legibility": "partial"}}
  ],
  "totalQuestionCount": 1
}`
	res, err := NewValidator().Validate(raw)
	require.NoError(t, err)
	require.Equal(t, 1, res.TopLevelCount())
	leaf := res.Sections[0].Questions[0].Leaf
	require.NotNil(t, leaf)
	assert.Equal(t, "r (letter right of o), r (letter left of t)", leaf.StudentAnswer)
	// 合并后取更低的那份置信度
	assert.Equal(t, 0.7, leaf.Confidence.StudentAnswer)
}

func TestValidator_重复题号合并碎片作答(t *testing.T) {
	t.Parallel()
	// 第一道是碎片形式的作答，合并前先填回题干
	raw := `{
  "subject": "math",
  "subjectConfidence": 0.9,
  "questions": [
    {"displayNumber": "2", "promptText": "___ + ___ = 10",
     "answerFragments": ["3", "7"],
     "structureType": "fill-in-multi-blank",
     "recognitionConfidence": {"promptText": 0.9, "studentAnswer": 0.8, "legibility": "clear"}},
    {"displayNumber": "2", "promptText": "10 - 4 =", "studentAnswer": "6",
     "structureType": "calculation",
     "recognitionConfidence": {"promptText": 0.9, "studentAnswer": 0.9, "legibility": "clear"}}
  ],
  "totalQuestionCount": 1
}`
	res, err := NewValidator().Validate(raw)
	require.NoError(t, err)
	require.Equal(t, 1, res.TopLevelCount())
	leaf := res.Sections[0].Questions[0].Leaf
	require.NotNil(t, leaf)
	assert.Equal(t, "3 + 7 = 10 (___ + ___ = 10), 6 (10 - 4 =)", leaf.StudentAnswer)
	assert.False(t, leaf.IsBlank)
}

func TestValidator_非法输出(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{
			name:    "不是 JSON",
			raw:     "好的，我来帮你解析这张图片",
			wantErr: ErrMalformedOutput,
		},
		{
			name:    "没有任何题目",
			raw:     `{"subject": "math", "totalQuestionCount": 0}`,
			wantErr: ErrSchemaViolation,
		},
		{
			name: "复合题没有子题",
			raw: `{"subject": "math",
  "questions": [{"displayNumber": "1", "isComposite": true}],
  "totalQuestionCount": 1}`,
			wantErr: ErrSchemaViolation,
		},
		{
			name: "子题标号有缺口",
			raw: `{"subject": "math",
  "questions": [{"displayNumber": "1", "isComposite": true, "subquestions": [
    {"displayNumber": "a", "promptText": "p1", "studentAnswer": "x"},
    {"displayNumber": "d", "promptText": "p2", "studentAnswer": "y"}
  ]}],
  "totalQuestionCount": 1}`,
			wantErr: ErrSchemaViolation,
		},
		{
			name: "题目总数对不上",
			raw: `{"subject": "math",
  "questions": [{"displayNumber": "1", "promptText": "p", "studentAnswer": "x"}],
  "totalQuestionCount": 3}`,
			wantErr: ErrSchemaViolation,
		},
		{
			name: "题干作答双空又没标空白",
			raw: `{"subject": "math",
  "questions": [{"displayNumber": "1", "structureType": "short-answer"}],
  "totalQuestionCount": 1}`,
			wantErr: ErrSchemaViolation,
		},
		{
			name: "题型不在枚举内",
			raw: `{"subject": "math",
  "questions": [{"displayNumber": "1", "promptText": "p", "studentAnswer": "x",
    "structureType": "essay-writing"}],
  "totalQuestionCount": 1}`,
			wantErr: ErrSchemaViolation,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewValidator().Validate(tc.raw)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidator_空白题(t *testing.T) {
	t.Parallel()
	raw := `{"subject": "math",
  "questions": [
    {"displayNumber": "1", "promptText": "1+1=", "studentAnswer": "", "isBlank": true},
    {"displayNumber": "2", "promptText": "2+2=", "studentAnswer": "  "}
  ],
  "totalQuestionCount": 2}`
	res, err := NewValidator().Validate(raw)
	require.NoError(t, err)
	leaves := res.Leaves()
	require.Len(t, leaves, 2)
	assert.True(t, leaves[0].IsBlank)
	// 没标空白但作答是空串，归一化成空白题
	assert.True(t, leaves[1].IsBlank)
	// 没给题型的兜底
	assert.Equal(t, domain.StructureShortAnswer, leaves[0].StructureType)
}

func TestValidator_未知学科(t *testing.T) {
	t.Parallel()
	raw := `{"subject": "Astronomy", "subjectConfidence": 1.5,
  "questions": [{"displayNumber": "1", "promptText": "p", "studentAnswer": "x"}],
  "totalQuestionCount": 1}`
	res, err := NewValidator().Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.Subject("other:astronomy"), res.Subject)
	assert.False(t, res.Subject.IsKnown())
	assert.Equal(t, 1.0, res.SubjectConfidence)
}

func TestParseResult_平铺转换(t *testing.T) {
	t.Parallel()
	raw := `{"subject": "math",
  "sections": [{"questions": [
    {"displayNumber": "1", "isComposite": true, "sharedInstruction": "看图回答",
     "subquestions": [
       {"displayNumber": "a", "promptText": "p1", "studentAnswer": "x"},
       {"displayNumber": "b", "promptText": "p2", "studentAnswer": "y"}
     ]},
    {"displayNumber": "2", "promptText": "p3", "studentAnswer": "z"}
  ]}],
  "totalQuestionCount": 2}`
	res, err := NewValidator().Validate(raw)
	require.NoError(t, err)
	flat := res.ToFlat()
	require.Len(t, flat, 3)
	// 展开保持绝对顺序，小题带着大题的标号和共享说明
	assert.Equal(t, "1", flat[0].ParentDisplayNumber)
	assert.Equal(t, "看图回答", flat[0].SharedInstruction)
	assert.Equal(t, "b", flat[1].DisplayNumber)
	assert.Equal(t, "", flat[2].ParentDisplayNumber)
	assert.Equal(t, "z", flat[2].StudentAnswer)
}

func TestFillFragments(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		prompt    string
		fragments []string
		want      string
	}{
		{
			name:      "空位数匹配按序填回",
			prompt:    "___ = ___ tens ___ ones",
			fragments: []string{"65", "6", "5"},
			want:      "65 = 6 tens 5 ones",
		},
		{
			name:      "空位数不匹配兜底拼接",
			prompt:    "写出两个偶数",
			fragments: []string{"2", "4"},
			want:      "2、4",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, fillFragments(tc.prompt, tc.fragments))
		})
	}
}

func TestLabelOrdinal(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		label string
		want  int
		ok    bool
	}{
		{label: "a", want: 1, ok: true},
		{label: "(c)", want: 3, ok: true},
		{label: "3", want: 3, ok: true},
		{label: "②", want: 2, ok: true},
		{label: "B", want: 2, ok: true},
		{label: "甲", ok: false},
		{label: "", ok: false},
	}
	for _, tc := range testCases {
		got, ok := labelOrdinal(tc.label)
		assert.Equal(t, tc.ok, ok, tc.label)
		if ok {
			assert.Equal(t, tc.want, got, tc.label)
		}
	}
}
