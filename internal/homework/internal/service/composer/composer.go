package composer

import (
	"strings"

	"github.com/ecodeclub/homework/internal/homework/internal/domain"
)

// 通用提取规则，任何学科都适用
const universalRules = `你是一个作业照片解析助手。仔细查看整张作业照片，并遵守以下规则：
1. 按从上到下、从左到右的顺序扫描整页，不要漏掉页面边缘和角落的题目；
2. 学生作答必须逐字照抄，哪怕答案明显算错、写错、拼错，也绝对不许替学生"改对"；
3. 一道题有多个空的，把每个空的作答按题干顺序合起来记成一条作答；
4. 大题下面的小题要扫描到底，不要在遇到有名字的标号之后就停下来；
5. 一个题号下面如果实际包含多道独立的题，每道都要提取出来，不许只取第一道；
6. 学生没有作答的题保留题干并标记 isBlank 为 true；
7. 只输出 JSON，不要输出任何解释、寒暄或 Markdown 代码块。`

// 学科增强规则，学科不确定时只用通用规则
var subjectRules = map[domain.Subject]string{
	domain.SubjectMath:      quantitativeRules,
	domain.SubjectPhysics:   quantitativeRules,
	domain.SubjectChemistry: quantitativeRules,
	domain.SubjectChinese:   languageRules,
	domain.SubjectEnglish:   languageRules,
	domain.SubjectScience:   visualRules,
	domain.SubjectBiology:   visualRules,
}

const quantitativeRules = `这是一份理科作业，额外注意：
- 数字后面的单位（厘米、千克、元等）是作答的一部分，必须保留；
- 竖式、算式、分数按学生写的原样转写，不要化简；
- 题干里的占位空格用 ___ 表示。`

const languageRules = `这是一份语言类作业，额外注意：
- 拼写错误、错别字、拼音标注原样保留；
- 学生写的标点也是作答的一部分；
- 抄写题、默写题的每一行都要提取。`

const visualRules = `这是一份带图表的作业，额外注意：
- 题目依赖图片、图表或实验装置的，把 hasVisualElement 标为 true；
- 图里的标注文字如果是学生写的，算作答；
- 连线题把学生连的对应关系用文字描述出来。`

const hierarchicalInstruction = `输出时保留大题套小题的层级：
大题用 isComposite 为 true 的节点表示，共享说明放在 sharedInstruction，
小题放进 subquestions 数组。独立的题直接作为叶子节点输出。`

const flatInstruction = `输出时把所有小题展开成平铺列表：
每道小题单独成条，isComposite 一律为 false，不需要 subquestions。`

const schemaTemplate = `输出的 JSON 必须符合这个结构：
{
  "subject": "math|chinese|english|physics|chemistry|biology|science|其他学科名",
  "subjectConfidence": 0.0到1.0,
  "sections": [{
    "title": "分区标题，没有就留空",
    "instructions": "分区说明",
    "structureKind": "分区结构类型",
    "questions": [{
      "displayNumber": "题号，照抄页面上的写法",
      "isComposite": false,
      "sharedInstruction": "仅大题需要",
      "subquestions": [],
      "promptText": "题干原文",
      "studentAnswer": "学生作答原文",
      "structureType": "short-answer|multiple-choice|fill-in-multi-blank|calculation|diagram|long-answer|sequence",
      "hasVisualElement": false,
      "isBlank": false,
      "recognitionConfidence": {"promptText": 0.0到1.0, "studentAnswer": 0.0到1.0, "legibility": "clear|partial|illegible"}
    }]
  }],
  "totalQuestionCount": 顶层题目数量，大题算一道
}`

// Composer 组装解析提示词。纯函数，没有任何外部依赖
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Compose 根据学科提示和交付结构拼出完整的解析提示词。
// subjectHint 传空串表示学科未知，这时只用通用规则
func (c *Composer) Compose(subjectHint string, mode domain.StructureMode) string {
	parts := []string{universalRules}
	if subjectHint != "" {
		if rules, ok := subjectRules[domain.ParseSubject(subjectHint)]; ok {
			parts = append(parts, rules)
		}
	}
	if mode == domain.ModeFlat {
		parts = append(parts, flatInstruction)
	} else {
		parts = append(parts, hierarchicalInstruction)
	}
	parts = append(parts, schemaTemplate)
	return strings.Join(parts, "\n\n")
}
