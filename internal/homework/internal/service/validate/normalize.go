package validate

import (
	"fmt"
	"strconv"
	"strings"
)

const blankMark = "___"

// fillFragments 把多空题被拆散的答案片段按顺序填回题干的空位。
// 题干 "___ = ___ tens ___ ones" 配上 ["65","6","5"]
// 得到 "65 = 6 tens 5 ones"。空位数对不上就用顿号拼接兜底
func fillFragments(prompt string, fragments []string) string {
	if strings.Count(prompt, blankMark) == len(fragments) {
		out := prompt
		for _, f := range fragments {
			out = strings.Replace(out, blankMark, f, 1)
		}
		return out
	}
	return strings.Join(fragments, "、")
}

// mergeDuplicates 同一题号下出现两道独立小题时合并成一条，
// 作答后面带上各自的题干做区分，不丢任何作答内容。
// 碎片形式的作答先填回题干再参与拼接，免得合并出空串
func mergeDuplicates(qs []rawQuestion) []rawQuestion {
	index := make(map[string]int, len(qs))
	res := make([]rawQuestion, 0, len(qs))
	for _, q := range qs {
		// 复合题、没题号的题不参与合并
		if q.IsComposite || q.DisplayNumber == "" {
			res = append(res, q)
			continue
		}
		i, ok := index[q.DisplayNumber]
		if !ok {
			index[q.DisplayNumber] = len(res)
			res = append(res, q)
			continue
		}
		prev := res[i]
		res[i].PromptText = joinNonEmpty(prev.PromptText, q.PromptText, " / ")
		res[i].StudentAnswer = fmt.Sprintf("%s (%s), %s (%s)",
			resolvedAnswer(prev), prev.PromptText, resolvedAnswer(q), q.PromptText)
		res[i].AnswerFragments = nil
		if prev.Confidence.StudentAnswer > q.Confidence.StudentAnswer {
			res[i].Confidence = q.Confidence
		}
	}
	return res
}

// resolvedAnswer 作答只给了碎片时先填回去，合并用的是完整作答
func resolvedAnswer(q rawQuestion) string {
	if q.StudentAnswer == "" && len(q.AnswerFragments) > 0 {
		return fillFragments(q.PromptText, q.AnswerFragments)
	}
	return q.StudentAnswer
}

func joinNonEmpty(a, b, sep string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + sep + b
}

// checkContiguous 子题标号必须连续，a、b、d 这种缺口说明漏识别了一道题，
// 宁可整体拒绝也不能悄悄交付缺题的结果。识别不了的标号体系不做检查
func checkContiguous(qs []rawQuestion) error {
	if len(qs) < 2 {
		return nil
	}
	prev, ok := labelOrdinal(qs[0].DisplayNumber)
	if !ok {
		return nil
	}
	prevLabel := qs[0].DisplayNumber
	for _, q := range qs[1:] {
		cur, ok := labelOrdinal(q.DisplayNumber)
		if !ok {
			return nil
		}
		if cur != prev+1 {
			return fmt.Errorf("子题标号不连续：%q 之后是 %q", prevLabel, q.DisplayNumber)
		}
		prev = cur
		prevLabel = q.DisplayNumber
	}
	return nil
}

// labelOrdinal 把 a/b/c、1/2/3、①②③ 这类标号转成序号
func labelOrdinal(label string) (int, bool) {
	s := strings.Trim(strings.TrimSpace(label), "().、 ")
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	runes := []rune(s)
	if len(runes) == 1 {
		r := runes[0]
		switch {
		case r >= 'a' && r <= 'z':
			return int(r-'a') + 1, true
		case r >= 'A' && r <= 'Z':
			return int(r-'A') + 1, true
		case r >= '①' && r <= '⑳':
			return int(r-'①') + 1, true
		}
	}
	return 0, false
}
