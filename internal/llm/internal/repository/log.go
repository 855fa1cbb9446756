package repository

import (
	"context"

	"github.com/ecodeclub/ekit/sqlx"
	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/ecodeclub/homework/internal/llm/internal/repository/dao"
)

type LLMLogRepo interface {
	SaveLog(ctx context.Context, l domain.LLMRecord) (int64, error)
}

// 调用日志
type llmLogDAO struct {
	logDao dao.LLMRecordDAO
}

func NewLLMLogRepo(logDao dao.LLMRecordDAO) LLMLogRepo {
	return &llmLogDAO{
		logDao: logDao,
	}
}

func (g *llmLogDAO) SaveLog(ctx context.Context, l domain.LLMRecord) (int64, error) {
	logEntity := g.toEntity(l)
	return g.logDao.Save(ctx, logEntity)
}

func (g *llmLogDAO) toEntity(r domain.LLMRecord) dao.LLMRecord {
	return dao.LLMRecord{
		Id:       r.Id,
		Tid:      r.Tid,
		Uid:      r.Uid,
		Biz:      r.Biz,
		Tokens:   r.Tokens,
		Amount:   r.Amount,
		Provider: r.Provider,
		Input: sqlx.JsonColumn[[]string]{
			Valid: true,
			Val:   r.Input,
		},
		Status:         r.Status.ToUint8(),
		PromptTemplate: sqlx.NewNullString(r.PromptTemplate),
		Answer:         sqlx.NewNullString(r.Answer),
	}
}
