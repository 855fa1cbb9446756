package repository

import (
	"context"
	"time"

	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/ecodeclub/homework/internal/llm/internal/repository/cache"
	"github.com/ecodeclub/homework/internal/llm/internal/repository/dao"
	"github.com/gotomicro/ego/core/elog"
)

type ConfigRepository interface {
	GetConfig(ctx context.Context, biz string) (domain.BizConfig, error)
	Save(ctx context.Context, cfg domain.BizConfig) (int64, error)
	List(ctx context.Context) ([]domain.BizConfig, error)
	GetById(ctx context.Context, id int64) (domain.BizConfig, error)
}

// CachedConfigRepository 配置几乎不变，读多写少，先走缓存
type CachedConfigRepository struct {
	dao    dao.ConfigDAO
	cache  cache.ConfigCache
	logger *elog.Component
}

func NewCachedConfigRepository(dao dao.ConfigDAO, c cache.ConfigCache) ConfigRepository {
	return &CachedConfigRepository{
		dao:    dao,
		cache:  c,
		logger: elog.DefaultLogger,
	}
}

func (repo *CachedConfigRepository) GetConfig(ctx context.Context, biz string) (domain.BizConfig, error) {
	cfg, err := repo.cache.Get(ctx, biz)
	if err == nil {
		return cfg, nil
	}
	res, err := repo.dao.GetConfig(ctx, biz)
	if err != nil {
		return domain.BizConfig{}, err
	}
	cfg = repo.toDomain(res)
	if err1 := repo.cache.Set(ctx, cfg); err1 != nil {
		repo.logger.Error("回写配置缓存失败", elog.FieldErr(err1), elog.String("biz", biz))
	}
	return cfg, nil
}

func (repo *CachedConfigRepository) Save(ctx context.Context, cfg domain.BizConfig) (int64, error) {
	id, err := repo.dao.Save(ctx, repo.toEntity(cfg))
	if err != nil {
		return 0, err
	}
	// 缓存里可能是旧值，直接覆盖
	cfg.Id = id
	if err1 := repo.cache.Set(ctx, cfg); err1 != nil {
		repo.logger.Error("回写配置缓存失败", elog.FieldErr(err1), elog.String("biz", cfg.Biz))
	}
	return id, nil
}

func (repo *CachedConfigRepository) List(ctx context.Context) ([]domain.BizConfig, error) {
	res, err := repo.dao.List(ctx)
	if err != nil {
		return nil, err
	}
	configs := make([]domain.BizConfig, 0, len(res))
	for _, c := range res {
		configs = append(configs, repo.toDomain(c))
	}
	return configs, nil
}

func (repo *CachedConfigRepository) GetById(ctx context.Context, id int64) (domain.BizConfig, error) {
	res, err := repo.dao.GetById(ctx, id)
	if err != nil {
		return domain.BizConfig{}, err
	}
	return repo.toDomain(res), nil
}

func (repo *CachedConfigRepository) toDomain(c dao.BizConfig) domain.BizConfig {
	return domain.BizConfig{
		Id:             c.Id,
		Biz:            c.Biz,
		Model:          c.Model,
		Price:          c.Price,
		Temperature:    c.Temperature,
		TopP:           c.TopP,
		SystemPrompt:   c.SystemPrompt,
		MaxInput:       c.MaxInput,
		PromptTemplate: c.PromptTemplate,
		Utime:          c.Utime,
	}
}

func (repo *CachedConfigRepository) toEntity(c domain.BizConfig) dao.BizConfig {
	return dao.BizConfig{
		Id:             c.Id,
		Biz:            c.Biz,
		Model:          c.Model,
		Price:          c.Price,
		Temperature:    c.Temperature,
		TopP:           c.TopP,
		SystemPrompt:   c.SystemPrompt,
		MaxInput:       c.MaxInput,
		PromptTemplate: c.PromptTemplate,
		Utime:          time.Now().UnixMilli(),
	}
}
