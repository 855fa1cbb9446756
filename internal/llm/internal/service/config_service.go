package service

import (
	"context"
	"fmt"

	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/ecodeclub/homework/internal/llm/internal/repository"
)

// ConfigService 定义配置服务的接口
type ConfigService interface {
	Save(ctx context.Context, cfg domain.BizConfig) (int64, error)
	List(ctx context.Context) ([]domain.BizConfig, error)
	GetById(ctx context.Context, id int64) (domain.BizConfig, error)
}

type configService struct {
	repo repository.ConfigRepository
}

func NewConfigService(repo repository.ConfigRepository) ConfigService {
	return &configService{
		repo: repo,
	}
}

func (s *configService) Save(ctx context.Context, cfg domain.BizConfig) (int64, error) {
	return s.repo.Save(ctx, cfg)
}

func (s *configService) List(ctx context.Context) ([]domain.BizConfig, error) {
	return s.repo.List(ctx)
}

func (s *configService) GetById(ctx context.Context, id int64) (domain.BizConfig, error) {
	if id <= 0 {
		return domain.BizConfig{}, fmt.Errorf("无效的ID")
	}
	return s.repo.GetById(ctx, id)
}
