package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecodeclub/ecache"
	"github.com/ecodeclub/homework/internal/llm/internal/domain"
	"github.com/pkg/errors"
)

var ErrConfigNotFound = errors.New("业务配置没找到")

const expiration = 10 * time.Minute

type ConfigCache interface {
	Get(ctx context.Context, biz string) (domain.BizConfig, error)
	Set(ctx context.Context, cfg domain.BizConfig) error
}

type ConfigECache struct {
	ec ecache.Cache
}

func NewConfigECache(ec ecache.Cache) ConfigCache {
	return &ConfigECache{
		ec: &ecache.NamespaceCache{
			Namespace: "llm:config:",
			C:         ec,
		},
	}
}

func (c *ConfigECache) Get(ctx context.Context, biz string) (domain.BizConfig, error) {
	val := c.ec.Get(ctx, c.key(biz))
	if val.KeyNotFound() {
		return domain.BizConfig{}, ErrConfigNotFound
	}
	if val.Err != nil {
		return domain.BizConfig{}, errors.Wrap(val.Err, "查询配置缓存出错")
	}
	var cfg domain.BizConfig
	err := json.Unmarshal([]byte(val.Val.(string)), &cfg)
	if err != nil {
		return domain.BizConfig{}, errors.Wrap(err, "反序列化业务配置失败")
	}
	return cfg, nil
}

func (c *ConfigECache) Set(ctx context.Context, cfg domain.BizConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "序列化业务配置失败")
	}
	return c.ec.Set(ctx, c.key(cfg.Biz), string(data), expiration)
}

func (c *ConfigECache) key(biz string) string {
	return fmt.Sprintf("biz:%s", biz)
}
