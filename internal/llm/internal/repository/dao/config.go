package dao

import (
	"context"

	"github.com/ego-component/egorm"
	"gorm.io/gorm/clause"
)

type ConfigDAO interface {
	GetConfig(ctx context.Context, biz string) (BizConfig, error)
	Save(ctx context.Context, cfg BizConfig) (int64, error)
	List(ctx context.Context) ([]BizConfig, error)
	GetById(ctx context.Context, id int64) (BizConfig, error)
}

type GORMConfigDAO struct {
	db *egorm.Component
}

func NewGORMConfigDAO(db *egorm.Component) ConfigDAO {
	return &GORMConfigDAO{db: db}
}

func (dao *GORMConfigDAO) GetConfig(ctx context.Context, biz string) (BizConfig, error) {
	var res BizConfig
	err := dao.db.WithContext(ctx).Where("biz = ?", biz).First(&res).Error
	return res, err
}

func (dao *GORMConfigDAO) Save(ctx context.Context, cfg BizConfig) (int64, error) {
	err := dao.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "biz"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"model", "price", "temperature", "top_p",
				"system_prompt", "max_input", "prompt_template", "utime"}),
		}).Create(&cfg).Error
	return cfg.Id, err
}

func (dao *GORMConfigDAO) List(ctx context.Context) ([]BizConfig, error) {
	var res []BizConfig
	err := dao.db.WithContext(ctx).Order("id DESC").Find(&res).Error
	return res, err
}

func (dao *GORMConfigDAO) GetById(ctx context.Context, id int64) (BizConfig, error) {
	var res BizConfig
	err := dao.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	return res, err
}

type BizConfig struct {
	Id          int64  `gorm:"primaryKey;autoIncrement;comment:AI biz 配置表ID"`
	Biz         string `gorm:"type:varchar(256);uniqueIndex;not null;comment:业务类型名"`
	MaxInput    int    `gorm:"comment:最大输入长度"`
	Model       string `gorm:"type:varchar(256)"`
	Price       int64
	Temperature float64
	TopP        float64
	// 系统 prompt
	SystemPrompt   string
	PromptTemplate string
	Ctime          int64
	Utime          int64
}

func (c BizConfig) TableName() string {
	return "ai_biz_configs"
}
