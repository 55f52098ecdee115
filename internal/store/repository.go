package store

import (
	"github.com/rotisserie/eris"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = eris.New("not found")

// Repository 持久层契约，SQLite 与内存实现共用
type Repository interface {
	ListCustomers() ([]*model.Customer, error)
	UpsertCustomer(c *model.Customer) error
	DeleteCustomer(id string) error

	ListCategories() ([]*model.Category, error)
	UpsertCategory(c *model.Category) error
	DeleteCategory(id string) error

	ListSales() ([]*model.SalesTransaction, error)
	InsertSales(records []*model.SalesTransaction) error

	ListAliases() ([]model.CustomerAlias, error)
	ReplaceAliases(aliases []model.CustomerAlias) error

	// LoadSnapshot 按插入顺序返回四类记录
	LoadSnapshot() (*model.Snapshot, error)
	// ReplaceSnapshot 在一个事务内整体替换四类记录（导入使用）
	ReplaceSnapshot(snap *model.Snapshot) error

	// GetStrategy 尚未保存过策略时返回 ErrNotFound
	GetStrategy() (*model.PricingStrategy, error)
	SaveStrategy(s *model.PricingStrategy) error

	CreateCalibrationLog(log *model.CalibrationLog) error
	UpdateCalibrationLog(log *model.CalibrationLog) error
	ListCalibrationLogs(limit int) ([]*model.CalibrationLog, error)

	CreateImportLog(log *model.ImportLog) error
	UpdateImportLog(log *model.ImportLog) error
	ListImportLogs(limit int) ([]*model.ImportLog, error)

	Close() error
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}
