package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
	sqlstore "github.com/KirkODooley-ai/my-pricingproject-sub000/internal/store"
)

// MemoryStore 内存数据存储，与 SQLite 存储实现同一契约。
// 读写都做拷贝，调用方拿到的记录与存储内部互不影响。
type MemoryStore struct {
	customers  []*model.Customer
	categories []*model.Category
	sales      []*model.SalesTransaction
	aliases    []model.CustomerAlias
	strategy   *model.PricingStrategy
	logs       []*model.CalibrationLog
	imports    []*model.ImportLog
	mu         sync.RWMutex
}

var _ sqlstore.Repository = (*MemoryStore)(nil)

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers:  []*model.Customer{},
		categories: []*model.Category{},
		sales:      []*model.SalesTransaction{},
		aliases:    []model.CustomerAlias{},
	}
}

// ListCustomers 获取所有客户
func (s *MemoryStore) ListCustomers() ([]*model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCustomers(s.customers), nil
}

// UpsertCustomer 新增或更新客户
func (s *MemoryStore) UpsertCustomer(c *model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	for i, existing := range s.customers {
		if existing.ID == c.ID {
			s.customers[i] = &cp
			return nil
		}
	}
	s.customers = append(s.customers, &cp)
	return nil
}

// DeleteCustomer 删除客户
func (s *MemoryStore) DeleteCustomer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.customers {
		if c.ID == id {
			s.customers = append(s.customers[:i], s.customers[i+1:]...)
			return nil
		}
	}
	return eris.Wrapf(sqlstore.ErrNotFound, "customers %s", id)
}

// ListCategories 获取所有品类
func (s *MemoryStore) ListCategories() ([]*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCategories(s.categories), nil
}

// UpsertCategory 新增或更新品类
func (s *MemoryStore) UpsertCategory(c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := copyCategory(c)
	for i, existing := range s.categories {
		if existing.ID == c.ID {
			s.categories[i] = cp
			return nil
		}
	}
	s.categories = append(s.categories, cp)
	return nil
}

// DeleteCategory 删除品类
func (s *MemoryStore) DeleteCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return eris.Wrapf(sqlstore.ErrNotFound, "categories %s", id)
}

// ListSales 获取所有销售流水
func (s *MemoryStore) ListSales() ([]*model.SalesTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySales(s.sales), nil
}

// InsertSales 批量追加销售流水
func (s *MemoryStore) InsertSales(records []*model.SalesTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		cp := *r
		s.sales = append(s.sales, &cp)
	}
	return nil
}

// ListAliases 获取别名表
func (s *MemoryStore) ListAliases() ([]model.CustomerAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CustomerAlias{}, s.aliases...), nil
}

// ReplaceAliases 整体替换别名表
func (s *MemoryStore) ReplaceAliases(aliases []model.CustomerAlias) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases = dedupeAliases(aliases)
	return nil
}

// LoadSnapshot 读取完整快照
func (s *MemoryStore) LoadSnapshot() (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &model.Snapshot{
		Customers:  copyCustomers(s.customers),
		Categories: copyCategories(s.categories),
		Sales:      copySales(s.sales),
		Aliases:    append([]model.CustomerAlias{}, s.aliases...),
	}, nil
}

// ReplaceSnapshot 整体替换四类记录
func (s *MemoryStore) ReplaceSnapshot(snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customers = copyCustomers(snap.Customers)
	s.categories = copyCategories(snap.Categories)
	s.sales = copySales(snap.Sales)
	for _, r := range s.sales {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
	}
	s.aliases = dedupeAliases(snap.Aliases)
	return nil
}

// GetStrategy 获取定价策略
func (s *MemoryStore) GetStrategy() (*model.PricingStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.strategy == nil {
		return nil, eris.Wrap(sqlstore.ErrNotFound, "pricing strategy")
	}
	return s.strategy.Clone(), nil
}

// SaveStrategy 整体替换定价策略
func (s *MemoryStore) SaveStrategy(strategy *model.PricingStrategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategy = strategy.Clone()
	return nil
}

// CreateCalibrationLog 创建校准记录
func (s *MemoryStore) CreateCalibrationLog(log *model.CalibrationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *log
	s.logs = append(s.logs, &cp)
	return nil
}

// UpdateCalibrationLog 更新校准记录
func (s *MemoryStore) UpdateCalibrationLog(log *model.CalibrationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.logs {
		if l.RunID == log.RunID {
			cp := *log
			s.logs[i] = &cp
			return nil
		}
	}
	return eris.Wrapf(sqlstore.ErrNotFound, "calibration log %s", log.RunID)
}

// ListCalibrationLogs 最近的校准记录，新的在前
func (s *MemoryStore) ListCalibrationLogs(limit int) ([]*model.CalibrationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*model.CalibrationLog{}
	for i := len(s.logs) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		cp := *s.logs[i]
		result = append(result, &cp)
	}
	return result, nil
}

// CreateImportLog 创建导入记录
func (s *MemoryStore) CreateImportLog(log *model.ImportLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *log
	s.imports = append(s.imports, &cp)
	return nil
}

// UpdateImportLog 更新导入记录
func (s *MemoryStore) UpdateImportLog(log *model.ImportLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.imports {
		if l.ID == log.ID {
			cp := *log
			s.imports[i] = &cp
			return nil
		}
	}
	return eris.Wrapf(sqlstore.ErrNotFound, "import log %s", log.ID)
}

// ListImportLogs 最近的导入记录，新的在前
func (s *MemoryStore) ListImportLogs(limit int) ([]*model.ImportLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*model.ImportLog{}
	for i := len(s.imports) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		cp := *s.imports[i]
		result = append(result, &cp)
	}
	return result, nil
}

// Close 内存存储无需释放资源
func (s *MemoryStore) Close() error {
	return nil
}

func copyCustomers(in []*model.Customer) []*model.Customer {
	out := make([]*model.Customer, 0, len(in))
	for _, c := range in {
		cp := *c
		out = append(out, &cp)
	}
	return out
}

func copyCategory(c *model.Category) *model.Category {
	cp := *c
	if c.LaborPercent != nil {
		v := *c.LaborPercent
		cp.LaborPercent = &v
	}
	if c.LaborCost != nil {
		v := *c.LaborCost
		cp.LaborCost = &v
	}
	return &cp
}

func copyCategories(in []*model.Category) []*model.Category {
	out := make([]*model.Category, 0, len(in))
	for _, c := range in {
		out = append(out, copyCategory(c))
	}
	return out
}

func copySales(in []*model.SalesTransaction) []*model.SalesTransaction {
	out := make([]*model.SalesTransaction, 0, len(in))
	for _, t := range in {
		cp := *t
		out = append(out, &cp)
	}
	return out
}

// dedupeAliases 同名别名保留最后一条，位置取首次出现处
func dedupeAliases(in []model.CustomerAlias) []model.CustomerAlias {
	out := []model.CustomerAlias{}
	index := map[string]int{}
	for _, a := range in {
		if i, ok := index[a.Alias]; ok {
			out[i] = a
			continue
		}
		index[a.Alias] = len(out)
		out = append(out, a)
	}
	return out
}
