package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// execer *sql.DB 与 *sql.Tx 的公共部分
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Prepare(query string) (*sql.Stmt, error)
}

// queryer 只读查询，*sql.DB 与 *sql.Tx 均满足
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

const upsertCustomerSQL = `
	INSERT INTO customers (id, name, group_name, territory, annual_spend)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		group_name = excluded.group_name,
		territory = excluded.territory,
		annual_spend = excluded.annual_spend,
		updated_at = CURRENT_TIMESTAMP
`

const upsertCategorySQL = `
	INSERT INTO categories (id, name, revenue, material_cost, labor_percent, labor_cost)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		revenue = excluded.revenue,
		material_cost = excluded.material_cost,
		labor_percent = excluded.labor_percent,
		labor_cost = excluded.labor_cost,
		updated_at = CURRENT_TIMESTAMP
`

const insertSaleSQL = `
	INSERT INTO sales_transactions (id, customer_name, category_name, amount, cogs, tx_date)
	VALUES (?, ?, ?, ?, ?, ?)
`

const insertAliasSQL = `INSERT INTO customer_aliases (alias, customer_name) VALUES (?, ?)`

// ListCustomers 按插入顺序返回全部客户
func (s *Store) ListCustomers() ([]*model.Customer, error) {
	return listCustomers(s.db)
}

func listCustomers(q queryer) ([]*model.Customer, error) {
	rows, err := q.Query(`SELECT id, name, group_name, territory, annual_spend FROM customers ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query customers")
	}
	defer rows.Close()

	result := []*model.Customer{}
	for rows.Next() {
		c := &model.Customer{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Group, &c.Territory, &c.AnnualSpend); err != nil {
			return nil, eris.Wrap(err, "failed to scan customer")
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// UpsertCustomer 新增或更新客户
func (s *Store) UpsertCustomer(c *model.Customer) error {
	if _, err := s.db.Exec(upsertCustomerSQL, c.ID, c.Name, c.Group, c.Territory, c.AnnualSpend); err != nil {
		return eris.Wrapf(err, "failed to upsert customer %s", c.ID)
	}
	return nil
}

// DeleteCustomer 删除客户
func (s *Store) DeleteCustomer(id string) error {
	return s.deleteByID("customers", id)
}

// ListCategories 按插入顺序返回全部品类
func (s *Store) ListCategories() ([]*model.Category, error) {
	return listCategories(s.db)
}

func listCategories(q queryer) ([]*model.Category, error) {
	rows, err := q.Query(`
		SELECT id, name, revenue, material_cost, labor_percent, labor_cost
		FROM categories ORDER BY seq
	`)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query categories")
	}
	defer rows.Close()

	result := []*model.Category{}
	for rows.Next() {
		c := &model.Category{}
		var laborPercent, laborCost sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.Name, &c.Revenue, &c.MaterialCost, &laborPercent, &laborCost); err != nil {
			return nil, eris.Wrap(err, "failed to scan category")
		}
		c.LaborPercent = floatPtr(laborPercent)
		c.LaborCost = floatPtr(laborCost)
		result = append(result, c)
	}
	return result, rows.Err()
}

// UpsertCategory 新增或更新品类
func (s *Store) UpsertCategory(c *model.Category) error {
	if _, err := s.db.Exec(upsertCategorySQL,
		c.ID, c.Name, c.Revenue, c.MaterialCost, nullFloat(c.LaborPercent), nullFloat(c.LaborCost),
	); err != nil {
		return eris.Wrapf(err, "failed to upsert category %s", c.ID)
	}
	return nil
}

// DeleteCategory 删除品类
func (s *Store) DeleteCategory(id string) error {
	return s.deleteByID("categories", id)
}

// ListSales 按插入顺序返回全部销售流水
func (s *Store) ListSales() ([]*model.SalesTransaction, error) {
	return listSales(s.db)
}

func listSales(q queryer) ([]*model.SalesTransaction, error) {
	rows, err := q.Query(`
		SELECT id, customer_name, category_name, amount, cogs, tx_date
		FROM sales_transactions ORDER BY seq
	`)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query sales")
	}
	defer rows.Close()

	result := []*model.SalesTransaction{}
	for rows.Next() {
		t := &model.SalesTransaction{}
		var date sql.NullTime
		if err := rows.Scan(&t.ID, &t.CustomerName, &t.CategoryName, &t.Amount, &t.COGS, &date); err != nil {
			return nil, eris.Wrap(err, "failed to scan sale")
		}
		if date.Valid {
			t.Date = date.Time
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// InsertSales 批量插入销售流水
func (s *Store) InsertSales(records []*model.SalesTransaction) error {
	if len(records) == 0 {
		return nil
	}
	return s.withTx(func(tx *sql.Tx) error {
		return insertSales(tx, records)
	})
}

// ListAliases 按插入顺序返回全部别名
func (s *Store) ListAliases() ([]model.CustomerAlias, error) {
	return listAliases(s.db)
}

func listAliases(q queryer) ([]model.CustomerAlias, error) {
	rows, err := q.Query(`SELECT alias, customer_name FROM customer_aliases ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query aliases")
	}
	defer rows.Close()

	result := []model.CustomerAlias{}
	for rows.Next() {
		var a model.CustomerAlias
		if err := rows.Scan(&a.Alias, &a.CustomerName); err != nil {
			return nil, eris.Wrap(err, "failed to scan alias")
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// ReplaceAliases 整体替换别名表
func (s *Store) ReplaceAliases(aliases []model.CustomerAlias) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM customer_aliases`); err != nil {
			return eris.Wrap(err, "failed to clear aliases")
		}
		return insertAliases(tx, aliases)
	})
}

// LoadSnapshot 在一个事务内读取完整数据快照，不会读到并发替换的中间状态
func (s *Store) LoadSnapshot() (*model.Snapshot, error) {
	snap := &model.Snapshot{}
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		if snap.Customers, err = listCustomers(tx); err != nil {
			return err
		}
		if snap.Categories, err = listCategories(tx); err != nil {
			return err
		}
		if snap.Sales, err = listSales(tx); err != nil {
			return err
		}
		snap.Aliases, err = listAliases(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ReplaceSnapshot 在一个事务内清空并重写四类记录
func (s *Store) ReplaceSnapshot(snap *model.Snapshot) error {
	return s.withTx(func(tx *sql.Tx) error {
		for _, table := range []string{"customers", "categories", "sales_transactions", "customer_aliases"} {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return eris.Wrapf(err, "failed to clear %s", table)
			}
		}

		customerStmt, err := tx.Prepare(upsertCustomerSQL)
		if err != nil {
			return eris.Wrap(err, "failed to prepare customer statement")
		}
		defer customerStmt.Close()
		for _, c := range snap.Customers {
			if _, err := customerStmt.Exec(c.ID, c.Name, c.Group, c.Territory, c.AnnualSpend); err != nil {
				return eris.Wrapf(err, "failed to insert customer %s", c.Name)
			}
		}

		categoryStmt, err := tx.Prepare(upsertCategorySQL)
		if err != nil {
			return eris.Wrap(err, "failed to prepare category statement")
		}
		defer categoryStmt.Close()
		for _, c := range snap.Categories {
			if _, err := categoryStmt.Exec(
				c.ID, c.Name, c.Revenue, c.MaterialCost, nullFloat(c.LaborPercent), nullFloat(c.LaborCost),
			); err != nil {
				return eris.Wrapf(err, "failed to insert category %s", c.Name)
			}
		}

		if err := insertSales(tx, snap.Sales); err != nil {
			return err
		}
		return insertAliases(tx, snap.Aliases)
	})
}

func insertSales(db execer, records []*model.SalesTransaction) error {
	stmt, err := db.Prepare(insertSaleSQL)
	if err != nil {
		return eris.Wrap(err, "failed to prepare sale statement")
	}
	defer stmt.Close()

	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, err := stmt.Exec(r.ID, r.CustomerName, r.CategoryName, r.Amount, r.COGS, nullTime(r.Date)); err != nil {
			return eris.Wrapf(err, "failed to insert sale %s", r.ID)
		}
	}
	return nil
}

func insertAliases(db execer, aliases []model.CustomerAlias) error {
	stmt, err := db.Prepare(insertAliasSQL + ` ON CONFLICT(alias) DO UPDATE SET customer_name = excluded.customer_name`)
	if err != nil {
		return eris.Wrap(err, "failed to prepare alias statement")
	}
	defer stmt.Close()

	for _, a := range aliases {
		if _, err := stmt.Exec(a.Alias, a.CustomerName); err != nil {
			return eris.Wrapf(err, "failed to insert alias %s", a.Alias)
		}
	}
	return nil
}

func (s *Store) deleteByID(table, id string) error {
	res, err := s.db.Exec("DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return eris.Wrapf(err, "failed to delete from %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", table, id)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
