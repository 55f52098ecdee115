package store

import (
	"sync"
	"testing"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
	sqlstore "github.com/KirkODooley-ai/my-pricingproject-sub000/internal/store"
)

// TestNewMemoryStore 测试创建存储
func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	snap, err := store.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(snap.Customers) != 0 || len(snap.Sales) != 0 {
		t.Errorf("new store should be empty, got %+v", snap)
	}
	if _, err := store.GetStrategy(); !sqlstore.IsNotFound(err) {
		t.Errorf("GetStrategy err = %v, want not found", err)
	}
}

// TestUpsertCustomer 测试新增与更新客户
func TestUpsertCustomer(t *testing.T) {
	store := NewMemoryStore()

	_ = store.UpsertCustomer(&model.Customer{ID: "c1", Name: "Acme Roofing", Group: "Dealer"})
	_ = store.UpsertCustomer(&model.Customer{ID: "c2", Name: "Bolt Builders", Group: "Commercial"})
	_ = store.UpsertCustomer(&model.Customer{ID: "c1", Name: "Acme Roofing", Group: "Dealer", AnnualSpend: 500000})

	customers, _ := store.ListCustomers()
	if len(customers) != 2 {
		t.Fatalf("customers = %d, want 2", len(customers))
	}
	if customers[0].ID != "c1" || customers[0].AnnualSpend != 500000 {
		t.Errorf("customers[0] = %+v", customers[0])
	}

	// 返回的是拷贝
	customers[0].Name = "changed"
	again, _ := store.ListCustomers()
	if again[0].Name != "Acme Roofing" {
		t.Error("ListCustomers returned internal pointers")
	}

	if err := store.DeleteCustomer("c1"); err != nil {
		t.Fatalf("DeleteCustomer: %v", err)
	}
	if err := store.DeleteCustomer("c1"); !sqlstore.IsNotFound(err) {
		t.Errorf("second delete err = %v, want not found", err)
	}
}

// TestStrategyIsolation 保存与读取的策略互不影响
func TestStrategyIsolation(t *testing.T) {
	store := NewMemoryStore()

	s := model.NewPricingStrategy()
	s.ListMultipliers["Default"] = 1.5
	_ = store.SaveStrategy(s)
	s.ListMultipliers["Default"] = 9

	got, err := store.GetStrategy()
	if err != nil {
		t.Fatalf("GetStrategy: %v", err)
	}
	if got.ListMultipliers["Default"] != 1.5 {
		t.Errorf("Default = %v, want 1.5", got.ListMultipliers["Default"])
	}
}

// TestReplaceSnapshot 测试整体替换与别名去重
func TestReplaceSnapshot(t *testing.T) {
	store := NewMemoryStore()
	_ = store.UpsertCustomer(&model.Customer{ID: "old", Name: "Old"})

	err := store.ReplaceSnapshot(&model.Snapshot{
		Customers: []*model.Customer{{ID: "c1", Name: "Acme"}},
		Sales:     []*model.SalesTransaction{{CustomerName: "Acme", CategoryName: "FC36", Amount: 5}},
		Aliases: []model.CustomerAlias{
			{Alias: "A", CustomerName: "Acme"},
			{Alias: "B", CustomerName: "Bolt"},
			{Alias: "A", CustomerName: "Acme Roofing"},
		},
	})
	if err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}

	snap, _ := store.LoadSnapshot()
	if len(snap.Customers) != 1 || snap.Customers[0].ID != "c1" {
		t.Errorf("customers = %+v", snap.Customers)
	}
	if len(snap.Sales) != 1 || snap.Sales[0].ID == "" {
		t.Errorf("sales = %+v", snap.Sales)
	}
	if len(snap.Aliases) != 2 || snap.Aliases[0].CustomerName != "Acme Roofing" {
		t.Errorf("aliases = %+v", snap.Aliases)
	}
}

// TestCalibrationLogs 测试校准记录
func TestCalibrationLogs(t *testing.T) {
	store := NewMemoryStore()
	_ = store.CreateCalibrationLog(&model.CalibrationLog{RunID: "r1", Status: model.CalibrationRunning})
	_ = store.CreateCalibrationLog(&model.CalibrationLog{RunID: "r2", Status: model.CalibrationRunning})
	if err := store.UpdateCalibrationLog(&model.CalibrationLog{RunID: "r1", Status: model.CalibrationCompleted}); err != nil {
		t.Fatalf("UpdateCalibrationLog: %v", err)
	}

	logs, _ := store.ListCalibrationLogs(1)
	if len(logs) != 1 || logs[0].RunID != "r2" {
		t.Errorf("logs = %+v", logs)
	}
	all, _ := store.ListCalibrationLogs(0)
	if len(all) != 2 || all[1].Status != model.CalibrationCompleted {
		t.Errorf("all logs = %+v", all)
	}
}

// TestConcurrentAccess 测试并发访问
func TestConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.InsertSales([]*model.SalesTransaction{{CustomerName: "Acme", CategoryName: "FC36", Amount: 1}})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.LoadSnapshot()
		}()
	}
	wg.Wait()

	sales, _ := store.ListSales()
	if len(sales) != 50 {
		t.Errorf("sales = %d, want 50", len(sales))
	}
}
