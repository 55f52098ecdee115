package store

import (
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// GetStrategy 读取当前定价策略
func (s *Store) GetStrategy() (*model.PricingStrategy, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM pricing_strategy WHERE id = 1`).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrap(ErrNotFound, "pricing strategy")
		}
		return nil, eris.Wrap(err, "failed to query pricing strategy")
	}
	return decodeStrategy([]byte(doc))
}

// SaveStrategy 整体替换定价策略
func (s *Store) SaveStrategy(strategy *model.PricingStrategy) error {
	data, err := encodeStrategy(strategy)
	if err != nil {
		return err
	}
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO pricing_strategy (id, document) VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP
		`, string(data)); err != nil {
			return eris.Wrap(err, "failed to save pricing strategy")
		}
		return nil
	})
}

func encodeStrategy(strategy *model.PricingStrategy) ([]byte, error) {
	if strategy == nil {
		strategy = model.NewPricingStrategy()
	}
	data, err := json.Marshal(strategy)
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode pricing strategy")
	}
	return data, nil
}

// decodeStrategy 解析策略文档；缺失的字段补成空表
func decodeStrategy(data []byte) (*model.PricingStrategy, error) {
	strategy := model.NewPricingStrategy()
	if err := json.Unmarshal(data, strategy); err != nil {
		return nil, eris.Wrap(err, "failed to decode pricing strategy")
	}
	if strategy.ListMultipliers == nil {
		strategy.ListMultipliers = model.MultiplierTable{}
	}
	if strategy.TierMultipliers == nil {
		strategy.TierMultipliers = map[string]map[string]model.MultiplierTable{}
	}
	return strategy, nil
}
