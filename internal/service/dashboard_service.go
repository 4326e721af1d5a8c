package service

import (
	"go-stockwise/internal/model"
	"go-stockwise/internal/store"
)

type DashboardService interface {
	GetStats() (*DashboardStats, error)
	RecentMovements(limit int) ([]*model.StockLogEntry, error)
	RecentActivity(limit int) []model.ActivityLogEntry
}

type DashboardStats struct {
	TotalProducts   int     `json:"total_products"`
	TotalSuppliers  int     `json:"total_suppliers"`
	TotalCategories int     `json:"total_categories"`
	TotalUsers      int     `json:"total_users"`
	LowStockCount   int     `json:"low_stock_count"`
	TotalStockValue float64 `json:"total_stock_value"`
}

type dashboardService struct {
	store     *store.Store
	inventory InventoryService
}

func NewDashboardService(st *store.Store, inventory InventoryService) DashboardService {
	return &dashboardService{
		store:     st,
		inventory: inventory,
	}
}

func (s *dashboardService) GetStats() (*DashboardStats, error) {
	stats := &DashboardStats{}

	products, err := s.inventory.ListProducts(nil)
	if err != nil {
		return nil, err
	}
	stats.TotalProducts = len(products)
	for _, p := range products {
		if p.Status == model.StatusActive && p.CurrentStock <= p.MinimumStock {
			stats.LowStockCount++
		}
		if p.CurrentStock > 0 {
			stats.TotalStockValue += float64(p.CurrentStock) * p.UnitPrice
		}
	}

	if stats.TotalSuppliers, err = s.store.Count(store.TableSuppliers, nil); err != nil {
		return nil, err
	}
	if stats.TotalCategories, err = s.store.Count(store.TableCategories, nil); err != nil {
		return nil, err
	}
	if stats.TotalUsers, err = s.store.Count(store.TableUsers, nil); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *dashboardService) RecentMovements(limit int) ([]*model.StockLogEntry, error) {
	movements, err := s.inventory.ListMovements("")
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(movements) > limit {
		movements = movements[:limit]
	}
	return movements, nil
}

// RecentActivity returns the newest audit entries first.
func (s *dashboardService) RecentActivity(limit int) []model.ActivityLogEntry {
	entries := s.store.Activity()
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
