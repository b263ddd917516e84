package models

import (
	"time"

	"github.com/pmcafe/kiosk/pkg/enums"
)

type AdminUser struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Name      string          `json:"name"`
	Role      enums.AdminRole `json:"role"`
	LastLogin *time.Time      `json:"lastLogin,omitempty"`
}

// IsSuper reports whether the admin may confirm settlements.
func (u AdminUser) IsSuper() bool {
	return u.Role == enums.AdminRoleSuper
}

// Settlement is a daily close. It cannot change after confirmation.
type Settlement struct {
	ID              string            `json:"id"`
	Date            string            `json:"date"`
	TotalOrders     int               `json:"totalOrders"`
	TotalRevenue    int               `json:"totalRevenue"`
	PersonalOrders  int               `json:"personalOrders"`
	PersonalRevenue int               `json:"personalRevenue"`
	CellOrders      int               `json:"cellOrders"`
	CellRevenue     int               `json:"cellRevenue"`
	IsConfirmed     bool              `json:"isConfirmed"`
	ConfirmedBy     *TransactionActor `json:"confirmedBy,omitempty"`
	ConfirmedAt     *time.Time        `json:"confirmedAt,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       *time.Time        `json:"createdAt,omitempty"`
}

type DashboardStats struct {
	Date            string `json:"date"`
	TotalOrders     int    `json:"totalOrders"`
	TotalRevenue    int    `json:"totalRevenue"`
	PersonalOrders  int    `json:"personalOrders"`
	PersonalRevenue int    `json:"personalRevenue"`
	CellOrders      int    `json:"cellOrders"`
	CellRevenue     int    `json:"cellRevenue"`
	PendingOrders   int    `json:"pendingOrders"`
	MakingOrders    int    `json:"makingOrders"`
	CompletedOrders int    `json:"completedOrders"`
}

type MenuStat struct {
	MenuName string `json:"menuName"`
	Quantity int    `json:"quantity"`
	Revenue  int    `json:"revenue"`
}

type DailyStat struct {
	Date         string `json:"date"`
	TotalOrders  int    `json:"totalOrders"`
	TotalRevenue int    `json:"totalRevenue"`
}
