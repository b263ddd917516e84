package models

import (
	"time"

	"github.com/pmcafe/kiosk/pkg/enums"
)

// CellInfo is a prepaid group account snapshot. The kiosk never debits it.
type CellInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Leader  string `json:"leader"`
	Balance int    `json:"balance"`
}

// Cell is the admin view of a cell account.
type Cell struct {
	CellInfo
	PhoneLast4 string    `json:"phoneLast4,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// ChargeResult is the outcome of topping up a cell.
type ChargeResult struct {
	CellID       string `json:"cellId"`
	CellName     string `json:"cellName"`
	ChargeAmount int    `json:"chargeAmount"`
	BonusAmount  int    `json:"bonusAmount"`
	TotalAmount  int    `json:"totalAmount"`
	BalanceAfter int    `json:"balanceAfter"`
}

type TransactionActor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TransactionOrder struct {
	OrderID  string `json:"orderId"`
	DailyNum int    `json:"dailyNum"`
}

// Transaction is one balance movement of a cell.
type Transaction struct {
	ID           string                `json:"id"`
	Type         enums.TransactionType `json:"type"`
	Amount       int                   `json:"amount"`
	BalanceAfter int                   `json:"balanceAfter"`
	Memo         string                `json:"memo,omitempty"`
	CreatedBy    *TransactionActor     `json:"createdBy,omitempty"`
	Order        *TransactionOrder     `json:"order,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}
