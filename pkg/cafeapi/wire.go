package cafeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pmcafe/kiosk/pkg/enums"
	"github.com/pmcafe/kiosk/pkg/models"
	"github.com/pmcafe/kiosk/pkg/types"
)

// ID accepts the backend's numeric ids as well as strings.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// numericID converts a local id into the backend's integer key.
func numericID(field, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s %q is not a backend id", field, value)
	}
	return n, nil
}

func timePtr(ts *types.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

type optionItemWire struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

type optionGroupWire struct {
	GroupName string           `json:"groupName"`
	Items     []optionItemWire `json:"items"`
}

type orderItemRequestWire struct {
	MenuID          int64             `json:"menuId"`
	MenuName        string            `json:"menuName"`
	MenuPrice       int               `json:"menuPrice"`
	Quantity        int               `json:"quantity"`
	SelectedOptions []optionGroupWire `json:"selectedOptions"`
}

type createOrderWire struct {
	PayType     enums.PaymentMode      `json:"payType"`
	CellID      *int64                 `json:"cellId,omitempty"`
	Items       []orderItemRequestWire `json:"items"`
	TotalAmount int                    `json:"totalAmount"`
}

type orderCellWire struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Leader  string `json:"leader,omitempty"`
	Balance *int   `json:"balance,omitempty"`
}

type orderItemWire struct {
	MenuID          ID                `json:"menuId,omitempty"`
	MenuName        string            `json:"menuName"`
	MenuPrice       int               `json:"menuPrice"`
	Quantity        int               `json:"quantity"`
	SelectedOptions []optionGroupWire `json:"selectedOptions"`
	TotalPrice      int               `json:"totalPrice"`
}

type orderWire struct {
	OrderID     string           `json:"orderId"`
	DailyNum    int              `json:"dailyNum"`
	PayType     string           `json:"payType"`
	CellInfo    *orderCellWire   `json:"cellInfo"`
	Items       []orderItemWire  `json:"items"`
	TotalAmount int              `json:"totalAmount"`
	Status      string           `json:"status"`
	CreatedAt   types.Timestamp  `json:"createdAt"`
	CompletedAt *types.Timestamp `json:"completedAt"`
}

func newCreateOrderWire(order models.Order) (createOrderWire, error) {
	out := createOrderWire{
		PayType:     order.PayType,
		TotalAmount: order.TotalAmount,
		Items:       make([]orderItemRequestWire, 0, len(order.Items)),
	}
	if order.CellInfo != nil {
		id, err := numericID("cell id", order.CellInfo.ID)
		if err != nil {
			return createOrderWire{}, err
		}
		out.CellID = &id
	}
	for _, item := range order.Items {
		menuID, err := numericID("menu id", item.Menu.ID)
		if err != nil {
			return createOrderWire{}, err
		}
		groups := make([]optionGroupWire, 0, len(item.SelectedOptions))
		for _, g := range item.SelectedOptions {
			wg := optionGroupWire{GroupName: g.GroupName, Items: make([]optionItemWire, 0, len(g.Items))}
			for _, it := range g.Items {
				wg.Items = append(wg.Items, optionItemWire{Name: it.Name, Price: it.Price})
			}
			groups = append(groups, wg)
		}
		out.Items = append(out.Items, orderItemRequestWire{
			MenuID:          menuID,
			MenuName:        item.Menu.Name,
			MenuPrice:       item.Menu.Price,
			Quantity:        item.Quantity,
			SelectedOptions: groups,
		})
	}
	return out, nil
}

func (w orderWire) toModel() models.Order {
	order := models.Order{
		OrderID:     w.OrderID,
		DailyNum:    w.DailyNum,
		PayType:     enums.PaymentMode(w.PayType),
		TotalAmount: w.TotalAmount,
		Status:      enums.OrderStatus(w.Status),
		CreatedAt:   w.CreatedAt.Time,
		CompletedAt: timePtr(w.CompletedAt),
		Items:       make([]models.CartItem, 0, len(w.Items)),
	}
	if w.CellInfo != nil {
		cell := &models.CellInfo{ID: string(w.CellInfo.ID), Name: w.CellInfo.Name, Leader: w.CellInfo.Leader}
		if w.CellInfo.Balance != nil {
			cell.Balance = *w.CellInfo.Balance
		}
		order.CellInfo = cell
	}
	for i, item := range w.Items {
		line := models.CartItem{
			CartID:     fmt.Sprintf("%s-%d", w.OrderID, i+1),
			Menu:       models.MenuSnapshot{ID: string(item.MenuID), Name: item.MenuName, Price: item.MenuPrice},
			Quantity:   item.Quantity,
			TotalPrice: item.TotalPrice,
		}
		for _, g := range item.SelectedOptions {
			sel := models.SelectedOption{GroupName: g.GroupName}
			for _, it := range g.Items {
				sel.Items = append(sel.Items, models.OptionItem{Name: it.Name, Price: it.Price})
			}
			line.SelectedOptions = append(line.SelectedOptions, sel)
		}
		order.Items = append(order.Items, line)
	}
	return order
}

type categoryWire struct {
	ID           ID     `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"displayOrder"`
}

type optionItemDetailWire struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	IsDefault bool   `json:"is_default"`
}

type optionGroupDetailWire struct {
	ID         ID                     `json:"id"`
	Name       string                 `json:"name"`
	Icon       string                 `json:"icon"`
	Type       string                 `json:"type"`
	IsRequired bool                   `json:"is_required"`
	Items      []optionItemDetailWire `json:"items"`
}

type menuWire struct {
	ID           ID                      `json:"id"`
	Name         string                  `json:"name"`
	EngName      string                  `json:"eng_name"`
	Price        int                     `json:"price"`
	Category     categoryWire            `json:"category"`
	Description  string                  `json:"description"`
	ImageURL     string                  `json:"image_url"`
	IsSoldOut    bool                    `json:"is_sold_out"`
	IsActive     *bool                   `json:"is_active"`
	DisplayOrder int                     `json:"display_order"`
	OptionGroups []optionGroupDetailWire `json:"option_groups"`
}

func (w menuWire) toModel() models.MenuItem {
	menu := models.MenuItem{
		ID:           string(w.ID),
		Name:         w.Name,
		EngName:      w.EngName,
		Price:        w.Price,
		Category:     enums.Category(w.Category.Code),
		Description:  w.Description,
		ImageURL:     w.ImageURL,
		IsSoldOut:    w.IsSoldOut,
		DisplayOrder: w.DisplayOrder,
	}
	for _, g := range w.OptionGroups {
		group := models.OptionGroup{
			ID:         string(g.ID),
			Name:       g.Name,
			Icon:       g.Icon,
			Type:       enums.OptionGroupType(g.Type),
			IsRequired: g.IsRequired,
			Items:      make([]models.OptionItem, 0, len(g.Items)),
		}
		for _, it := range g.Items {
			group.Items = append(group.Items, models.OptionItem{
				ID:        string(it.ID),
				Name:      it.Name,
				Price:     it.Price,
				IsDefault: it.IsDefault,
			})
		}
		menu.OptionGroups = append(menu.OptionGroups, group)
	}
	return menu
}

type cellWire struct {
	ID         ID               `json:"id"`
	Name       string           `json:"name"`
	Leader     string           `json:"leader"`
	PhoneLast4 string           `json:"phoneLast4"`
	Balance    int              `json:"balance"`
	IsActive   *bool            `json:"isActive"`
	CreatedAt  *types.Timestamp `json:"createdAt"`
}

func (w cellWire) info() models.CellInfo {
	return models.CellInfo{ID: string(w.ID), Name: w.Name, Leader: w.Leader, Balance: w.Balance}
}

func (w cellWire) toModel() models.Cell {
	cell := models.Cell{CellInfo: w.info(), PhoneLast4: w.PhoneLast4, IsActive: true}
	if w.IsActive != nil {
		cell.IsActive = *w.IsActive
	}
	if t := timePtr(w.CreatedAt); t != nil {
		cell.CreatedAt = *t
	}
	return cell
}

type chargeWire struct {
	CellID       ID     `json:"cellId"`
	CellName     string `json:"cellName"`
	ChargeAmount int    `json:"chargeAmount"`
	BonusAmount  int    `json:"bonusAmount"`
	TotalAmount  int    `json:"totalAmount"`
	BalanceAfter int    `json:"balanceAfter"`
}

type actorWire struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type transactionWire struct {
	ID           ID              `json:"id"`
	Type         string          `json:"type"`
	Amount       int             `json:"amount"`
	BalanceAfter int             `json:"balanceAfter"`
	Memo         *string         `json:"memo"`
	CreatedBy    *actorWire      `json:"createdBy"`
	Order        *struct {
		OrderID  string `json:"orderId"`
		DailyNum int    `json:"dailyNum"`
	} `json:"order"`
	CreatedAt types.Timestamp `json:"createdAt"`
}

func (w transactionWire) toModel() models.Transaction {
	txn := models.Transaction{
		ID:           string(w.ID),
		Type:         enums.TransactionType(w.Type),
		Amount:       w.Amount,
		BalanceAfter: w.BalanceAfter,
		CreatedAt:    w.CreatedAt.Time,
	}
	if w.Memo != nil {
		txn.Memo = *w.Memo
	}
	if w.CreatedBy != nil {
		txn.CreatedBy = &models.TransactionActor{ID: string(w.CreatedBy.ID), Name: w.CreatedBy.Name}
	}
	if w.Order != nil {
		txn.Order = &models.TransactionOrder{OrderID: w.Order.OrderID, DailyNum: w.Order.DailyNum}
	}
	return txn
}

type userWire struct {
	ID        ID               `json:"id"`
	Username  string           `json:"username"`
	Name      string           `json:"name"`
	Role      string           `json:"role"`
	LastLogin *types.Timestamp `json:"last_login"`
}

func (w userWire) toModel() models.AdminUser {
	return models.AdminUser{
		ID:        string(w.ID),
		Username:  w.Username,
		Name:      w.Name,
		Role:      enums.AdminRole(w.Role),
		LastLogin: timePtr(w.LastLogin),
	}
}

type settlementWire struct {
	ID              ID               `json:"id"`
	Date            string           `json:"date"`
	TotalOrders     int              `json:"totalOrders"`
	TotalRevenue    int              `json:"totalRevenue"`
	PersonalOrders  int              `json:"personalOrders"`
	PersonalRevenue int              `json:"personalRevenue"`
	CellOrders      int              `json:"cellOrders"`
	CellRevenue     int              `json:"cellRevenue"`
	IsConfirmed     bool             `json:"isConfirmed"`
	ConfirmedBy     *actorWire       `json:"confirmedBy"`
	ConfirmedAt     *types.Timestamp `json:"confirmedAt"`
	Notes           *string          `json:"notes"`
	CreatedAt       *types.Timestamp `json:"createdAt"`
}

func (w settlementWire) toModel() models.Settlement {
	s := models.Settlement{
		ID:              string(w.ID),
		Date:            w.Date,
		TotalOrders:     w.TotalOrders,
		TotalRevenue:    w.TotalRevenue,
		PersonalOrders:  w.PersonalOrders,
		PersonalRevenue: w.PersonalRevenue,
		CellOrders:      w.CellOrders,
		CellRevenue:     w.CellRevenue,
		IsConfirmed:     w.IsConfirmed,
		ConfirmedAt:     timePtr(w.ConfirmedAt),
		CreatedAt:       timePtr(w.CreatedAt),
	}
	if w.ConfirmedBy != nil {
		s.ConfirmedBy = &models.TransactionActor{ID: string(w.ConfirmedBy.ID), Name: w.ConfirmedBy.Name}
	}
	if w.Notes != nil {
		s.Notes = *w.Notes
	}
	return s
}
