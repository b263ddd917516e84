package cafeapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pmcafe/kiosk/pkg/enums"
	"github.com/pmcafe/kiosk/pkg/models"
	"github.com/pmcafe/kiosk/pkg/types"
)

// AuthenticateCell resolves a cell from the last four digits of its leader's phone.
func (c *Client) AuthenticateCell(ctx context.Context, phoneLast4 string) (models.CellInfo, error) {
	var out cellWire
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   apiPrefix + "/cells/auth",
		body:   map[string]string{"phoneLast4": phoneLast4},
	}, &out)
	if err != nil {
		return models.CellInfo{}, err
	}
	return out.info(), nil
}

func (c *Client) ListCells(ctx context.Context, includeInactive bool) ([]models.Cell, error) {
	q := url.Values{}
	if includeInactive {
		q.Set("includeInactive", "true")
	}
	var out []cellWire
	if err := c.do(ctx, request{method: http.MethodGet, path: apiPrefix + "/cells", query: q}, &out); err != nil {
		return nil, err
	}
	cells := make([]models.Cell, 0, len(out))
	for _, w := range out {
		cells = append(cells, w.toModel())
	}
	return cells, nil
}

// NewCell is the payload for registering a cell.
type NewCell struct {
	Name       string `json:"name"`
	Leader     string `json:"leader"`
	PhoneLast4 string `json:"phoneLast4"`
}

func (c *Client) CreateCell(ctx context.Context, in NewCell) (models.Cell, error) {
	var out cellWire
	if err := c.do(ctx, request{method: http.MethodPost, path: apiPrefix + "/cells", body: in}, &out); err != nil {
		return models.Cell{}, err
	}
	return out.toModel(), nil
}

// ChargeRequest tops up a cell. BonusRate is a percentage.
type ChargeRequest struct {
	Amount    int    `json:"amount"`
	BonusRate int    `json:"bonusRate"`
	Memo      string `json:"memo,omitempty"`
}

func (c *Client) ChargeCell(ctx context.Context, cellID string, in ChargeRequest) (models.ChargeResult, error) {
	var out chargeWire
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   apiPrefix + "/cells/" + url.PathEscape(cellID) + "/charge",
		body:   in,
	}, &out)
	if err != nil {
		return models.ChargeResult{}, err
	}
	return models.ChargeResult{
		CellID:       string(out.CellID),
		CellName:     out.CellName,
		ChargeAmount: out.ChargeAmount,
		BonusAmount:  out.BonusAmount,
		TotalAmount:  out.TotalAmount,
		BalanceAfter: out.BalanceAfter,
	}, nil
}

// TransactionParams filters a cell's ledger. Dates are YYYY-MM-DD.
type TransactionParams struct {
	StartDate string
	EndDate   string
	Type      enums.TransactionType
	Limit     int
	Offset    int
}

func (p TransactionParams) query() url.Values {
	q := url.Values{}
	if p.StartDate != "" {
		q.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("endDate", p.EndDate)
	}
	if p.Type != "" {
		q.Set("type", p.Type.String())
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	return q
}

func (c *Client) ListTransactions(ctx context.Context, cellID string, params TransactionParams) (types.Page[models.Transaction], error) {
	var out struct {
		Transactions []transactionWire `json:"transactions"`
		Total        int               `json:"total"`
		Limit        int               `json:"limit"`
		Offset       int               `json:"offset"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   apiPrefix + "/cells/" + url.PathEscape(cellID) + "/transactions",
		query:  params.query(),
	}, &out)
	if err != nil {
		return types.Page[models.Transaction]{}, err
	}
	page := types.Page[models.Transaction]{
		Items:  make([]models.Transaction, 0, len(out.Transactions)),
		Total:  out.Total,
		Limit:  out.Limit,
		Offset: out.Offset,
	}
	for _, t := range out.Transactions {
		page.Items = append(page.Items, t.toModel())
	}
	return page, nil
}
