// Package cells covers cell accounts: kiosk authentication and the admin
// list, registration, top-up and ledger screens.
package cells

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/pmcafe/kiosk/pkg/cafeapi"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/models"
	"github.com/pmcafe/kiosk/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	dateLayout          = "2006-01-02"
	maxTransactionLimit = 100
)

var phoneLast4Pattern = regexp.MustCompile(`^\d{4}$`)

type cellsAPI interface {
	AuthenticateCell(ctx context.Context, phoneLast4 string) (models.CellInfo, error)
	ListCells(ctx context.Context, includeInactive bool) ([]models.Cell, error)
	CreateCell(ctx context.Context, in cafeapi.NewCell) (models.Cell, error)
	ChargeCell(ctx context.Context, cellID string, in cafeapi.ChargeRequest) (models.ChargeResult, error)
	ListTransactions(ctx context.Context, cellID string, params cafeapi.TransactionParams) (types.Page[models.Transaction], error)
}

// Service exposes cell operations.
type Service interface {
	Authenticate(ctx context.Context, phoneLast4 string) (models.CellInfo, error)
	List(ctx context.Context, includeInactive bool) ([]models.Cell, error)
	Create(ctx context.Context, in cafeapi.NewCell) (models.Cell, error)
	Charge(ctx context.Context, cellID string, in cafeapi.ChargeRequest) (models.ChargeResult, error)
	Transactions(ctx context.Context, cellID string, params cafeapi.TransactionParams) (types.Page[models.Transaction], error)
}

type service struct {
	api  cellsAPI
	logg *logger.Logger
}

func NewService(api cellsAPI, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("cells api required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{api: api, logg: logg}, nil
}

// Authenticate resolves a cell from the leader phone's last four digits.
func (s *service) Authenticate(ctx context.Context, phoneLast4 string) (models.CellInfo, error) {
	if !phoneLast4Pattern.MatchString(phoneLast4) {
		return models.CellInfo{}, pkgerrors.New(pkgerrors.CodeValidation, "전화번호 뒷자리 4자리를 입력해주세요")
	}
	cell, err := s.api.AuthenticateCell(ctx, phoneLast4)
	if err != nil {
		return models.CellInfo{}, err
	}
	s.logg.Info(s.logg.WithField(ctx, "cell_id", cell.ID), "cell authenticated")
	return cell, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]models.Cell, error) {
	return s.api.ListCells(ctx, includeInactive)
}

func (s *service) Create(ctx context.Context, in cafeapi.NewCell) (models.Cell, error) {
	if !phoneLast4Pattern.MatchString(in.PhoneLast4) {
		return models.Cell{}, pkgerrors.New(pkgerrors.CodeValidation, "phoneLast4 must be 4 digits")
	}
	return s.api.CreateCell(ctx, in)
}

func (s *service) Charge(ctx context.Context, cellID string, in cafeapi.ChargeRequest) (models.ChargeResult, error) {
	if _, err := PreviewCharge(in.Amount, in.BonusRate); err != nil {
		return models.ChargeResult{}, err
	}
	res, err := s.api.ChargeCell(ctx, cellID, in)
	if err != nil {
		return models.ChargeResult{}, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cell_id":       res.CellID,
		"charge_amount": res.ChargeAmount,
		"bonus_amount":  res.BonusAmount,
	}), "cell charged")
	return res, nil
}

func (s *service) Transactions(ctx context.Context, cellID string, params cafeapi.TransactionParams) (types.Page[models.Transaction], error) {
	for field, value := range map[string]string{"startDate": params.StartDate, "endDate": params.EndDate} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, value); err != nil {
			return types.Page[models.Transaction]{}, pkgerrors.New(pkgerrors.CodeValidation, "날짜 형식이 올바르지 않습니다 (YYYY-MM-DD)").
				WithDetails(map[string]string{"field": field, "value": value})
		}
	}
	if params.Type != "" && !params.Type.IsValid() {
		return types.Page[models.Transaction]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type").
			WithDetails(map[string]string{"type": params.Type.String()})
	}
	if params.Limit <= 0 || params.Limit > maxTransactionLimit {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return s.api.ListTransactions(ctx, cellID, params)
}

// ChargePreview is the outcome a top-up would have.
type ChargePreview struct {
	ChargeAmount int `json:"chargeAmount"`
	BonusRate    int `json:"bonusRate"`
	BonusAmount  int `json:"bonusAmount"`
	TotalAmount  int `json:"totalAmount"`
}

// PreviewCharge computes the bonus as floor(amount × rate / 100).
func PreviewCharge(amount, bonusRate int) (ChargePreview, error) {
	if amount <= 0 {
		return ChargePreview{}, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	if bonusRate < 0 || bonusRate > 100 {
		return ChargePreview{}, pkgerrors.New(pkgerrors.CodeValidation, "bonus rate must be between 0 and 100")
	}
	bonus := decimal.NewFromInt(int64(amount)).
		Mul(decimal.NewFromInt(int64(bonusRate))).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
	return ChargePreview{
		ChargeAmount: amount,
		BonusRate:    bonusRate,
		BonusAmount:  int(bonus),
		TotalAmount:  amount + int(bonus),
	}, nil
}

// TransactionTypeFilter parses an optional ledger filter.
func TransactionTypeFilter(raw string) (enums.TransactionType, error) {
	if raw == "" {
		return "", nil
	}
	t, err := enums.ParseTransactionType(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type")
	}
	return t, nil
}
