package checkout

import (
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/models"
	"github.com/pmcafe/kiosk/pkg/money"
)

// BalanceShortfall is attached to an insufficient balance error.
type BalanceShortfall struct {
	Balance  int `json:"balance"`
	Required int `json:"required"`
}

// Validate checks a submission before a number is allocated. The first
// failing rule wins: empty cart, then missing cell, then balance.
func Validate(payType enums.PaymentMode, cell *models.CellInfo, lines int, total int) error {
	if !payType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "결제 방식을 선택해주세요").
			WithDetails(map[string]string{"payType": payType.String()})
	}
	if lines == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "장바구니가 비어있습니다")
	}
	if payType != enums.PaymentModeCell {
		return nil
	}
	if cell == nil {
		return pkgerrors.New(pkgerrors.CodeMissingCellInfo, "셀 정보가 없습니다")
	}
	if cell.Balance < total {
		return pkgerrors.New(pkgerrors.CodeInsufficientBalance,
			"포인트가 부족합니다 (잔액: "+money.Won(cell.Balance)+")").
			WithDetails(BalanceShortfall{Balance: cell.Balance, Required: total})
	}
	return nil
}
