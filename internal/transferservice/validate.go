package transferservice

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/go-petr/lynx-wire/pkg/currencypkg"
	"github.com/go-petr/lynx-wire/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// wireFields are the transfer facts checked before a pacs.008 is issued.
type wireFields struct {
	DebtorName        string          `json:"debtor_name" validate:"required"`
	InstitutionNumber string          `json:"institution_number" validate:"digits=3"`
	TransitNumber     string          `json:"transit_number" validate:"digits=5"`
	AccountNumber     string          `json:"account_number" validate:"required"`
	CreditorName      string          `json:"creditor_name" validate:"required"`
	CreditorIBAN      string          `json:"creditor_iban" validate:"required"`
	CreditorBIC       string          `json:"creditor_bic" validate:"required"`
	Amount            decimal.Decimal `json:"amount" validate:"money"`
	Currency          string          `json:"currency" validate:"required,currency"`
}

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(web.JSONFieldName)

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}

		return nil
	}, decimal.Decimal{})

	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("digits", validDigits)
	_ = v.RegisterValidation("money", validMoney)
	_ = v.RegisterValidation("currency", currencypkg.ValidCurrency)

	return v
}

var validDigits validator.Func = func(fl validator.FieldLevel) bool {
	s := fl.Field().String()

	n, err := strconv.Atoi(fl.Param())
	if err != nil || len(s) != n {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

var validMoney validator.Func = func(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}

	return d.IsPositive() && d.Equal(d.Round(currencypkg.MinorUnits))
}

func ruleMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "digits":
		return "must be exactly " + fe.Param() + " digits"
	case "money":
		return fmt.Sprintf("must be greater than zero with at most %d decimal places", currencypkg.MinorUnits)
	case "currency":
		return "must be one of " + strings.Join(currencypkg.SupportedCurrencies, ", ")
	}

	return "failed on " + fe.Tag()
}

// validateFields returns a ValidationError naming the first violated field.
func validateFields(v *validator.Validate, t domain.Transfer) error {
	err := v.Struct(wireFields{
		DebtorName:        t.DebtorName,
		InstitutionNumber: t.InstitutionNumber,
		TransitNumber:     t.TransitNumber,
		AccountNumber:     t.AccountNumber,
		CreditorName:      t.CreditorName,
		CreditorIBAN:      t.CreditorIBAN,
		CreditorBIC:       t.CreditorBIC,
		Amount:            t.Amount,
		Currency:          t.Currency,
	})
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return &domain.ValidationError{Field: ve[0].Field(), Rule: ruleMsg(ve[0])}
	}

	return err
}
