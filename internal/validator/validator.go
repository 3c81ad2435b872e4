// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"financehub/internal/models"
	"financehub/internal/money"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn adds the custom tags to v. Money fields are validated through
// their decimal string form.
func RegisterOn(v *validator.Validate) {
	v.RegisterCustomTypeFunc(moneyValue, money.Money{})
	_ = v.RegisterValidation("iso4217", validateISO4217)
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("category_type", validateCategoryType)
	_ = v.RegisterValidation("account_type", validateAccountType)
	_ = v.RegisterValidation("budget_period", validateBudgetPeriod)
	_ = v.RegisterValidation("money", validateMoney)
	_ = v.RegisterValidation("positive_money", validatePositiveMoney)
}

func moneyValue(field reflect.Value) interface{} {
	if m, ok := field.Interface().(money.Money); ok {
		return m.Decimal().String()
	}
	return nil
}

func validateISO4217(fl validator.FieldLevel) bool {
	return money.IsCurrency(strings.ToUpper(fl.Field().String()))
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(strings.ToUpper(fl.Field().String())).Valid()
}

func validateCategoryType(fl validator.FieldLevel) bool {
	return models.CategoryType(strings.ToUpper(fl.Field().String())).Valid()
}

func validateAccountType(fl validator.FieldLevel) bool {
	return models.AccountType(strings.ToUpper(fl.Field().String())).Valid()
}

func validateBudgetPeriod(fl validator.FieldLevel) bool {
	return models.BudgetPeriod(strings.ToUpper(fl.Field().String())).Valid()
}

// validateMoney accepts a decimal string with at most two fraction digits.
func validateMoney(fl validator.FieldLevel) bool {
	m, err := money.Parse(fl.Field().String())
	return err == nil && m.HasValidScale()
}

func validatePositiveMoney(fl validator.FieldLevel) bool {
	m, err := money.Parse(fl.Field().String())
	return err == nil && m.HasValidScale() && m.IsPositive()
}
