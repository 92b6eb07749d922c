// Package chart reads the chart of accounts and the currency list from a
// configuration file.
package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

// accountNamespace seeds the name-based UUIDs derived from account codes, so
// the same code maps to the same id on every provisioning run.
var accountNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:schoolbooks:account"))

type CurrencySpec struct {
	Code      string `mapstructure:"code" validate:"required,uppercase,min=3,max=8"`
	Name      string `mapstructure:"name" validate:"required"`
	Symbol    string `mapstructure:"symbol"`
	Precision int32  `mapstructure:"precision" validate:"min=0,max=18"`
	Base      bool   `mapstructure:"base"`
}

type AccountSpec struct {
	Code             string `mapstructure:"code" validate:"required,max=32"`
	Name             string `mapstructure:"name" validate:"required"`
	Type             string `mapstructure:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Description      string `mapstructure:"description"`
	RetainedEarnings bool   `mapstructure:"retained_earnings"`
}

// File is the on-disk layout of a chart file.
type File struct {
	Currencies []CurrencySpec `mapstructure:"currencies" validate:"required,min=1,dive"`
	Accounts   []AccountSpec  `mapstructure:"accounts" validate:"required,min=2,dive"`
}

var validate = validator.New()

// AccountID returns the stable id of the account with the given code.
func AccountID(code string) string {
	return uuid.NewSHA1(accountNamespace, []byte(code)).String()
}

// Load reads a chart file. The format follows the file extension (yaml, json
// or toml).
func Load(path string) ([]domain.Account, []domain.Currency, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read chart file %s: %w", path, err)
	}
	return decode(v)
}

// Parse reads a chart document of the given format ("yaml", "json", ...).
func Parse(r io.Reader, format string) ([]domain.Account, []domain.Currency, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, nil, fmt.Errorf("failed to parse chart: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) ([]domain.Account, []domain.Currency, error) {
	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, nil, fmt.Errorf("%w: malformed chart: %v", apperrors.ErrValidation, err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, describe(err))
	}

	currencies := make([]domain.Currency, len(f.Currencies))
	for i, c := range f.Currencies {
		currencies[i] = domain.Currency{
			CurrencyCode: c.Code,
			Name:         c.Name,
			Symbol:       c.Symbol,
			Precision:    c.Precision,
			IsBase:       c.Base,
		}
	}
	accounts := make([]domain.Account, len(f.Accounts))
	for i, a := range f.Accounts {
		code := strings.TrimSpace(a.Code)
		accounts[i] = domain.Account{
			AccountID:          AccountID(code),
			Code:               code,
			Name:               a.Name,
			AccountType:        domain.AccountType(a.Type),
			Description:        a.Description,
			IsRetainedEarnings: a.RetainedEarnings,
		}
	}
	return accounts, currencies, nil
}

// describe flattens validator errors into "Field: tag" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag())
	}
	return strings.Join(parts, "; ")
}
