package domain

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRetentionPolicy проверяет контрактные инварианты записи перед сохранением в реестр.
// knownTables пустой — проверка имени таблицы по схеме отключена.
func ValidateRetentionPolicy(p RetentionPolicy, knownTables []string) error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed %q", ErrInvalidPolicy, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	if len(knownTables) > 0 && !slices.Contains(knownTables, p.TableName) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, p.TableName)
	}
	return nil
}
