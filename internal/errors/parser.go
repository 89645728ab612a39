package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrorInfo is a classified store or transport error.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// PostgreSQL SQLSTATE codes we classify.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqNotNullViolation    = "23502"
	pqCheckViolation      = "23514"
	pqInvalidTextRepr     = "22P02"
)

// ParseError turns an unexpected error into a status, code and a message that
// is safe to show. The raw error is never echoed back.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: defaultMessage(context)}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: notFoundMessage(context)}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicateKey(err.Error())
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return duplicateKey(pqErr.Constraint + " " + pqErr.Message)
		case pqForeignKeyViolation:
			return ErrorInfo{Status: http.StatusConflict, Code: ResourceConflict, Message: "Referenced data does not exist or is still in use"}
		case pqNotNullViolation:
			return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationRequired, Message: requiredMessage(pqErr.Column)}
		case pqCheckViolation:
			return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidInput, Message: "Input value is not allowed"}
		case pqInvalidTextRepr:
			return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidFormat, Message: "Input has an invalid format"}
		}
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalDatabase, Message: defaultMessage(context)}
	}

	// SQLite and wrapped driver errors only expose text.
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "duplicate key"), strings.Contains(lower, "unique constraint"):
		return duplicateKey(lower)
	case strings.Contains(lower, "foreign key constraint"):
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceConflict, Message: "Referenced data does not exist or is still in use"}
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "timeout"):
		return ErrorInfo{Status: http.StatusBadGateway, Code: InternalExternalAPI, Message: "An upstream service is unavailable. Please try again later"}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: defaultMessage(context)}
}

func duplicateKey(detail string) ErrorInfo {
	lower := strings.ToLower(detail)
	switch {
	case strings.Contains(lower, "email"):
		return ErrorInfo{Status: http.StatusConflict, Code: AuthEmailAlreadyExists, Message: "Email is already registered"}
	case strings.Contains(lower, "cart_product_size"), strings.Contains(lower, "cart_items"):
		return ErrorInfo{Status: http.StatusConflict, Code: CartItemDuplicate, Message: "Item already in cart"}
	case strings.Contains(lower, "category_name_parent"), strings.Contains(lower, "categories"):
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: "Category already exists"}
	}
	return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: "Resource already exists"}
}

func requiredMessage(column string) string {
	if column == "" {
		return "A required field is missing"
	}
	return column + " is required"
}

func notFoundMessage(context string) string {
	lower := strings.ToLower(context)
	for _, entity := range []string{"product", "category", "cart item", "cart", "order", "review", "address", "user"} {
		if strings.Contains(lower, entity) {
			return strings.ToUpper(entity[:1]) + entity[1:] + " not found"
		}
	}
	return "Requested resource not found"
}

func defaultMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "create"), strings.Contains(lower, "add"):
		return "Failed to create the resource. Please try again later"
	case strings.Contains(lower, "update"):
		return "Failed to update the resource. Please try again later"
	case strings.Contains(lower, "delete"), strings.Contains(lower, "remove"):
		return "Failed to delete the resource. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond classifies err and writes the response. fallbackStatus is
// used only when the error is not recognised.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, fallbackStatus int, err error, context string) {
	info := ParseError(err, context)
	status := info.Status
	if status == http.StatusInternalServerError && fallbackStatus != 0 {
		status = fallbackStatus
	}
	c.JSON(status, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
