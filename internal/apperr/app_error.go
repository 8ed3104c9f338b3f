package apperr

import (
	"fmt"

	"github.com/craftedby/marketplace/pkg/zerror"
)

const (
	ValidationErrorCode       = "VALIDATION_FAILED"
	InvalidOrderRequestCode   = "INVALID_ORDER_REQUEST"
	ProductsUnavailableCode   = "PRODUCTS_UNAVAILABLE"
	InsufficientStockCode     = "INSUFFICIENT_STOCK"
	OrderNotFoundCode         = "ORDER_NOT_FOUND"
	OrderAccessDeniedCode     = "ORDER_ACCESS_DENIED"
	ArtisanScopeForbiddenCode = "ARTISAN_SCOPE_FORBIDDEN"
	ProductNotFoundCode       = "PRODUCT_NOT_FOUND"
	ProductAccessDeniedCode   = "PRODUCT_ACCESS_DENIED"
	UnauthenticatedCode       = "UNAUTHENTICATED"
	InvalidCredentialsCode    = "INVALID_CREDENTIALS"
	EmailTakenCode            = "EMAIL_TAKEN"
	TransientStoreFailureCode = "TRANSIENT_STORE_FAILURE"
	InvalidDateRangeCode      = "INVALID_DATE_RANGE"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	ProductsUnavailableErr   = zerror.NewBadRequest(ProductsUnavailableCode, "some products are unavailable")
	OrderNotFoundErr         = zerror.NewNotFound(OrderNotFoundCode, "order not found")
	OrderAccessDeniedErr     = zerror.NewForbidden(OrderAccessDeniedCode, "you do not have access to this order")
	ArtisanScopeForbiddenErr = zerror.NewForbidden(ArtisanScopeForbiddenCode, "only admin can filter by artisan")

	ProductNotFoundErr     = zerror.NewNotFound(ProductNotFoundCode, "product not found")
	ProductAccessDeniedErr = zerror.NewForbidden(ProductAccessDeniedCode, "you do not have access to this product")

	UnauthenticatedErr    = zerror.NewUnauthorized(UnauthenticatedCode, "missing or invalid credentials")
	InvalidCredentialsErr = zerror.NewUnauthorized(InvalidCredentialsCode, "invalid credentials")
	EmailTakenErr         = zerror.NewConflict(EmailTakenCode, "user already exists")

	TransientStoreFailureErr = zerror.NewServiceUnavailable(TransientStoreFailureCode, "could not complete the request, safe to retry")
)

// NewInvalidOrderRequest reports a malformed order-placement request, naming
// the violated constraint.
func NewInvalidOrderRequest(msg string) zerror.ZError {
	return zerror.NewBadRequest(InvalidOrderRequestCode, msg)
}

// NewInsufficientStock reports that the named product's stock is below the
// requested quantity.
func NewInsufficientStock(productName string) zerror.ZError {
	return zerror.NewBadRequest(InsufficientStockCode, fmt.Sprintf("insufficient stock for %s", productName))
}

// NewInvalidDateRange reports a malformed report/listing date range.
func NewInvalidDateRange(msg string) zerror.ZError {
	return zerror.NewBadRequest(InvalidDateRangeCode, msg)
}
