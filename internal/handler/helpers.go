package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"distillery/internal/apierror"
	"distillery/internal/ledger"
	"distillery/internal/middleware"
	"distillery/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// conflictRetryAfter is the Retry-After hint sent when a posting lock is busy.
const conflictRetryAfter = 1

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work on it.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Namespace()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// orgID reads the organization from the token. Writes 401 when missing.
func orgID(c *gin.Context) (uuid.UUID, bool) {
	id, err := middleware.OrganizationID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("authentication required"))
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses a uuid path parameter. Writes 400 when malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain errors to their HTTP status. Anything unrecognised is
// handed to the ErrorHandler middleware, which logs it and answers 500.
func writeError(c *gin.Context, err error) {
	var (
		verr     *ledger.ValidationError
		itemNF   *ledger.ItemNotFoundError
		lotNF    *ledger.LotNotFoundError
		insuf    *ledger.InsufficientStockError
		conflict *ledger.ConcurrencyConflictError
	)
	switch {
	case errors.As(err, &verr):
		field := verr.Field
		if verr.Index >= 0 {
			field = "transactions[" + strconv.Itoa(verr.Index) + "]." + verr.Field
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{field: verr.Reason}))
	case errors.As(err, &itemNF), errors.As(err, &lotNF):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.As(err, &insuf):
		body := apierror.InsufficientStock{
			Detail:    "insufficient stock",
			ItemID:    insuf.ItemID.String(),
			Required:  insuf.Required,
			Available: insuf.Available,
			Shortfall: insuf.Shortfall(),
		}
		if insuf.LotID != nil {
			s := insuf.LotID.String()
			body.LotID = &s
		}
		c.JSON(http.StatusConflict, body)
	case errors.As(err, &conflict):
		c.Header("Retry-After", strconv.Itoa(conflictRetryAfter))
		c.JSON(http.StatusConflict, apierror.New("stock is being updated by another request, retry"))
	case errors.Is(err, service.ErrItemExists):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrExportNotFound):
		c.JSON(http.StatusNotFound, apierror.New("export not found"))
	case errors.Is(err, service.ErrExportsDisabled):
		c.JSON(http.StatusServiceUnavailable, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
	}
}
