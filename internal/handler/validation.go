package handler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/pkg/utils"
	"github.com/shopspring/decimal"
)

// newValidator returns a validator that understands decimal amounts.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("decimal_gt", func(fl validator.FieldLevel) bool {
		return compareDecimal(fl, func(c int) bool { return c > 0 })
	})
	_ = v.RegisterValidation("decimal_gte", func(fl validator.FieldLevel) bool {
		return compareDecimal(fl, func(c int) bool { return c >= 0 })
	})

	return v
}

func compareDecimal(fl validator.FieldLevel, accept func(int) bool) bool {
	value, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	bound, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return false
	}
	return accept(value.Cmp(bound))
}

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "datetime":
			parts = append(parts, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field()))
		case "decimal_gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		case "decimal_gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(parts, "; ")
}

// Request bodies. Dates travel as YYYY-MM-DD strings.

type createRentalBody struct {
	SpaceID      string           `json:"space_id" validate:"required,uuid"`
	ClientName   string           `json:"client_name" validate:"required,max=120"`
	ClientPhone  string           `json:"client_phone" validate:"max=40"`
	ClientEmail  string           `json:"client_email" validate:"omitempty,email"`
	VehiclePlate string           `json:"vehicle_plate" validate:"max=20"`
	VehicleMake  string           `json:"vehicle_make" validate:"max=60"`
	VehicleModel string           `json:"vehicle_model" validate:"max=60"`
	VehicleColor string           `json:"vehicle_color" validate:"max=30"`
	StartDate    string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string           `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	MonthlyRate  *decimal.Decimal `json:"monthly_rate" validate:"omitempty,decimal_gt=0"`
	Currency     string           `json:"currency" validate:"omitempty,iso4217"`
	Notes        string           `json:"notes" validate:"max=1000"`
}

func (b *createRentalBody) toRequest() (*domain.CreateRentalRequest, error) {
	spaceID, err := uuid.Parse(b.SpaceID)
	if err != nil {
		return nil, err
	}
	start, err := utils.ParseDate(b.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := utils.ParseOptionalDate(b.EndDate)
	if err != nil {
		return nil, err
	}

	return &domain.CreateRentalRequest{
		SpaceID:      spaceID,
		ClientName:   b.ClientName,
		ClientPhone:  b.ClientPhone,
		ClientEmail:  b.ClientEmail,
		VehiclePlate: b.VehiclePlate,
		VehicleMake:  b.VehicleMake,
		VehicleModel: b.VehicleModel,
		VehicleColor: b.VehicleColor,
		StartDate:    start,
		EndDate:      end,
		MonthlyRate:  b.MonthlyRate,
		Currency:     b.Currency,
		Notes:        b.Notes,
	}, nil
}

// Amount positivity is checked by the service.
type recordPaymentBody struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency" validate:"omitempty,iso4217"`
	Method          string          `json:"method" validate:"omitempty,oneof=cash bank_transfer credit_card debit_card mobile_payment check other"`
	PaymentDate     string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	ReferenceNumber string          `json:"reference_number" validate:"max=100"`
	Notes           string          `json:"notes" validate:"max=1000"`
}

func (b *recordPaymentBody) toRequest() (*domain.RecordPaymentRequest, error) {
	request := &domain.RecordPaymentRequest{
		Amount:          b.Amount,
		Currency:        b.Currency,
		Method:          domain.PaymentMethod(b.Method),
		ReferenceNumber: b.ReferenceNumber,
		Notes:           b.Notes,
	}
	if b.PaymentDate != "" {
		date, err := utils.ParseDate(b.PaymentDate)
		if err != nil {
			return nil, err
		}
		request.PaymentDate = date
	}
	return request, nil
}

type endRentalBody struct {
	EndDate      string             `json:"end_date" validate:"required,datetime=2006-01-02"`
	FinalPayment *recordPaymentBody `json:"final_payment" validate:"omitempty"`
	Notes        string             `json:"notes" validate:"max=1000"`
}

func (b *endRentalBody) toRequest() (*domain.EndRentalRequest, error) {
	end, err := utils.ParseDate(b.EndDate)
	if err != nil {
		return nil, err
	}

	request := &domain.EndRentalRequest{EndDate: end, Notes: b.Notes}
	if b.FinalPayment != nil {
		request.FinalPayment, err = b.FinalPayment.toRequest()
		if err != nil {
			return nil, err
		}
	}
	return request, nil
}
