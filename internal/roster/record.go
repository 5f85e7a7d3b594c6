package roster

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/specialistvlad/orgaudit/internal/employee"
)

// minFields is the smallest field count of a usable line: id, first name,
// last name and salary. The manager id column may be missing entirely.
const minFields = 4

// ErrTooFewFields is returned for lines with fewer than four fields.
var ErrTooFewFields = errors.New("too few fields")

// RecordError describes one dropped line.
type RecordError struct {
	// Row is the 1-based line number in the input, counting the header.
	Row  int
	Line string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Row, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// record mirrors one input line after field conversion, before it becomes an Employee.
type record struct {
	ID        int     `validate:"gte=0"`
	FirstName string  `validate:"required"`
	LastName  string  `validate:"required"`
	Salary    float64 `validate:"gte=0,finite"`
	ManagerID *int    `validate:"omitempty,gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.Float64 {
			return true
		}
		return !math.IsInf(fl.Field().Float(), 0)
	})
	return v
}

// ParseLine converts one comma separated line into an Employee.
func ParseLine(line string) (employee.Employee, error) {
	parts := strings.Split(line, ",")
	if len(parts) < minFields {
		return employee.Employee{}, fmt.Errorf("%w: got %d, need at least %d", ErrTooFewFields, len(parts), minFields)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return employee.Employee{}, fmt.Errorf("invalid id %q: %w", parts[0], err)
	}
	salary, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("invalid salary %q: %w", parts[3], err)
	}

	rec := record{
		ID:        id,
		FirstName: parts[1],
		LastName:  parts[2],
		Salary:    salary,
	}
	if len(parts) > minFields && parts[4] != "" {
		managerID, err := strconv.Atoi(parts[4])
		if err != nil {
			return employee.Employee{}, fmt.Errorf("invalid manager id %q: %w", parts[4], err)
		}
		rec.ManagerID = &managerID
	}

	if err := validate.Struct(rec); err != nil {
		return employee.Employee{}, describeValidation(err)
	}
	return employee.New(rec.ID, rec.FirstName, rec.LastName, rec.Salary, rec.ManagerID), nil
}

// describeValidation flattens validator errors into one readable error.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid record: %s", strings.Join(msgs, ", "))
}
