// internal/domain/payment/selector.go
package payment

import (
	"github.com/shopspring/decimal"
)

// Option is one selectable payment method as presented to the user
type Option struct {
	Method       Method `json:"method"`
	Selected     bool   `json:"selected"`
	Insufficient bool   `json:"insufficient"`
	MissingPhone bool   `json:"missing_phone"`
	Available    bool   `json:"available"`
}

// Selector holds a single-choice selection over the user's payment methods
type Selector struct {
	methods  []Method
	balance  decimal.Decimal
	total    decimal.Decimal
	selected string
}

// NewSelector creates a selector for the given methods, wallet balance and order total
func NewSelector(methods []Method, balance, total decimal.Decimal) *Selector {
	return &Selector{
		methods: methods,
		balance: balance,
		total:   total,
	}
}

// Select makes id the only selected method
func (s *Selector) Select(id string) error {
	if s.find(id) == nil {
		return ErrUnknownPaymentMethod
	}
	s.selected = id
	return nil
}

// Selected returns the selected method, nil when nothing is selected
func (s *Selector) Selected() *Method {
	if s.selected == "" {
		return nil
	}
	return s.find(s.selected)
}

// Validate checks the selected method's preconditions
func (s *Selector) Validate() error {
	m := s.Selected()
	if m == nil {
		return ErrUnknownPaymentMethod
	}
	return m.Check(s.balance, s.total)
}

// Options lists every method with its selection and precondition flags
func (s *Selector) Options() []Option {
	options := make([]Option, 0, len(s.methods))
	for _, m := range s.methods {
		opt := Option{Method: m, Selected: m.ID == s.selected}
		switch err := m.Check(s.balance, s.total); err {
		case nil:
			opt.Available = true
		case ErrInsufficientBalance:
			opt.Insufficient = true
		case ErrMissingPhone:
			opt.MissingPhone = true
		}
		options = append(options, opt)
	}
	return options
}

func (s *Selector) find(id string) *Method {
	for i := range s.methods {
		if s.methods[i].ID == id {
			m := s.methods[i]
			return &m
		}
	}
	return nil
}
