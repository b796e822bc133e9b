// internal/domain/user/entity.go
package user

import (
	"strings"

	"github.com/your-org/storefront-checkout/internal/domain/payment"
)

// Profile is the store API's view of the signed-in user
type Profile struct {
	ID             string           `json:"id"`
	Email          string           `json:"email"`
	FirstName      string           `json:"firstName"`
	LastName       string           `json:"lastName"`
	Phone          string           `json:"phone"`
	Addresses      []Address        `json:"addresses"`
	PaymentMethods []payment.Method `json:"paymentMethods"`
}

// Address represents a shipping address on file
type Address struct {
	ID           string `json:"id"`
	Type         string `json:"type"` // shipping, billing
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country"`
	Phone        string `json:"phone,omitempty"`
	IsDefault    bool   `json:"isDefault"`
}

// FindAddress returns the address with the given id
func (p *Profile) FindAddress(id string) (*Address, bool) {
	for i := range p.Addresses {
		if p.Addresses[i].ID == id {
			a := p.Addresses[i]
			return &a, true
		}
	}
	return nil, false
}

// FindPaymentMethod returns the payment method with the given id
func (p *Profile) FindPaymentMethod(id string) (*payment.Method, bool) {
	for i := range p.PaymentMethods {
		if p.PaymentMethods[i].ID == id {
			m := p.PaymentMethods[i]
			return &m, true
		}
	}
	return nil, false
}

// MpesaPhone returns the phone number to send an STK push to. The number on
// the method wins over the profile phone.
func (p *Profile) MpesaPhone(m *payment.Method) string {
	if m != nil {
		if phone := m.PhoneNumber(); phone != "" {
			return phone
		}
	}
	return strings.TrimSpace(p.Phone)
}

// ResolvedMethods returns the payment methods with M-Pesa numbers filled in
// from the profile phone where the method carries none.
func (p *Profile) ResolvedMethods() []payment.Method {
	methods := make([]payment.Method, len(p.PaymentMethods))
	copy(methods, p.PaymentMethods)
	for i := range methods {
		if methods[i].Type == payment.MethodMpesa && methods[i].PhoneNumber() == "" {
			methods[i].Details = strings.TrimSpace(p.Phone)
		}
	}
	return methods
}

// Clone returns a deep copy of the profile
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Addresses = append([]Address(nil), p.Addresses...)
	c.PaymentMethods = append([]payment.Method(nil), p.PaymentMethods...)
	return &c
}
