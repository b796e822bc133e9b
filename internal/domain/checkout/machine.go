// internal/domain/checkout/machine.go
package checkout

// Machine holds the checkout step and its selections. It performs no I/O;
// every rejected transition leaves it unchanged.
type Machine struct {
	session Session
}

// NewMachine creates a machine positioned at the given session
func NewMachine(session Session) *Machine {
	if session.Version == 0 {
		session.Version = SessionVersion
	}
	if !session.Step.IsValid() {
		session.Step = StepReviewCart
	}
	return &Machine{session: session}
}

// Session returns a copy of the current session
func (m *Machine) Session() Session {
	return m.session
}

// Step returns the current step
func (m *Machine) Step() Step {
	return m.session.Step
}

// DirectPayment reports whether the checkout pays for an existing order
func (m *Machine) DirectPayment() bool {
	return m.session.DirectPayment
}

// OrderID returns the order payments are made against
func (m *Machine) OrderID() string {
	return m.session.OrderID
}

// ProceedToShipping moves from the cart review to shipping
func (m *Machine) ProceedToShipping(cartEmpty bool) error {
	if m.session.DirectPayment {
		return ErrDirectPaymentMode
	}
	if m.session.Step != StepReviewCart {
		return ErrInvalidTransition
	}
	if cartEmpty {
		return ErrEmptyCart
	}
	m.session.Step = StepShipping
	return nil
}

// SelectAddress records the shipping address
func (m *Machine) SelectAddress(addressID string) error {
	if m.session.DirectPayment {
		return ErrDirectPaymentMode
	}
	if m.session.Step != StepShipping {
		return ErrInvalidTransition
	}
	m.session.ShippingAddressID = addressID
	return nil
}

// SelectPaymentMethod records the payment method. It can change on the
// payment step too, before a payment starts.
func (m *Machine) SelectPaymentMethod(methodID string) error {
	if m.session.Step != StepShipping && m.session.Step != StepPayment {
		return ErrInvalidTransition
	}
	m.session.PaymentMethodID = methodID
	return nil
}

// EnterPayment moves from shipping to payment once an order exists
func (m *Machine) EnterPayment(orderID string) error {
	if m.session.DirectPayment {
		return ErrDirectPaymentMode
	}
	if m.session.Step != StepShipping {
		return ErrInvalidTransition
	}
	if orderID == "" {
		return ErrNoOrder
	}
	m.session.OrderID = orderID
	m.session.Step = StepPayment
	return nil
}

// EnterDirectPayment starts over at the payment step for an existing order,
// preselecting the order's payment method. Cart review and shipping are not
// reachable afterwards.
func (m *Machine) EnterDirectPayment(orderID, paymentMethodID string) error {
	if orderID == "" {
		return ErrNoOrder
	}
	m.session = Session{
		Version:         SessionVersion,
		UserID:          m.session.UserID,
		Step:            StepPayment,
		PaymentMethodID: paymentMethodID,
		OrderID:         orderID,
		DirectPayment:   true,
	}
	return nil
}

// Complete moves from payment to confirmation
func (m *Machine) Complete() error {
	if m.session.Step != StepPayment {
		return ErrInvalidTransition
	}
	m.session.Step = StepConfirmation
	return nil
}

// Back moves to the predecessor step. exit is true when the checkout is left
// for the cart page instead, which happens from payment in direct mode.
func (m *Machine) Back() (exit bool, err error) {
	switch m.session.Step {
	case StepShipping:
		m.session.Step = StepReviewCart
		return false, nil
	case StepPayment:
		if m.session.DirectPayment {
			m.reset()
			return true, nil
		}
		// a new order is placed when shipping is confirmed again
		m.session.OrderID = ""
		m.session.Step = StepShipping
		return false, nil
	default:
		return false, ErrInvalidTransition
	}
}

// CanGoBack reports whether Back would stay inside the checkout
func (m *Machine) CanGoBack() bool {
	switch m.session.Step {
	case StepShipping:
		return true
	case StepPayment:
		return !m.session.DirectPayment
	default:
		return false
	}
}

// GoToCart abandons the checkout and starts over at the cart review
func (m *Machine) GoToCart() {
	m.reset()
}

func (m *Machine) reset() {
	m.session = NewSession(m.session.UserID)
}
