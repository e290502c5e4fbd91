package engine

import (
	"context"
	"fmt"
	"strings"

	"infinityhotel/internal/models"
	"infinityhotel/internal/validation"
)

// CustomerInput carries customer fields from registration or staff forms.
type CustomerInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

func (in CustomerInput) normalize() (name, email, phone string, err error) {
	if err = validation.Struct(in); err != nil {
		return "", "", "", invalid(err)
	}
	if name, err = validation.Name(in.Name); err != nil {
		return "", "", "", invalid(err)
	}
	if email, err = validation.Email(in.Email); err != nil {
		return "", "", "", invalid(err)
	}
	if phone, err = validation.Phone(in.Phone); err != nil {
		return "", "", "", invalid(err)
	}
	return name, email, phone, nil
}

// ListCustomers returns all customers in registration order.
func (e *Engine) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	list, err := e.repo.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	if list == nil {
		list = []models.Customer{}
	}
	return list, nil
}

// GetCustomer returns a customer by id.
func (e *Engine) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	c, err := e.repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrCustomerNotFound, "customer")
	}
	return c, nil
}

// FindCustomerByEmail looks a customer up by e-mail, ignoring case.
func (e *Engine) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	email, err := validation.Email(email)
	if err != nil {
		return nil, invalid(err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.customerByEmail(ctx, email)
}

func (e *Engine) customerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	customers, err := e.repo.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	for i := range customers {
		if strings.EqualFold(customers[i].Email, email) {
			return &customers[i], nil
		}
	}
	return nil, ErrCustomerNotFound
}

// emailTaken reports whether a customer other than exceptID uses email.
func (e *Engine) emailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	customers, err := e.repo.ListCustomers(ctx)
	if err != nil {
		return false, fmt.Errorf("list customers: %w", err)
	}
	for _, c := range customers {
		if c.ID != exceptID && strings.EqualFold(c.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// CreateCustomer registers a customer with a unique e-mail.
func (e *Engine) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	name, email, phone, err := in.normalize()
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	taken, err := e.emailTaken(ctx, email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	c := &models.Customer{
		ID:        e.newID(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: e.now(),
	}
	if err := e.repo.PutCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("store customer: %w", err)
	}

	e.logger.Info().Str("customer_id", c.ID).Str("email", c.Email).Msg("Customer created")
	return c, nil
}

// UpdateCustomer replaces name, e-mail and phone of customer id.
func (e *Engine) UpdateCustomer(ctx context.Context, id string, in CustomerInput) (*models.Customer, error) {
	name, email, phone, err := in.normalize()
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrCustomerNotFound, "customer")
	}
	taken, err := e.emailTaken(ctx, email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	c.Name, c.Email, c.Phone = name, email, phone
	if err := e.repo.PutCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("store customer: %w", err)
	}

	e.logger.Info().Str("customer_id", c.ID).Msg("Customer updated")
	return c, nil
}

// DeleteCustomer removes a customer that no active reservation references.
func (e *Engine) DeleteCustomer(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.repo.GetCustomer(ctx, id); err != nil {
		return notFound(err, ErrCustomerNotFound, "customer")
	}

	reservations, err := e.repo.ListReservations(ctx)
	if err != nil {
		return fmt.Errorf("list reservations: %w", err)
	}
	for _, r := range reservations {
		if r.CustomerID == id && r.IsActive() {
			return ErrCustomerHasActiveReservations
		}
	}

	if err := e.repo.DeleteCustomer(ctx, id); err != nil {
		return notFound(err, ErrCustomerNotFound, "customer")
	}
	e.logger.Info().Str("customer_id", id).Msg("Customer deleted")
	return nil
}
