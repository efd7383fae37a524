package backend

import (
	"context"
	"strings"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/auth"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
)

// UserInput creates an account.
type UserInput struct {
	Email     string     `json:"email" validate:"required,email"`
	Password  string     `json:"password" validate:"required,min=6"`
	FirstName string     `json:"firstName" validate:"required,max=100"`
	LastName  string     `json:"lastName" validate:"required,max=100"`
	Phone     *string    `json:"phone" validate:"omitempty,min=7,max=20"`
	Address   *string    `json:"address" validate:"omitempty,max=200"`
	Role      model.Role `json:"role" validate:"required,oneof=ADMIN PARENT"`
}

// UserUpdate changes the supplied fields of an account.
type UserUpdate struct {
	Email     *string     `json:"email" validate:"omitempty,email"`
	FirstName *string     `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string     `json:"lastName" validate:"omitempty,min=1,max=100"`
	Phone     *string     `json:"phone" validate:"omitempty,min=7,max=20"`
	Address   *string     `json:"address" validate:"omitempty,max=200"`
	Role      *model.Role `json:"role" validate:"omitempty,oneof=ADMIN PARENT"`
}

// GetAllUsers lists accounts; filters: role, isActive.
func (b *Backend) GetAllUsers(ctx context.Context, p query.Params) envelope.Response[envelope.List[model.User]] {
	return run(ctx, b, "GetAllUsers", "Users retrieved successfully", func() (envelope.List[model.User], error) {
		return list("users", userQuery, b.st.Users.All(), p)
	})
}

// GetUserByID returns one account.
func (b *Backend) GetUserByID(ctx context.Context, id string) envelope.Response[model.User] {
	return run(ctx, b, "GetUserByID", "User retrieved successfully", func() (model.User, error) {
		return get(b.st.Users, id)
	})
}

// CreateUser adds an account. Emails are unique regardless of case.
func (b *Backend) CreateUser(ctx context.Context, in UserInput) envelope.Response[model.User] {
	return run(ctx, b, "CreateUser", "User created successfully", func() (model.User, error) {
		return b.createUser(in)
	})
}

func (b *Backend) createUser(in UserInput) (model.User, error) {
	in.Email = model.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := b.validate.Struct(in); err != nil {
		return model.User{}, err
	}
	hash, err := auth.HashPassword(in.Password, b.passwordCost)
	if err != nil {
		return model.User{}, err
	}
	now := b.st.Now()
	u := model.User{
		ID:           b.st.NewID(),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         in.Role,
		IsActive:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = b.st.Users.Insert(u, func(existing model.User) bool {
		return model.NormalizeEmail(existing.Email) == u.Email
	})
	if err != nil {
		return model.User{}, envelope.Conflict("User with email %s already exists", u.Email)
	}
	return u, nil
}

// UpdateUser changes profile fields. Changing the email keeps it unique.
func (b *Backend) UpdateUser(ctx context.Context, id string, in UserUpdate) envelope.Response[model.User] {
	return run(ctx, b, "UpdateUser", "User updated successfully", func() (model.User, error) {
		if in.Email != nil {
			in.Email = ptr(model.NormalizeEmail(*in.Email))
		}
		if err := b.validate.Struct(in); err != nil {
			return model.User{}, err
		}
		if in.Email != nil {
			if other, ok := b.st.UserByEmail(*in.Email); ok && other.ID != id {
				return model.User{}, envelope.Conflict("User with email %s already exists", *in.Email)
			}
		}
		return update(b.st.Users, id, func(u *model.User) error {
			if in.Email != nil {
				u.Email = *in.Email
			}
			if in.FirstName != nil {
				u.FirstName = strings.TrimSpace(*in.FirstName)
			}
			if in.LastName != nil {
				u.LastName = strings.TrimSpace(*in.LastName)
			}
			if in.Phone != nil {
				u.Phone = optional(*in.Phone)
			}
			if in.Address != nil {
				u.Address = optional(*in.Address)
			}
			if in.Role != nil {
				u.Role = *in.Role
			}
			u.UpdatedAt = b.st.Now()
			return nil
		})
	})
}

// SetUserActive activates or deactivates an account.
func (b *Backend) SetUserActive(ctx context.Context, id string, active bool) envelope.Response[model.User] {
	msg := "User deactivated successfully"
	if active {
		msg = "User activated successfully"
	}
	return run(ctx, b, "SetUserActive", msg, func() (model.User, error) {
		return update(b.st.Users, id, func(u *model.User) error {
			u.IsActive = active
			u.UpdatedAt = b.st.Now()
			return nil
		})
	})
}

// DeleteUser deactivates the account; records referencing it stay valid.
func (b *Backend) DeleteUser(ctx context.Context, id string) envelope.Response[model.User] {
	return run(ctx, b, "DeleteUser", "User deleted successfully", func() (model.User, error) {
		return update(b.st.Users, id, func(u *model.User) error {
			u.IsActive = false
			u.UpdatedAt = b.st.Now()
			return nil
		})
	})
}
