package backend

import (
	"context"
	"time"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/auth"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

const (
	msgBadCredentials = "Invalid email or password"
	msgDeactivated    = "Account is deactivated"
)

// Session is returned by Login and RefreshSession.
type Session struct {
	User         model.User `json:"user"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresIn    int64      `json:"expiresIn"` // seconds
}

// RegisterInput is a parent's self-registration.
type RegisterInput struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Phone     *string `json:"phone" validate:"omitempty,min=7,max=20"`
	Address   *string `json:"address" validate:"omitempty,max=200"`
}

// Login checks credentials and issues tokens. A failed login changes nothing.
func (b *Backend) Login(ctx context.Context, email, password string) envelope.Response[Session] {
	return run(ctx, b, "Login", "Login successful", func() (Session, error) {
		u, ok := b.st.UserByEmail(email)
		if !ok || !auth.CheckPassword(u.PasswordHash, password) {
			return Session{}, envelope.Unauthenticated(msgBadCredentials)
		}
		if !u.IsActive {
			return Session{}, envelope.Unauthenticated(msgDeactivated)
		}
		return b.session(u)
	})
}

// RefreshSession exchanges a refresh token for a new token pair.
func (b *Backend) RefreshSession(ctx context.Context, refreshToken string) envelope.Response[Session] {
	return run(ctx, b, "RefreshSession", "Session refreshed", func() (Session, error) {
		claims, err := b.issuer.ParseRefresh(refreshToken)
		if err != nil {
			return Session{}, envelope.Unauthenticated("Invalid refresh token")
		}
		u, err := b.st.Users.Get(claims.Subject)
		if err != nil {
			return Session{}, envelope.Unauthenticated("Invalid refresh token")
		}
		if !u.IsActive {
			return Session{}, envelope.Unauthenticated(msgDeactivated)
		}
		return b.session(u)
	})
}

func (b *Backend) session(u model.User) (Session, error) {
	pair, err := b.issuer.Issue(u.ID, string(u.Role))
	if err != nil {
		return Session{}, err
	}
	return Session{
		User:         u,
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(b.issuer.AccessTTL / time.Second),
	}, nil
}

// Register creates an active parent account.
func (b *Backend) Register(ctx context.Context, in RegisterInput) envelope.Response[model.User] {
	return run(ctx, b, "Register", "Registration successful", func() (model.User, error) {
		return b.createUser(UserInput{
			Email:     in.Email,
			Password:  in.Password,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Phone:     in.Phone,
			Address:   in.Address,
			Role:      model.RoleParent,
		})
	})
}

// GetProfile returns the caller's own account.
func (b *Backend) GetProfile(ctx context.Context, userID string) envelope.Response[model.User] {
	return run(ctx, b, "GetProfile", "Profile retrieved successfully", func() (model.User, error) {
		return get(b.st.Users, userID)
	})
}

// ChangePassword replaces the caller's password after checking the current one.
func (b *Backend) ChangePassword(ctx context.Context, userID, current, next string) envelope.Response[model.User] {
	return run(ctx, b, "ChangePassword", "Password changed successfully", func() (model.User, error) {
		if len(next) < 6 {
			return model.User{}, envelope.Invalid("new password is too short", map[string]string{"newPassword": "min"})
		}
		u, err := get(b.st.Users, userID)
		if err != nil {
			return model.User{}, err
		}
		if !auth.CheckPassword(u.PasswordHash, current) {
			return model.User{}, envelope.Unauthenticated("Current password is incorrect")
		}
		hash, err := auth.HashPassword(next, b.passwordCost)
		if err != nil {
			return model.User{}, err
		}
		return update(b.st.Users, userID, func(u *model.User) error {
			u.PasswordHash = hash
			u.UpdatedAt = b.st.Now()
			return nil
		})
	})
}
