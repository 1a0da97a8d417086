package identity

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"addressbook/internal/apierr"
	"addressbook/internal/logger"
	"addressbook/internal/models"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type Store interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateAvatar stores key as the user's avatar and returns the previous one.
	UpdateAvatar(ctx context.Context, userID uint, key string) (string, error)
}

type store struct {
	db   *gorm.DB
	log  *logger.Logger
	cost int
	// compared against when the email is unknown so both paths pay for a bcrypt run
	dummyHash []byte
}

func NewStore(db *gorm.DB, baseLog *logger.Logger) Store {
	return NewStoreWithCost(db, baseLog, bcrypt.DefaultCost)
}

// NewStoreWithCost lets tests trade hash strength for speed.
func NewStoreWithCost(db *gorm.DB, baseLog *logger.Logger, cost int) Store {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &store{db: db, log: baseLog.With("store", "IdentityStore"), cost: cost, dummyHash: dummy}
}

func (s *store) findBy(ctx context.Context, column string, value interface{}) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where(column+" = ?", value).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *store) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.findBy(ctx, "id", id)
}

func (s *store) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findBy(ctx, "username", username)
}

func (s *store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findBy(ctx, "email", email)
}

func (s *store) exists(tx *gorm.DB, column, value string) (bool, error) {
	var n int64
	if err := tx.Model(&models.User{}).Where(column+" = ?", value).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *store) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, apierr.Validation(apierr.FieldError{Field: "username,email,password", Message: "all fields are required"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Avatar:       models.DefaultAvatar,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := s.exists(tx, "username", username); err != nil {
			return err
		} else if taken {
			return apierr.Conflict("username already exists")
		}
		if taken, err := s.exists(tx, "email", email); err != nil {
			return err
		} else if taken {
			return apierr.Conflict("email already registered")
		}
		return tx.Create(u).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apierr.Conflict("username or email already exists")
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (s *store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apierr.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, apierr.Auth("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apierr.Auth("invalid email or password")
	}
	return u, nil
}

func (s *store) UpdateAvatar(ctx context.Context, userID uint, key string) (string, error) {
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.NotFound("user %d", userID)
			}
			return err
		}
		previous = u.Avatar
		return tx.Model(&u).Update("avatar", key).Error
	})
	return previous, err
}
