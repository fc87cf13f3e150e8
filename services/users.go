package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/AmyVerse/ayursutra-web-sub001/models"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

type Registration struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     models.Role
}

type UserService struct {
	db  *gorm.DB
	ids *AyursutraIDService
	log *zap.Logger
}

func NewUserService(db *gorm.DB, ids *AyursutraIDService, log *zap.Logger) *UserService {
	return &UserService{db: db, ids: ids, log: log}
}

// Register creates the account and assigns its AyurSutra ID.
func (s *UserService) Register(ctx context.Context, r Registration) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(r.Email))
	phone := strings.TrimSpace(r.Phone)
	if email == "" && phone == "" {
		return nil, xerrors.ErrIdentifierRequired
	}

	user := models.User{Name: strings.TrimSpace(r.Name), Role: r.Role}
	if email != "" {
		user.Email = &email
	}
	if phone != "" {
		user.Phone = &phone
	}
	if r.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.KindInternal, "hash password", err)
		}
		h := string(hash)
		user.PasswordHash = &h
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, xerrors.ErrAccountExists
		}
		return nil, xerrors.Wrap(xerrors.KindInternal, "create user", err)
	}

	id, _, err := s.ids.Assign(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.AyursutraID = &id
	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerrors.ErrUserNotFound
		}
		return nil, xerrors.Wrap(xerrors.KindInternal, "load user", err)
	}
	return &user, nil
}

// FindByIdentifier looks the user up by email when identifier contains "@", by phone otherwise.
func (s *UserService) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	column, value := identifierColumn(identifier)
	var user models.User
	if err := s.db.WithContext(ctx).Where(column+" = ?", value).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerrors.ErrUserNotFound
		}
		return nil, xerrors.Wrap(xerrors.KindInternal, "find user", err)
	}
	return &user, nil
}

func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := s.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, xerrors.ErrUserNotFound) {
			return nil, xerrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, xerrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, xerrors.ErrInvalidCredentials
	}
	return user, nil
}

func identifierColumn(identifier string) (column, value string) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return "email", strings.ToLower(identifier)
	}
	return "phone", identifier
}
