package authentication

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/AmyVerse/ayursutra-web-sub001/models"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

// Profile is the role-specific view of an account: either PatientAccount or DoctorAccount.
type Profile interface {
	Account() *models.User
	profile()
}

type PatientAccount struct {
	User models.User
}

// DoctorAccount carries the doctor's profile row. Doctor is nil until the profile is created.
type DoctorAccount struct {
	User   models.User
	Doctor *models.DoctorProfile
}

func (p *PatientAccount) Account() *models.User { return &p.User }
func (p *PatientAccount) profile()              {}
func (d *DoctorAccount) Account() *models.User  { return &d.User }
func (d *DoctorAccount) profile()               {}

// PrincipalFor builds the session principal for a loaded profile.
func PrincipalFor(p Profile) Principal {
	u := p.Account()
	principal := Principal{
		UserID:      u.ID,
		Role:        u.Role,
		Phone:       u.PhoneValue(),
		AyursutraID: u.AyursutraIDValue(),
	}
	if d, ok := p.(*DoctorAccount); ok {
		principal.DoctorProfile = d.Doctor
	}
	return principal
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	Principal Principal
}

// Bridge turns stored accounts into signed sessions.
type Bridge struct {
	db     *gorm.DB
	issuer *TokenIssuer
}

func NewBridge(db *gorm.DB, issuer *TokenIssuer) *Bridge {
	return &Bridge{db: db, issuer: issuer}
}

func (b *Bridge) Issuer() *TokenIssuer { return b.issuer }

// Load reads the user and, for doctors, the doctor profile keyed by AyurSutra ID.
func (b *Bridge) Load(ctx context.Context, userID uint) (Profile, error) {
	var user models.User
	if err := b.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerrors.ErrUserNotFound
		}
		return nil, xerrors.Wrap(xerrors.KindInternal, "load user", err)
	}

	switch user.Role {
	case models.RolePatient:
		return &PatientAccount{User: user}, nil
	case models.RoleDoctor:
		account := &DoctorAccount{User: user}
		if user.AyursutraID == nil {
			return account, nil
		}
		var doctor models.DoctorProfile
		err := b.db.WithContext(ctx).Where("ayursutra_id = ?", *user.AyursutraID).First(&doctor).Error
		switch {
		case err == nil:
			account.Doctor = &doctor
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, xerrors.Wrap(xerrors.KindInternal, "load doctor profile", err)
		}
		return account, nil
	default:
		return nil, xerrors.New(xerrors.KindInternal, "unknown role "+string(user.Role))
	}
}

func (b *Bridge) SignIn(ctx context.Context, userID uint) (*Session, error) {
	profile, err := b.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, xerrors.ErrUserNotFound) {
			return nil, xerrors.ErrUnauthorized
		}
		return nil, err
	}
	return b.sign(PrincipalFor(profile))
}

// Refresh rebuilds the principal from the current user row, picking up an AyurSutra ID,
// phone or doctor profile added since the token was issued.
func (b *Bridge) Refresh(ctx context.Context, current Principal) (*Session, error) {
	return b.SignIn(ctx, current.UserID)
}

func (b *Bridge) sign(p Principal) (*Session, error) {
	token, exp, err := b.issuer.Sign(p)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindInternal, "sign session", err)
	}
	return &Session{Token: token, ExpiresAt: exp, Principal: p}, nil
}
