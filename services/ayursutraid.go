package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AmyVerse/ayursutra-web-sub001/models"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

const (
	ayursutraIDBodyLen = 10
	maxAssignAttempts  = 3
	base36Alphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var idCounter uint64

// GenerateAyursutraID returns AS-<role prefix>-<10 base36 chars>. The body is the millisecond
// clock plus a process counter, followed by a random salt.
func GenerateAyursutraID(role models.Role) string {
	counter := atomic.AddUint64(&idCounter, 1)
	ts := time.Now().UnixMilli()

	body := strings.ToUpper(big.NewInt(ts+int64(counter)).Text(36)) + randomBase36(2)
	if len(body) > ayursutraIDBodyLen {
		body = body[len(body)-ayursutraIDBodyLen:]
	} else if len(body) < ayursutraIDBodyLen {
		body = strings.Repeat("0", ayursutraIDBodyLen-len(body)) + body
	}
	return "AS-" + role.IDPrefix() + "-" + body
}

func randomBase36(n int) string {
	b := make([]byte, n)
	n36 := big.NewInt(int64(len(base36Alphabet)))
	for i := range b {
		v, err := rand.Int(rand.Reader, n36)
		if err != nil {
			b[i] = '0'
			continue
		}
		b[i] = base36Alphabet[v.Int64()]
	}
	return string(b)
}

type AyursutraIDService struct {
	db       *gorm.DB
	log      *zap.Logger
	generate func(models.Role) string
}

func NewAyursutraIDService(db *gorm.DB, log *zap.Logger) *AyursutraIDService {
	return &AyursutraIDService{db: db, log: log, generate: GenerateAyursutraID}
}

// Assign gives the user an AyurSutra ID if it has none. created is false when the user
// already had one, including when a concurrent request assigned it first.
func (s *AyursutraIDService) Assign(ctx context.Context, userID uint) (id string, created bool, err error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, xerrors.ErrUserNotFound
		}
		return "", false, xerrors.Wrap(xerrors.KindInternal, "load user", err)
	}
	if user.AyursutraID != nil {
		return *user.AyursutraID, false, nil
	}
	if user.Role.IDPrefix() == "" {
		return "", false, xerrors.New(xerrors.KindInternal, "unknown role "+string(user.Role))
	}

	for attempt := 1; attempt <= maxAssignAttempts; attempt++ {
		candidate := s.generate(user.Role)
		res := s.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ? AND ayursutra_id IS NULL", userID).
			Update("ayursutra_id", candidate)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				s.log.Warn("ayursutra id collision",
					zap.Uint("user_id", userID),
					zap.Int("attempt", attempt))
				continue
			}
			return "", false, xerrors.Wrap(xerrors.KindInternal, "assign ayursutra id", res.Error)
		}
		if res.RowsAffected == 1 {
			s.log.Info("ayursutra id assigned", zap.Uint("user_id", userID), zap.String("ayursutra_id", candidate))
			return candidate, true, nil
		}
		return s.current(ctx, userID)
	}
	return "", false, xerrors.New(xerrors.KindUpstream, "Failed to generate AyurSutra ID")
}

// current re-reads the ID after a conditional update matched no row.
func (s *AyursutraIDService) current(ctx context.Context, userID uint) (string, bool, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "ayursutra_id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, xerrors.ErrUserNotFound
		}
		return "", false, xerrors.Wrap(xerrors.KindInternal, "reload user", err)
	}
	if user.AyursutraID == nil {
		return "", false, xerrors.New(xerrors.KindInternal, "ayursutra id not persisted")
	}
	return *user.AyursutraID, false, nil
}
