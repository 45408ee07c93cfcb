package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "cuentas/internal/errors"
	"cuentas/internal/models"
)

const resetTokenTTL = 15 * time.Minute

// userService handles user-related business logic.
type userService struct {
	db       *gorm.DB
	receipts ReceiptRemover
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, receipts ReceiptRemover) UserServicer {
	return &userService{db: db, receipts: receipts}
}

// CreateUser registers a new user
func (s *userService) CreateUser(username, email, password string) (*models.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username, email and password are required")
	}

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(email),
		Password: string(hashedPassword),
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// DeleteAccount removes the user together with all their transactions and
// budgets. The rows go first, in one database transaction; receipt files
// are cleaned up afterwards, best effort.
func (s *userService) DeleteAccount(userID uint) error {
	var receiptURLs []string
	err := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND receipt_url <> ''", userID).
		Pluck("receipt_url", &receiptURLs).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Budget{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.User{}, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if s.receipts != nil {
		for _, url := range receiptURLs {
			s.receipts.Remove(url)
		}
	}
	return nil
}

// CreateResetToken issues a password reset token for the user with the
// given email. Only the SHA-256 digest is stored; the plain token goes
// into the emailed link and expires after 15 minutes.
func (s *userService) CreateResetToken(email string) (string, *models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return "", nil, err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	token := hex.EncodeToString(raw)
	expires := time.Now().Add(resetTokenTTL)

	err = s.db.Model(user).Updates(map[string]interface{}{
		"reset_token_hash":    hashResetToken(token),
		"reset_token_expires": expires,
	}).Error
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return token, user, nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *userService) ResetPassword(token, newPassword string) error {
	if newPassword == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "password is required")
	}

	var user models.User
	err := s.db.
		Where("reset_token_hash = ? AND reset_token_expires > ?", hashResetToken(token), time.Now()).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrInvalidResetToken
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Model(&user).Updates(map[string]interface{}{
		"password":            string(hashedPassword),
		"reset_token_hash":    "",
		"reset_token_expires": nil,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
