package store

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"walkcanvas/internal/events"
	"walkcanvas/internal/models"
)

// RegisterInput is the payload of Register. Every field is required.
type RegisterInput struct {
	AccountID string
	Password  string
	Nickname  string
	Gender    string
}

// ChangeAccountInput is the payload of ChangeAccount. Every field is required.
type ChangeAccountInput struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
	Nickname        string
	Gender          string
}

// Register creates an account. Every field is required. An existing AccountID fails with
// ErrConflict and leaves the stored account untouched.
func (s *Store) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	if in.AccountID == "" || in.Password == "" || in.Nickname == "" || in.Gender == "" {
		return nil, fmt.Errorf("%w: ID, PW, NAME and SEX are required", ErrBadRequest)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	account := models.Account{
		AccountID:    in.AccountID,
		PasswordHash: hash,
		Nickname:     in.Nickname,
		Gender:       in.Gender,
	}

	err = s.session(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Account{}).Where("account_id = ?", in.AccountID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: account %q", ErrConflict, in.AccountID)
		}
		return tx.Create(&account).Error
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, err
		}
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: account %q", ErrConflict, in.AccountID)
		}
		return nil, fmt.Errorf("store: Register: %w", err)
	}

	s.publish(ctx, events.Event{Type: events.AccountRegistered, AccountID: account.AccountID})
	return &account, nil
}

// Authenticate returns the account when password matches. Unknown accounts and wrong
// passwords both fail with ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, accountID, password string) (*models.Account, error) {
	if accountID == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	account, err := s.findAccount(s.session(ctx), accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || !checkPassword(account.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// ChangeAccount replaces password, nickname and gender in one update after checking the
// current password. The update is conditioned on the hash that was verified, so a
// concurrent change makes this call fail instead of overwriting it.
func (s *Store) ChangeAccount(ctx context.Context, in ChangeAccountInput) error {
	if in.AccountID == "" || in.CurrentPassword == "" || in.NewPassword == "" || in.Nickname == "" || in.Gender == "" {
		return fmt.Errorf("%w: ID, PW, NEW_PW, NAME and SEX are required", ErrBadRequest)
	}

	newHash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	return s.session(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.findAccount(tx, in.AccountID)
		if err != nil {
			return err
		}
		if account == nil || !checkPassword(account.PasswordHash, in.CurrentPassword) {
			return ErrInvalidCredentials
		}

		res := tx.Model(&models.Account{}).
			Where("account_id = ? AND password_hash = ?", in.AccountID, account.PasswordHash).
			Updates(map[string]any{
				"password_hash": newHash,
				"nickname":      in.Nickname,
				"gender":        in.Gender,
			})
		if res.Error != nil {
			return fmt.Errorf("store: ChangeAccount: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInvalidCredentials
		}
		return nil
	})
}

// ExistsByID reports whether an account uses accountID.
func (s *Store) ExistsByID(ctx context.Context, accountID string) (bool, error) {
	return s.exists(ctx, "account_id = ?", accountID)
}

// ExistsByNickname reports whether any account uses nickname.
func (s *Store) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return s.exists(ctx, "nickname = ?", nickname)
}

func (s *Store) exists(ctx context.Context, cond string, value string) (bool, error) {
	var n int64
	if err := s.session(ctx).Model(&models.Account{}).Where(cond, value).Count(&n).Error; err != nil {
		return false, fmt.Errorf("store: exists: %w", err)
	}
	return n > 0, nil
}

// findAccount returns (nil, nil) when the account does not exist.
func (s *Store) findAccount(db *gorm.DB, accountID string) (*models.Account, error) {
	var account models.Account
	err := db.Where("account_id = ?", accountID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find account: %w", err)
	}
	return &account, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password longer than 72 bytes", ErrBadRequest)
	}
	if err != nil {
		return "", fmt.Errorf("store: hash password: %w", err)
	}
	return string(hash), nil
}

// checkPassword accepts bcrypt hashes and the unsalted hex SHA-256 hashes written by the
// previous service.
func checkPassword(stored, password string) bool {
	if isLegacyHash(stored) {
		sum := sha256.Sum256([]byte(password))
		return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(stored)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

func isLegacyHash(stored string) bool {
	if len(stored) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(stored)
	return err == nil
}
