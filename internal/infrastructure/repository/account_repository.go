package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
	"github.com/mohammadpnp/account-admin/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	var rows []models.Account
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, domain.Account{
			Key:        row.ID,
			AccountID:  row.AccountID,
			UID:        row.UID,
			Password:   row.Password,
			RareTypes:  []string(row.RareTypes),
			CreatedAt:  row.CreatedAt,
			UploadedAt: row.UploadedAt,
		})
	}
	return accounts, nil
}

func (r *AccountRepository) Delete(ctx context.Context, key string) error {
	if _, err := uuid.Parse(key); err != nil {
		return domain.ErrAccountNotFound
	}

	result := r.db.WithContext(ctx).Delete(&models.Account{}, "id = ?", key)
	if result.Error != nil {
		return fmt.Errorf("delete account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Account{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete all accounts: %w", result.Error)
	}
	return result.RowsAffected, nil
}
