package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
)

type DeleteAccount interface {
	Execute(ctx context.Context, key string) error
}

type DeleteAllAccountsOutput struct {
	Deleted int64 `json:"deleted"`
}

type DeleteAllAccounts interface {
	Execute(ctx context.Context) (DeleteAllAccountsOutput, error)
}

type accountDeleter interface {
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type deleteAccount struct {
	repo accountDeleter
}

func NewDeleteAccount(repo accountDeleter) DeleteAccount {
	return &deleteAccount{repo: repo}
}

func (uc *deleteAccount) Execute(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrInvalidAccountKey
	}

	if err := uc.repo.Delete(ctx, key); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("%w: %v", ErrDeleteAccount, err)
	}
	return nil
}

type deleteAllAccounts struct {
	repo accountDeleter
}

func NewDeleteAllAccounts(repo accountDeleter) DeleteAllAccounts {
	return &deleteAllAccounts{repo: repo}
}

func (uc *deleteAllAccounts) Execute(ctx context.Context) (DeleteAllAccountsOutput, error) {
	deleted, err := uc.repo.DeleteAll(ctx)
	if err != nil {
		return DeleteAllAccountsOutput{}, fmt.Errorf("%w: %v", ErrDeleteAllAccounts, err)
	}
	return DeleteAllAccountsOutput{Deleted: deleted}, nil
}
