package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
)

const (
	defaultPerPage = 10
	maxPerPage     = 500
)

// DashboardQuery is the view state of the accounts table.
type DashboardQuery struct {
	Search  string
	Page    int
	PerPage int
}

type Stats struct {
	Total int `json:"total"`
	Rare  int `json:"rare"`
}

type Page struct {
	Items      []domain.Account
	Page       int
	PerPage    int
	TotalItems int
	TotalPages int
}

func FilterAccounts(accounts []domain.Account, search string) []domain.Account {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return append([]domain.Account(nil), accounts...)
	}

	filtered := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		if matchesSearch(a, term) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func matchesSearch(a domain.Account, term string) bool {
	if strings.Contains(strings.ToLower(a.AccountID), term) ||
		strings.Contains(strings.ToLower(a.UID), term) ||
		strings.Contains(strings.ToLower(a.Password), term) {
		return true
	}
	for _, rareType := range a.RareTypes {
		if strings.Contains(strings.ToLower(rareType), term) {
			return true
		}
	}
	return false
}

// PaginateAccounts returns one page of accounts. Out of range pages are
// clamped to the first or last page.
func PaginateAccounts(accounts []domain.Account, page, perPage int) Page {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	totalPages := (len(accounts) + perPage - 1) / perPage
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	if start > len(accounts) {
		start = len(accounts)
	}
	end := start + perPage
	if end > len(accounts) {
		end = len(accounts)
	}

	return Page{
		Items:      accounts[start:end],
		Page:       page,
		PerPage:    perPage,
		TotalItems: len(accounts),
		TotalPages: totalPages,
	}
}

func ComputeStats(accounts []domain.Account) Stats {
	stats := Stats{Total: len(accounts)}
	for _, a := range accounts {
		if a.IsRare() {
			stats.Rare++
		}
	}
	return stats
}

type AccountOutput struct {
	Key        string    `json:"key"`
	AccountID  string    `json:"account_id"`
	UID        string    `json:"uid"`
	Password   string    `json:"password"`
	RareTypes  []string  `json:"rare_types"`
	CreatedAt  time.Time `json:"created_at"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type ListAccountsOutput struct {
	Accounts   []AccountOutput `json:"accounts"`
	Stats      Stats           `json:"stats"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	Matched    int             `json:"matched"`
	TotalPages int             `json:"total_pages"`
}

type ListAccounts interface {
	Execute(ctx context.Context, query DashboardQuery) (ListAccountsOutput, error)
}

type accountLister interface {
	List(ctx context.Context) ([]domain.Account, error)
}

type listAccounts struct {
	repo accountLister
}

func NewListAccounts(repo accountLister) ListAccounts {
	return &listAccounts{repo: repo}
}

func (uc *listAccounts) Execute(ctx context.Context, query DashboardQuery) (ListAccountsOutput, error) {
	all, err := uc.repo.List(ctx)
	if err != nil {
		return ListAccountsOutput{}, fmt.Errorf("%w: %v", ErrListAccounts, err)
	}

	page := PaginateAccounts(FilterAccounts(all, query.Search), query.Page, query.PerPage)

	accounts := make([]AccountOutput, 0, len(page.Items))
	for _, a := range page.Items {
		rareTypes := a.RareTypes
		if rareTypes == nil {
			rareTypes = []string{}
		}
		accounts = append(accounts, AccountOutput{
			Key:        a.Key,
			AccountID:  a.AccountID,
			UID:        a.UID,
			Password:   a.Password,
			RareTypes:  rareTypes,
			CreatedAt:  a.CreatedAt,
			UploadedAt: a.UploadedAt,
		})
	}

	return ListAccountsOutput{
		Accounts:   accounts,
		Stats:      ComputeStats(all),
		Page:       page.Page,
		PerPage:    page.PerPage,
		Matched:    page.TotalItems,
		TotalPages: page.TotalPages,
	}, nil
}
