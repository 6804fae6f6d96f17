package account

import "time"

// Record is a validated candidate account. The zero value is not valid;
// records are only produced by NewRecord.
type Record struct {
	accountID string
	uid       string
	password  string
	rareTypes []string
}

func NewRecord(accountID, uid, password string, rareTypes []string) (Record, error) {
	if accountID == "" {
		return Record{}, ErrMissingAccountID
	}
	if uid == "" {
		return Record{}, ErrMissingUID
	}
	if password == "" {
		return Record{}, ErrMissingPassword
	}

	types := make([]string, len(rareTypes))
	copy(types, rareTypes)

	return Record{
		accountID: accountID,
		uid:       uid,
		password:  password,
		rareTypes: types,
	}, nil
}

func (r Record) AccountID() string { return r.accountID }

func (r Record) UID() string { return r.uid }

func (r Record) Password() string { return r.password }

func (r Record) RareTypes() []string {
	types := make([]string, len(r.rareTypes))
	copy(types, r.rareTypes)
	return types
}

// Payload is what gets written to the remote store for one record.
type Payload struct {
	AccountID  string
	UID        string
	Password   string
	RareTypes  []string
	CreatedAt  time.Time
	UploadedAt time.Time
}

func NewPayload(r Record, now time.Time) Payload {
	return Payload{
		AccountID:  r.accountID,
		UID:        r.uid,
		Password:   r.password,
		RareTypes:  r.RareTypes(),
		CreatedAt:  now,
		UploadedAt: now,
	}
}

// Account is a stored payload together with the key the store generated for it.
type Account struct {
	Key        string
	AccountID  string
	UID        string
	Password   string
	RareTypes  []string
	CreatedAt  time.Time
	UploadedAt time.Time
}

func (a Account) IsRare() bool {
	return len(a.RareTypes) > 0
}
