package application

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/internal/domain/repository"
	"github.com/sharecycle/accounts/pkg/helpers"
	"github.com/sharecycle/accounts/pkg/mailer"
)

// --- in-memory store ---

type fakeStore struct {
	mu       sync.Mutex
	accounts map[string]*entity.Account
	codes    []*entity.VerificationCode
	groups   map[string]*entity.Group
	members  map[string]map[string]bool // groupID -> accountID set
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: map[string]*entity.Account{},
		groups:   map[string]*entity.Group{},
		members:  map[string]map[string]bool{},
	}
}

func (s *fakeStore) Accounts() repository.AccountRepository       { return (*fakeAccounts)(s) }
func (s *fakeStore) Codes() repository.VerificationCodeRepository { return (*fakeCodes)(s) }
func (s *fakeStore) Groups() repository.GroupRepository           { return (*fakeGroups)(s) }

// InTx does not simulate rollback; the tests assert on the happy path
// and on errors raised before any mutation.
func (s *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.RepoSet) error) error {
	return fn(ctx, s)
}

func (s *fakeStore) addGroup(name string) *entity.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &entity.Group{ID: uuid.NewString(), Name: name, CreatedAt: time.Now()}
	s.groups[g.ID] = g
	s.members[g.ID] = map[string]bool{}
	return g
}

func (s *fakeStore) join(groupID, accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[groupID][accountID] = true
}

func copyAccount(a *entity.Account) *entity.Account {
	c := *a
	return &c
}

type fakeAccounts fakeStore

func (r *fakeAccounts) Create(ctx context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.accounts[a.ID] = copyAccount(a)
	return nil
}

func (r *fakeAccounts) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAccount(a), nil
}

func (r *fakeAccounts) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email != "" && strings.EqualFold(a.Email, email) {
			return copyAccount(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccounts) FindBySimilarEmail(ctx context.Context, email string) ([]*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Account
	for _, a := range r.accounts {
		if a.Email != "" && strings.EqualFold(a.Email, email) {
			out = append(out, copyAccount(a))
		}
	}
	return out, nil
}

func (r *fakeAccounts) Active(ctx context.Context) ([]*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Account
	for _, a := range r.accounts {
		if !a.Deleted && a.IsActive {
			out = append(out, copyAccount(a))
		}
	}
	return out, nil
}

func (r *fakeAccounts) Unverified(ctx context.Context) ([]*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Account
	for _, a := range r.accounts {
		if !a.MailVerified {
			out = append(out, copyAccount(a))
		}
	}
	return out, nil
}

func (r *fakeAccounts) ByEmails(ctx context.Context, emails []string) ([]*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := map[string]bool{}
	for _, e := range emails {
		set[e] = true
	}
	var out []*entity.Account
	for _, a := range r.accounts {
		if set[a.Email] {
			out = append(out, copyAccount(a))
		}
	}
	return out, nil
}

func (r *fakeAccounts) Update(ctx context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ID]; !ok {
		return repository.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	r.accounts[a.ID] = copyAccount(a)
	return nil
}

type fakeCodes fakeStore

func (r *fakeCodes) Create(ctx context.Context, accountID string, purpose entity.CodePurpose) (*entity.VerificationCode, error) {
	code, err := helpers.GenVerificationCode()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	vc := &entity.VerificationCode{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Purpose:   purpose,
		Code:      code,
		CreatedAt: time.Now(),
	}
	r.codes = append(r.codes, vc)
	return vc, nil
}

func (r *fakeCodes) Get(ctx context.Context, accountID string, purpose entity.CodePurpose) (*entity.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, vc := range r.codes {
		if vc.AccountID == accountID && vc.Purpose == purpose {
			return vc, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCodes) GetByCode(ctx context.Context, code string, purpose entity.CodePurpose) (*entity.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, vc := range r.codes {
		if vc.Code == code && vc.Purpose == purpose {
			return vc, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCodes) DeleteAll(ctx context.Context, accountID string, purpose entity.CodePurpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	for _, vc := range r.codes {
		if !(vc.AccountID == accountID && vc.Purpose == purpose) {
			kept = append(kept, vc)
		}
	}
	r.codes = kept
	return nil
}

func (s *fakeStore) codesFor(accountID string, purpose entity.CodePurpose) []*entity.VerificationCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.VerificationCode
	for _, vc := range s.codes {
		if vc.AccountID == accountID && vc.Purpose == purpose {
			out = append(out, vc)
		}
	}
	return out
}

type fakeGroups fakeStore

func (r *fakeGroups) FindGroupsContaining(ctx context.Context, accountID string) ([]*entity.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Group
	for gid, members := range r.members {
		if members[accountID] {
			out = append(out, r.groups[gid])
		}
	}
	return out, nil
}

func (r *fakeGroups) RemoveMembership(ctx context.Context, groupID, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[groupID], accountID)
	return nil
}

func (r *fakeGroups) MembershipCount(ctx context.Context, groupID, accountID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[groupID][accountID] {
		return 1, nil
	}
	return 0, nil
}

// --- collaborators ---

type fakeIgnoreList struct {
	addrs []string
	err   error
}

func (f *fakeIgnoreList) IgnoredAddresses(ctx context.Context) ([]string, error) {
	return f.addrs, f.err
}

type recorderOutbox struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (o *recorderOutbox) Enqueue(ctx context.Context, job mailer.EmailJob) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jobs = append(o.jobs, job)
	return nil
}

func (o *recorderOutbox) byTemplate(name string) []mailer.EmailJob {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []mailer.EmailJob
	for _, j := range o.jobs {
		if j.Template == name {
			out = append(out, j)
		}
	}
	return out
}

type fakePhotoStore struct {
	mu      sync.Mutex
	stored  int
	deleted []string
}

func (f *fakePhotoStore) Store(ctx context.Context, accountID string, r io.Reader, filename, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored++
	return fmt.Sprintf("accounts/%s/photo/%d.jpg", accountID, f.stored), nil
}

func (f *fakePhotoStore) DeleteAll(ctx context.Context, objectPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, objectPath)
	return nil
}

func (f *fakePhotoStore) PublicURL(objectPath string) string {
	return "https://img.example/" + objectPath
}

type fakeIndexer struct {
	mu      sync.Mutex
	indexed map[string]int
	removed []string
}

func (f *fakeIndexer) Index(ctx context.Context, a *entity.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexed == nil {
		f.indexed = map[string]int{}
	}
	f.indexed[a.ID]++
	return nil
}

func (f *fakeIndexer) Remove(ctx context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, accountID)
	return nil
}
