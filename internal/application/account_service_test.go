package application

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharecycle/accounts/config"
	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/internal/domain/repository"
	"github.com/sharecycle/accounts/pkg/helpers"
	mailtpl "github.com/sharecycle/accounts/pkg/mailer/templates"
)

type testEnv struct {
	svc    *Service
	store  *fakeStore
	outbox *recorderOutbox
	photos *fakePhotoStore
	index  *fakeIndexer
	ignore *fakeIgnoreList
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	env := &testEnv{
		store:  newFakeStore(),
		outbox: &recorderOutbox{},
		photos: &fakePhotoStore{},
		index:  &fakeIndexer{},
		ignore: &fakeIgnoreList{},
	}
	cfg := &config.Config{
		AppName:     "sharecycle-accounts",
		Hostname:    "https://app.sharecycle.test",
		CompanyName: "ShareCycle",
	}
	env.svc = NewService(env.store, env.ignore, env.photos, env.index, env.outbox, nil, nil, logger, cfg)
	return env
}

func (e *testEnv) createUser(t *testing.T, email string) *entity.Account {
	t.Helper()
	a, err := e.svc.CreateUser(context.Background(), CreateUserInput{
		Email:       email,
		Password:    "correct horse battery",
		DisplayName: "Pat",
	})
	require.NoError(t, err)
	return a
}

func (e *testEnv) pendingCode(t *testing.T, accountID string, purpose entity.CodePurpose) string {
	t.Helper()
	codes := e.store.codesFor(accountID, purpose)
	require.Len(t, codes, 1)
	return codes[0].Code
}

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"pat@Example.ORG", "pat@example.org"},
		{"  Pat@Example.org  ", "Pat@example.org"},
		{"no-at-sign", "no-at-sign"},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeEmail(tc.in), tc.in)
	}
}

func TestCreateUser_WelcomeFlow(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "pat@example.org", a.Email)
	assert.Equal(t, "pat@example.org", a.UnverifiedEmail)
	assert.False(t, a.MailVerified)
	assert.True(t, a.IsActive)
	assert.True(t, a.HasUsablePassword())

	code := env.pendingCode(t, a.ID, entity.EmailVerification)
	assert.Len(t, code, 40)

	jobs := env.outbox.byTemplate(mailtpl.MailVerification)
	require.Len(t, jobs, 1)
	assert.Equal(t, "pat@example.org", jobs[0].To)
	assert.Contains(t, jobs[0].Data["ActionURL"], code)

	assert.Equal(t, 1, env.index.indexed[a.ID])
}

func TestCreateUser_EmptyEmail(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CreateUser(context.Background(), CreateUserInput{Email: "   ", Password: "x"})
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestCreateUser_WithoutPassword(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.svc.CreateUser(context.Background(), CreateUserInput{Email: "nopass@example.org"})
	require.NoError(t, err)
	assert.False(t, a.HasUsablePassword())
}

func TestCreateSuperuser(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.svc.CreateSuperuser(context.Background(), "root@example.org", "hunter22")
	require.NoError(t, err)

	stored, err := env.store.Accounts().GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSuperuser)
	assert.True(t, stored.IsStaff)
	assert.Equal(t, "root@example.org", stored.DisplayName)
	assert.True(t, stored.HasPerm("any.permission"))
}

func TestGetByCanonicalKey_CaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "Pat@Example.org")

	found, err := env.svc.GetByCanonicalKey(context.Background(), "PAT@EXAMPLE.ORG")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)

	_, err = env.svc.GetByCanonicalKey(context.Background(), "nobody@example.org")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestConfirmEmail_SingleShot(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")
	code := env.pendingCode(t, a.ID, entity.EmailVerification)

	verified, err := env.svc.ConfirmEmail(context.Background(), code)
	require.NoError(t, err)
	assert.True(t, verified.MailVerified)
	assert.Empty(t, env.store.codesFor(a.ID, entity.EmailVerification))

	_, err = env.svc.ConfirmEmail(context.Background(), code)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestVerifyEmail_NoPendingCode(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")
	code := env.pendingCode(t, a.ID, entity.EmailVerification)
	_, err := env.svc.ConfirmEmail(context.Background(), code)
	require.NoError(t, err)

	_, err = env.svc.VerifyEmail(context.Background(), a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateEmail_ThenVerify(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "old@example.org")
	_, err := env.svc.ConfirmEmail(context.Background(), env.pendingCode(t, a.ID, entity.EmailVerification))
	require.NoError(t, err)

	staged, err := env.svc.UpdateEmail(context.Background(), a.ID, "new@Example.ORG")
	require.NoError(t, err)
	assert.Equal(t, "old@example.org", staged.Email)
	assert.Equal(t, "new@example.org", staged.UnverifiedEmail)
	assert.False(t, staged.MailVerified)

	notices := env.outbox.byTemplate(mailtpl.ChangeMailNotice)
	require.Len(t, notices, 1)
	assert.Equal(t, "old@example.org", notices[0].To)
	assert.Equal(t, "new@example.org", notices[0].Data["NewEmail"])

	verifications := env.outbox.byTemplate(mailtpl.MailVerification)
	assert.Equal(t, "new@example.org", verifications[len(verifications)-1].To)

	verified, err := env.svc.ConfirmEmail(context.Background(), env.pendingCode(t, a.ID, entity.EmailVerification))
	require.NoError(t, err)
	assert.Equal(t, "new@example.org", verified.Email)
	assert.True(t, verified.MailVerified)
}

func TestUpdateEmail_ThenRestore(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "old@example.org")
	_, err := env.svc.ConfirmEmail(context.Background(), env.pendingCode(t, a.ID, entity.EmailVerification))
	require.NoError(t, err)

	_, err = env.svc.UpdateEmail(context.Background(), a.ID, "new@example.org")
	require.NoError(t, err)

	restored, err := env.svc.RestoreEmail(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "old@example.org", restored.Email)
	assert.Equal(t, "old@example.org", restored.UnverifiedEmail)
	assert.True(t, restored.MailVerified)
	assert.Empty(t, env.store.codesFor(a.ID, entity.EmailVerification))
}

func TestResendMailVerification_ReplacesCode(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")
	first := env.pendingCode(t, a.ID, entity.EmailVerification)

	require.NoError(t, env.svc.ResendMailVerification(context.Background(), a.ID))

	second := env.pendingCode(t, a.ID, entity.EmailVerification)
	assert.NotEqual(t, first, second)
	assert.Len(t, env.outbox.byTemplate(mailtpl.MailVerification), 2)
}

func TestResetPassword_ReplacesNotDuplicates(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")
	meta := RequestMeta{IP: "192.0.2.1", UserAgent: "test"}

	require.NoError(t, env.svc.ResetPassword(context.Background(), a.ID, meta))
	first := env.pendingCode(t, a.ID, entity.PasswordReset)

	require.NoError(t, env.svc.ResetPassword(context.Background(), a.ID, meta))
	second := env.pendingCode(t, a.ID, entity.PasswordReset)

	assert.NotEqual(t, first, second)
	assert.Len(t, env.outbox.byTemplate(mailtpl.PasswordReset), 2)
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.RequestPasswordReset(context.Background(), "ghost@example.org", RequestMeta{})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestConfirmPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")
	require.NoError(t, env.svc.ResetPassword(context.Background(), a.ID, RequestMeta{}))
	code := env.pendingCode(t, a.ID, entity.PasswordReset)

	require.NoError(t, env.svc.ConfirmPasswordReset(context.Background(), code, "brand new secret", RequestMeta{IP: "192.0.2.9"}))

	stored, err := env.store.Accounts().GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, helpers.CompareHashAndPassword(stored.PasswordHash, "brand new secret"))
	assert.Empty(t, env.store.codesFor(a.ID, entity.PasswordReset))
	assert.Len(t, env.outbox.byTemplate(mailtpl.PasswordChange), 1)

	err = env.svc.ConfirmPasswordReset(context.Background(), code, "again", RequestMeta{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDelete_ScrubsAndTombstones(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")

	g := env.store.addGroup("bike kitchen")
	g2 := env.store.addGroup("tool library")
	env.store.join(g.ID, a.ID)
	env.store.join(g2.ID, a.ID)

	_, err := env.svc.UploadPhoto(context.Background(), a.ID, strings.NewReader("jpeg"), "me.jpg", "image/jpeg")
	require.NoError(t, err)
	require.NoError(t, env.svc.SendAccountDeletionCode(context.Background(), a.ID))

	require.NoError(t, env.svc.Delete(context.Background(), a.ID))

	stored, err := env.store.Accounts().GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted)
	require.NotNil(t, stored.DeletedAt)
	assert.Empty(t, stored.Email)
	assert.Empty(t, stored.UnverifiedEmail)
	assert.Empty(t, stored.PasswordHash)
	assert.Empty(t, stored.Description)
	assert.Empty(t, stored.PhotoPath)
	assert.False(t, stored.IsActive)
	assert.False(t, stored.MailVerified)

	// memberships removed from every group, the groups themselves survive
	for _, id := range []string{g.ID, g2.ID} {
		n, err := env.store.Groups().MembershipCount(context.Background(), id, a.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Contains(t, env.store.groups, id)
	}

	for _, purpose := range []entity.CodePurpose{entity.EmailVerification, entity.AccountDelete, entity.PasswordReset} {
		assert.Empty(t, env.store.codesFor(a.ID, purpose))
	}

	assert.NotEmpty(t, env.photos.deleted)
	assert.Contains(t, env.index.removed, a.ID)

	success := env.outbox.byTemplate(mailtpl.AccountDeleteSuccess)
	require.Len(t, success, 1)
	assert.Equal(t, "pat@example.org", success[0].To)
}

func TestDelete_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")

	require.NoError(t, env.svc.Delete(context.Background(), a.ID))
	first, err := env.store.Accounts().GetByID(context.Background(), a.ID)
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(context.Background(), a.ID))
	second, err := env.store.Accounts().GetByID(context.Background(), a.ID)
	require.NoError(t, err)

	assert.Equal(t, first.DeletedAt, second.DeletedAt)
	// the scrubbed account has no address left to notify
	assert.Len(t, env.outbox.byTemplate(mailtpl.AccountDeleteSuccess), 1)
}

func TestConfirmDeletion(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")
	require.NoError(t, env.svc.SendAccountDeletionCode(context.Background(), a.ID))

	requests := env.outbox.byTemplate(mailtpl.AccountDeleteRequest)
	require.Len(t, requests, 1)
	code := env.pendingCode(t, a.ID, entity.AccountDelete)

	require.NoError(t, env.svc.ConfirmDeletion(context.Background(), code))

	stored, err := env.store.Accounts().GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted)

	assert.ErrorIs(t, env.svc.ConfirmDeletion(context.Background(), code), repository.ErrNotFound)
}

func TestUnverifiedOrIgnored(t *testing.T) {
	env := newTestEnv(t)
	unverified := env.createUser(t, "pending@example.org")

	bounced := env.createUser(t, "bounced@example.org")
	_, err := env.svc.ConfirmEmail(context.Background(), env.pendingCode(t, bounced.ID, entity.EmailVerification))
	require.NoError(t, err)

	verified := env.createUser(t, "fine@example.org")
	_, err = env.svc.ConfirmEmail(context.Background(), env.pendingCode(t, verified.ID, entity.EmailVerification))
	require.NoError(t, err)

	env.ignore.addrs = []string{"bounced@example.org", "pending@example.org"}

	got, err := env.svc.UnverifiedOrIgnored(context.Background())
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, a := range got {
		ids[a.ID] = true
	}
	assert.Len(t, got, 2)
	assert.True(t, ids[unverified.ID])
	assert.True(t, ids[bounced.ID])
	assert.False(t, ids[verified.ID])
}

func TestUpdateProfile_DisplayNameCap(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")

	desc := "fixes bikes on saturdays"
	long := strings.Repeat("n", entity.MaxDisplayNameLength+20)
	updated, err := env.svc.UpdateProfile(context.Background(), a.ID, UpdateProfileInput{
		DisplayName: long,
		Description: &desc,
	})
	require.NoError(t, err)
	assert.Len(t, updated.DisplayName, entity.MaxDisplayNameLength)
	assert.Equal(t, desc, updated.Description)
}

func TestUploadPhoto_ReplacesOld(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")

	url1, err := env.svc.UploadPhoto(context.Background(), a.ID, strings.NewReader("one"), "a.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Empty(t, env.photos.deleted)

	url2, err := env.svc.UploadPhoto(context.Background(), a.ID, strings.NewReader("two"), "b.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.NotEqual(t, url1, url2)
	assert.Len(t, env.photos.deleted, 1)

	require.NoError(t, env.svc.DeletePhoto(context.Background(), a.ID))
	stored, err := env.store.Accounts().GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PhotoPath)
}

func TestUpdateLanguage(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "pat@example.org")

	updated, err := env.svc.UpdateLanguage(context.Background(), a.ID, "de")
	require.NoError(t, err)
	assert.Equal(t, "de", updated.Language)
}
