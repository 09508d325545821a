package user

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/internal/infrastructure/audit"
	"github.com/taskforge/backend/pkg/password"
	"github.com/taskforge/backend/repository"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	users  []*domain.User
	nextID int64

	// createErr, when set, overrides Create to simulate a constraint
	// violation racing past the pre-checks.
	createErr error
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	user.IsActive = true
	user.CreatedAt = time.Now()
	copied := *user
	r.users = append(r.users, &copied)
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *fakeUserRepo) FindByUsernameLike(_ context.Context, pattern string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	re := likeToRegexp(pattern)
	var out []domain.User
	for _, u := range r.users {
		if re.MatchString(u.Username) {
			out = append(out, *u)
		}
	}
	return out, nil
}

// likeToRegexp mirrors SQL LIKE matching closely enough for the fake,
// including backslash-escaped `%` and `_`.
func likeToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	escaped := false
	for _, r := range pattern {
		if escaped {
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *fakeCache) Get(_ context.Context, _ string) (*domain.User, error) {
	return nil, repository.ErrCacheMiss
}

func (c *fakeCache) Set(_ context.Context, _ *domain.User) error { return nil }

func (c *fakeCache) Invalidate(_ context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, username)
	return nil
}

type fakeRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *fakeRecorder) RecordEvent(_ context.Context, eventType, _, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, eventType)
}

func (r *fakeRecorder) has(eventType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.types {
		if t == eventType {
			return true
		}
	}
	return false
}

func newTestUseCase() (*UseCase, *fakeUserRepo, *fakeCache, *fakeRecorder) {
	repo := &fakeUserRepo{}
	cache := &fakeCache{}
	recorder := &fakeRecorder{}
	hasher := password.NewHasher(bcrypt.MinCost, 2)
	return New(repo, cache, hasher, recorder, nil), repo, cache, recorder
}

func register(t *testing.T, uc *UseCase, email, username string) *domain.User {
	t.Helper()
	user, err := uc.Register(context.Background(), email, username, "P@ssw0rd1")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func TestRegisterSuccess(t *testing.T) {
	uc, _, _, recorder := newTestUseCase()

	created, err := uc.Register(context.Background(), " Alice@X.COM ", "alice", "P@ssw0rd1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if created.Email != "alice@x.com" {
		t.Errorf("email = %q, want normalized alice@x.com", created.Email)
	}
	if created.ID == 0 {
		t.Error("expected a persisted id")
	}
	if created.PasswordHash == "" || created.PasswordHash == "P@ssw0rd1" {
		t.Error("password must be stored hashed")
	}
	if !recorder.has(audit.EventUserRegistered) {
		t.Error("expected a registration audit event")
	}
}

func TestRegisterPasswordPolicyListsAllViolations(t *testing.T) {
	uc, _, _, _ := newTestUseCase()

	_, err := uc.Register(context.Background(), "bob@x.com", "bob_1", "abc")
	var dErr *domain.Error
	if !errors.As(err, &dErr) || dErr.Code != domain.ErrCodeValidation {
		t.Fatalf("got %v, want a validation error", err)
	}

	joined := strings.Join(dErr.Fields, "\n")
	for _, want := range []string{"at least 8", "uppercase", "digit", "symbol"} {
		if !strings.Contains(joined, want) {
			t.Errorf("violation list missing %q in %q", want, joined)
		}
	}
	if strings.Contains(joined, "lowercase") {
		t.Errorf("lowercase wrongly reported missing in %q", joined)
	}
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	uc, _, _, _ := newTestUseCase()

	// Meets every character-class rule but exceeds what bcrypt can hash.
	long := "Aa1!" + strings.Repeat("x", 80)
	_, err := uc.Register(context.Background(), "long@x.com", "longpass", long)

	var dErr *domain.Error
	if !errors.As(err, &dErr) || dErr.Code != domain.ErrCodeValidation {
		t.Fatalf("got %v, want a validation error", err)
	}
	if !strings.Contains(strings.Join(dErr.Fields, "\n"), "at most 72 bytes") {
		t.Errorf("fields %v missing the length bound", dErr.Fields)
	}
}

func TestRegisterFieldValidation(t *testing.T) {
	uc, _, _, _ := newTestUseCase()

	cases := []struct {
		name     string
		email    string
		username string
		wantIn   string
	}{
		{"bad email", "not-an-email", "alice", "email"},
		{"short username", "a@x.com", "ab", "username"},
		{"long username", "a@x.com", strings.Repeat("a", 31), "username"},
		{"bad username chars", "a@x.com", "al ice!", "username"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Register(context.Background(), tc.email, tc.username, "P@ssw0rd1")
			var dErr *domain.Error
			if !errors.As(err, &dErr) || dErr.Code != domain.ErrCodeValidation {
				t.Fatalf("got %v, want a validation error", err)
			}
			if !strings.Contains(strings.Join(dErr.Fields, "\n"), tc.wantIn) {
				t.Errorf("fields %v missing %q", dErr.Fields, tc.wantIn)
			}
		})
	}
}

func TestRegisterDuplicateOrdering(t *testing.T) {
	uc, _, _, _ := newTestUseCase()
	register(t, uc, "alice@x.com", "alice")

	// Both email and username collide: email wins.
	if _, err := uc.Register(context.Background(), "alice@x.com", "alice", "P@ssw0rd1"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("both duplicated: got %v, want ErrEmailTaken", err)
	}
	if _, err := uc.Register(context.Background(), "other@x.com", "alice", "P@ssw0rd1"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("username duplicated: got %v, want ErrUsernameTaken", err)
	}
}

func TestRegisterConstraintIsAuthoritative(t *testing.T) {
	uc, repo, _, _ := newTestUseCase()

	// Pre-checks see nothing; the insert hits the unique constraint, as in
	// a concurrent-registration race.
	repo.createErr = domain.ErrUsernameTaken
	if _, err := uc.Register(context.Background(), "alice@x.com", "alice", "P@ssw0rd1"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("got %v, want ErrUsernameTaken from the insert", err)
	}
}

func TestDeleteInvalidatesCache(t *testing.T) {
	uc, _, cache, recorder := newTestUseCase()
	created := register(t, uc, "alice@x.com", "alice")

	if err := uc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(cache.invalidated) != 1 || cache.invalidated[0] != "alice" {
		t.Errorf("cache invalidations = %v, want [alice]", cache.invalidated)
	}
	if !recorder.has(audit.EventUserDeleted) {
		t.Error("expected a deletion audit event")
	}
	if err := uc.Delete(context.Background(), created.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("second delete: got %v, want ErrUserNotFound", err)
	}
}

func TestCleanupTestUsers(t *testing.T) {
	uc, _, _, recorder := newTestUseCase()
	alice := register(t, uc, "alice@x.com", "alice")
	register(t, uc, "t1@x.com", "test_one")
	register(t, uc, "t2@x.com", "test_two")
	register(t, uc, "u1@x.com", "user1")
	register(t, uc, "u10@x.com", "user10")

	result, err := uc.CleanupTestUsers(context.Background(),
		[]int64{alice.ID, 9999},
		[]string{"test*", "user?"},
	)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if result.DeletedCount != 4 {
		t.Errorf("deleted count = %d, want 4", result.DeletedCount)
	}
	names := make(map[string]bool)
	for _, d := range result.DeletedUsers {
		names[d.Username] = true
	}
	for _, want := range []string{"alice", "test_one", "test_two", "user1"} {
		if !names[want] {
			t.Errorf("expected %q in deleted set %v", want, result.DeletedUsers)
		}
	}
	if names["user10"] {
		t.Error("pattern user? must not match user10")
	}
	if !recorder.has(audit.EventTestCleanup) {
		t.Error("expected a cleanup audit event")
	}
}

func TestCleanupPatternTreatsLikeCharsAsLiterals(t *testing.T) {
	uc, _, _, _ := newTestUseCase()
	register(t, uc, "t1@x.com", "test_one")
	register(t, uc, "t2@x.com", "testXone")

	// The underscore in the pattern is a literal, not a single-char wildcard.
	result, err := uc.CleanupTestUsers(context.Background(), nil, []string{"test_*"})
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if result.DeletedCount != 1 {
		t.Fatalf("deleted count = %d, want 1", result.DeletedCount)
	}
	if result.DeletedUsers[0].Username != "test_one" {
		t.Errorf("deleted %q, want test_one", result.DeletedUsers[0].Username)
	}
}

func TestGlobToLikeEscaping(t *testing.T) {
	cases := []struct {
		glob string
		want string
	}{
		{"test*", "test%"},
		{"user?", "user_"},
		{"test_*", `test\_%`},
		{"50%*", `50\%%`},
		{`back\slash`, `back\\slash`},
	}

	for _, tc := range cases {
		if got := globToLike(tc.glob); got != tc.want {
			t.Errorf("globToLike(%q) = %q, want %q", tc.glob, got, tc.want)
		}
	}
}

func TestCleanupDeduplicatesAcrossSelectors(t *testing.T) {
	uc, _, _, _ := newTestUseCase()
	target := register(t, uc, "t1@x.com", "test_one")

	result, err := uc.CleanupTestUsers(context.Background(), []int64{target.ID}, []string{"test*"})
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if result.DeletedCount != 1 {
		t.Errorf("deleted count = %d, want 1 (no double count)", result.DeletedCount)
	}
}
