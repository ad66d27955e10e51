package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"exam-quiz-service/internal/domain"
)

// UsersFile is the credential table name inside the storage directory.
const UsersFile = "users.csv"

var usersHeader = []string{"username", "password_hash"}

// CredentialStore keeps users in users.csv.
type CredentialStore struct {
	path string
	mu   sync.Mutex
}

func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{path: filepath.Join(dir, UsersFile)}
}

func (s *CredentialStore) CreateUser(ctx context.Context, cred domain.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := readTable(s.path, usersHeader)
	if err != nil {
		return err
	}
	userCol := t.column("username")
	if userCol < 0 {
		return fmt.Errorf("%s has no username column", UsersFile)
	}
	for _, row := range t.rows {
		if t.value(row, userCol) == cred.Username {
			return domain.ErrUserExists
		}
	}
	t.rows = append(t.rows, s.row(t, cred))
	return writeTable(s.path, t)
}

func (s *CredentialStore) GetUser(ctx context.Context, username string) (domain.Credential, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credential{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := readTable(s.path, usersHeader)
	if err != nil {
		return domain.Credential{}, err
	}
	userCol, hashCol := t.column("username"), t.column("password_hash")
	for _, row := range t.rows {
		if t.value(row, userCol) == username {
			return domain.Credential{Username: username, PasswordHash: t.value(row, hashCol)}, nil
		}
	}
	return domain.Credential{}, domain.ErrUserNotFound
}

// row lays cred out in the table's own column order.
func (s *CredentialStore) row(t table, cred domain.Credential) []string {
	row := make([]string, len(t.header))
	for i, h := range t.header {
		switch strings.TrimSpace(h) {
		case "username":
			row[i] = cred.Username
		case "password_hash":
			row[i] = cred.PasswordHash
		}
	}
	return row
}
