package repository

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User  UserRepository
	Token TokenRepository
	Task  TaskRepository
}

// NewRepositories creates the in-memory repositories backing the sandbox
func NewRepositories() *Repositories {
	return &Repositories{
		User:  NewUserRepository(),
		Token: NewTokenRepository(),
		Task:  NewTaskRepository(),
	}
}

var (
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	objectIDCounter atomic.Uint32
)

// IsObjectID reports whether id has the 24 hex digit document id shape.
func IsObjectID(id string) bool {
	return objectIDPattern.MatchString(id)
}

// NewObjectID returns a 24 hex digit id: a seconds timestamp, random bytes
// and a process-wide counter, so ids sort by creation time.
func NewObjectID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return fmt.Sprintf("%08x%s%06x", uint32(time.Now().Unix()), random, objectIDCounter.Add(1)&0xffffff)
}
