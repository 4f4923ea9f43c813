package postgres

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/placement-service/internal/repositories"
)

func TestTranslateSessionCreateError(t *testing.T) {
	// a duplicate key on insert means the one-active-session index fired
	err := translateSessionCreateError(gorm.ErrDuplicatedKey)
	if !errors.Is(err, repositories.ErrActiveSessionExists) {
		t.Errorf("duplicated key = %v, want ErrActiveSessionExists", err)
	}

	cause := errors.New("connection reset")
	err = translateSessionCreateError(cause)
	if !errors.Is(err, cause) {
		t.Errorf("other errors should stay inspectable, got %v", err)
	}
	if errors.Is(err, repositories.ErrActiveSessionExists) {
		t.Error("unrelated errors must not map to ErrActiveSessionExists")
	}
}
