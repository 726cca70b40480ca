package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/complementai/internal/database"
)

var (
	// ErrNotFound はスコープ条件に一致する行がなかったことを表す。
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate はユニーク制約違反を表す。
	ErrDuplicate = errors.New("repository: duplicate")
)

// translateWriteError は書き込み時のpqエラーをリポジトリのエラーに変換する。
// 23505はErrDuplicate、23503（参照先が存在しない）はErrNotFoundになる。
func translateWriteError(op string, err error) error {
	switch {
	case database.IsUniqueViolation(err, ""):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

// expectAffected はUPDATE/DELETEの結果が1行以上に作用したかを確認する。
func expectAffected(op string, result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
