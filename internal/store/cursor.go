package store

import "errors"

// Cursor returns the persisted stream position for a watched account.
// An empty string means no cursor has been saved yet.
func (s *Store) Cursor(accountID string) (string, error) {
	val, err := s.get(prefixCursor + accountID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// SetCursor persists the stream position for a watched account. Called
// after each processed event so a crash resumes at most one batch back;
// reprocessing is made idempotent by the payment dedupe.
func (s *Store) SetCursor(accountID, cursor string) error {
	return s.put(prefixCursor+accountID, []byte(cursor))
}
