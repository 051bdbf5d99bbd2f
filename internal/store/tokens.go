package store

// PutToken maps an issued bearer token to a user ID.
func (s *Store) PutToken(token, userID string) error {
	return s.put(prefixToken+token, []byte(userID))
}

// UserIDForToken resolves a bearer token. Returns ErrNotFound for unknown
// tokens.
func (s *Store) UserIDForToken(token string) (string, error) {
	val, err := s.get(prefixToken + token)
	if err != nil {
		return "", err
	}
	return string(val), nil
}
