package model

// Principal is the authenticated caller, decoded from bearer token claims.
type Principal struct {
	ID    int64
	Email string
}
