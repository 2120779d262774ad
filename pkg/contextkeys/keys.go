package contextkeys

type contextKey string

const (
	LoginKey contextKey = "login"
	RunIDKey contextKey = "runID"
)
