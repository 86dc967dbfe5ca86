package contextkeys

type contextKey string

// DBContextKey holds the *gorm.DB (pool or transaction) for the current request.
const DBContextKey = contextKey("db")

// Gin context keys set by the auth middleware.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
	TokenKey  = "tokenClaims"
)
