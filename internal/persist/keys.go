package persist

// Recognised keys.
const (
	KeyToken    = "auth_token"
	KeyUser     = "auth_user"
	KeyLanguage = "language"
	KeyTheme    = "theme"
)
