package core

// Logger is the application logger.
// args may hold errors, maps of extra fields and the authenticated user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the authenticated user in log entries.
type Person struct {
	ID       string
	Username string
	Email    string
}
