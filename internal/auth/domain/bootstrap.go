package domain

// BootstrapData describes the first user created on an empty database.
type BootstrapData struct {
	Username string
	Password string
	Roles    []string
}
