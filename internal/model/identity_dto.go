package model

// Identity is the verified caller behind a request or connection. The core
// treats the id as an opaque string issued by the identity service.
type Identity struct {
	ID        string `json:"id"`
	IssuedAt  int64  `json:"-"`
	ExpiresAt int64  `json:"-"`
	Token     string `json:"-"`
}
