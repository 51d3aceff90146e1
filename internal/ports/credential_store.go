package ports

import "context"

// CredentialStore holds the portal password for the CLI. Keys are
// slash-separated paths like "egnyte/portal/password".
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
