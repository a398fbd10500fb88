package contracts

import "context"

// RequestSigner produces the credential attached to every outbound FHIR
// request. The concrete scheme is deployment-specific.
type RequestSigner interface {
	CreateToken(ctx context.Context, subject string) (string, error)
}
