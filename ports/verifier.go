package ports

// SignatureVerifier checks that signature over message was produced by address
type SignatureVerifier interface {
	Verify(message, signature, address string) error
}
