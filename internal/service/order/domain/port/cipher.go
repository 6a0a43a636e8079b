package port

// Cipher encrypts gift-card numbers and PINs at rest.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
