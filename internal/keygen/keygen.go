// Package keygen generates the SSH keypair the configuration engine authenticates with
package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// DefaultBits is the RSA modulus size of generated keys
const DefaultBits = 4096

// KeyPair holds the private and public keys
type KeyPair struct {
	PrivateKey []byte // PEM encoded PKCS#1
	PublicKey  []byte // authorized_keys format
}

// GenerateRSAKeyPair generates a new RSA key pair
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rsa key: %w", err)
	}
	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("generated key is invalid: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	publicKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive ssh public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  ssh.MarshalAuthorizedKey(publicKey),
	}, nil
}

// PublicKeyPath is where the public half of the key at privatePath is written
func PublicKeyPath(privatePath string) string {
	return privatePath + ".pub"
}

// Write stores the pair at privatePath (0600) and its .pub sibling (0644), overwriting both
func (k *KeyPair) Write(privatePath string) error {
	if err := os.MkdirAll(filepath.Dir(privatePath), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	// ssh refuses keys readable by others; an existing file keeps its mode on write
	if err := os.WriteFile(privatePath, k.PrivateKey, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.Chmod(privatePath, 0600); err != nil {
		return fmt.Errorf("failed to restrict private key: %w", err)
	}
	// #nosec G306 -- public keys are meant to be readable
	if err := os.WriteFile(PublicKeyPath(privatePath), k.PublicKey, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}

// Generate creates a bits-sized RSA keypair and writes it to privatePath
func Generate(privatePath string, bits int) error {
	kp, err := GenerateRSAKeyPair(bits)
	if err != nil {
		return err
	}
	return kp.Write(privatePath)
}
