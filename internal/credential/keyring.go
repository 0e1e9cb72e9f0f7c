package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "mailsweep"

// ErrNotFound indicates no secret is stored for the account.
var ErrNotFound = errors.New("credential not found")

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailsweep/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailsweep-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves the app password stored for an account address.
func Get(address string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(address)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("%w for %q", ErrNotFound, address)
		}
		return "", fmt.Errorf("getting credential for %q: %w", address, err)
	}

	return string(item.Data), nil
}

// Set stores the app password for an account address.
func Set(address string, secret string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  address,
		Data: []byte(secret),
	})
	if err != nil {
		return fmt.Errorf("setting credential for %q: %w", address, err)
	}

	return nil
}

// Delete removes the stored app password for an account address.
func Delete(address string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(address)
	if err != nil {
		return fmt.Errorf("deleting credential for %q: %w", address, err)
	}

	return nil
}
