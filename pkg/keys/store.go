// Copyright (C) 2025 SAGE-X Project
//
// This file is part of sage-beckn-go.
//
// sage-beckn-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sage-beckn-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sage-beckn-go.  If not, see <https://www.gnu.org/licenses/>.

package keys

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File names used inside a key directory
const (
	PrivateKeyFile   = "private_key.pem"
	PublicKeyFile    = "public_key.pem"
	PublicKeyB64File = "public_key.b64"
)

// Files lists the paths written by Persist
type Files struct {
	PrivateKey   string
	PublicKey    string
	PublicKeyB64 string
}

// FilesIn returns the key file paths for dir
func FilesIn(dir string) Files {
	return Files{
		PrivateKey:   filepath.Join(dir, PrivateKeyFile),
		PublicKey:    filepath.Join(dir, PublicKeyFile),
		PublicKeyB64: filepath.Join(dir, PublicKeyB64File),
	}
}

type persistOptions struct {
	overwrite bool
}

// PersistOption configures Persist
type PersistOption func(*persistOptions)

// WithOverwrite allows Persist to replace an existing private key.
// Replacing a registered key breaks every counterparty that trusts it.
func WithOverwrite() PersistOption {
	return func(o *persistOptions) {
		o.overwrite = true
	}
}

// Persist writes the key pair to dir as private_key.pem (PKCS#8, 0600),
// public_key.pem (SPKI) and public_key.b64 (raw public key, base64).
// dir is created with 0700 if it does not exist.
//
// If dir already holds a private key, Persist returns an error matching
// ErrKeyExists and writes nothing, unless WithOverwrite is given.
//
// A new key claims private_key.pem first and then writes the public files.
// With WithOverwrite the public files are written first and the private key
// is replaced last, so a failed write never leaves Load returning a key that
// was not fully persisted.
func Persist(kp *KeyPair, dir string, opts ...PersistOption) (*Files, error) {
	if kp == nil {
		return nil, fmt.Errorf("key pair cannot be nil")
	}
	if dir == "" {
		return nil, fmt.Errorf("key directory cannot be empty")
	}

	o := &persistOptions{}
	for _, opt := range opts {
		opt(o)
	}

	files := FilesIn(dir)

	if !o.overwrite {
		if _, err := os.Stat(files.PrivateKey); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrKeyExists, files.PrivateKey)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", files.PrivateKey, err)
		}
	}

	privPEM, err := kp.PrivateKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}
	pubPEM, err := kp.PublicKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}

	writePublic := func() error {
		if err := writeFileAtomic(files.PublicKey, pubPEM, 0o644, true); err != nil {
			return err
		}
		return writeFileAtomic(files.PublicKeyB64, []byte(kp.PublicKeyBase64()), 0o644, true)
	}

	if o.overwrite {
		if err := writePublic(); err != nil {
			return nil, err
		}
		if err := writeFileAtomic(files.PrivateKey, privPEM, 0o600, true); err != nil {
			return nil, err
		}
		return &files, nil
	}

	if err := writeFileAtomic(files.PrivateKey, privPEM, 0o600, false); err != nil {
		return nil, err
	}
	if err := writePublic(); err != nil {
		return nil, err
	}

	return &files, nil
}

// writeFileAtomic writes data to a temp file next to path and moves it into
// place. Without replace the final step is a hard link, which fails if path
// appeared in the meantime.
func writeFileAtomic(path string, data []byte, perm os.FileMode, replace bool) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if replace {
		if err := os.Rename(tmpName, path); err != nil {
			return fmt.Errorf("failed to move %s into place: %w", path, err)
		}
		return nil
	}

	if err := os.Link(tmpName, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeyExists, path)
		}
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// Load reads dir/private_key.pem and returns the key pair it holds.
//
// A missing file yields *KeyNotFoundError; unreadable PEM or DER yields
// *KeyFormatError. On error no key pair is returned.
func Load(dir string) (*KeyPair, error) {
	path := FilesIn(dir).PrivateKey

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &KeyNotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	kp, err := ParsePrivateKeyPEM(data)
	if err != nil {
		var formatErr *KeyFormatError
		if errors.As(err, &formatErr) {
			formatErr.Path = path
			return nil, formatErr
		}
		return nil, &KeyFormatError{Path: path, Reason: "unparseable private key", Err: err}
	}

	return kp, nil
}

// LoadPublicKey reads dir/public_key.pem and returns the raw 32-byte public key.
func LoadPublicKey(dir string) ([]byte, error) {
	path := FilesIn(dir).PublicKey

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}

	pub, err := ParsePublicKeyPEM(data)
	if err != nil {
		var formatErr *KeyFormatError
		if errors.As(err, &formatErr) {
			formatErr.Path = path
		}
		return nil, err
	}
	return pub, nil
}
