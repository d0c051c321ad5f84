package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matheus3301/sigexport/internal/layout"
	"github.com/tidwall/gjson"
)

var (
	// ErrKeyNotFound is returned when config.json carries no database key.
	ErrKeyNotFound = errors.New("database key not found in config.json")
	// ErrEncryptedKey is returned for stores whose key is protected by the OS keychain.
	ErrEncryptedKey = errors.New("database key is keychain-encrypted; decrypt it first and run with --plaintext")
)

var hexKey = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// ReadKey extracts the SQLCipher key from a Signal config.json.
func ReadKey(configPath string) (string, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", configPath, err)
	}
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("parse %s: invalid JSON", configPath)
	}
	key := gjson.GetBytes(data, "key")
	if !key.Exists() || key.String() == "" {
		if gjson.GetBytes(data, "encryptedKey").Exists() {
			return "", ErrEncryptedKey
		}
		return "", ErrKeyNotFound
	}
	if !hexKey.MatchString(key.String()) {
		return "", fmt.Errorf("database key in %s is not hex", configPath)
	}
	return key.String(), nil
}

// Decrypter turns an encrypted store into a plaintext SQLite file.
type Decrypter interface {
	Decrypt(ctx context.Context, encrypted, key, plaintext string) error
}

// SQLCipherCLI decrypts by piping an export script into the sqlcipher shell.
type SQLCipherCLI struct {
	// Binary defaults to "sqlcipher" on PATH.
	Binary string
}

// Decrypt implements Decrypter.
func (s SQLCipherCLI) Decrypt(ctx context.Context, encrypted, key, plaintext string) error {
	bin := s.Binary
	if bin == "" {
		bin = "sqlcipher"
	}
	script := fmt.Sprintf(
		"PRAGMA key = \"x'%s'\";\nATTACH DATABASE '%s' AS plaintext KEY '';\nSELECT sqlcipher_export('plaintext');\nDETACH DATABASE plaintext;\n",
		key, strings.ReplaceAll(plaintext, "'", "''"))

	cmd := exec.CommandContext(ctx, bin, encrypted)
	cmd.Stdin = strings.NewReader(script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("sqlcipher: %w: %s", err, strings.TrimSpace(string(out)))
	}
	if _, err := os.Stat(plaintext); err != nil {
		return fmt.Errorf("sqlcipher produced no output: %w", err)
	}
	return nil
}

// SourceOptions describes where the Signal data lives and how to read it.
type SourceOptions struct {
	Dir string
	// Plaintext means sql/db.sqlite is already decrypted.
	Plaintext bool
	Decrypter Decrypter
}

// OpenSource opens the Signal database under opts.Dir read-only, decrypting it into a
// temporary directory first unless it is plaintext. The returned cleanup closes the
// database and removes any decrypted copy.
func OpenSource(ctx context.Context, opts SourceOptions) (*DB, func() error, error) {
	dbFile := layout.DBPath(opts.Dir)
	if _, err := os.Stat(dbFile); err != nil {
		return nil, nil, fmt.Errorf("source database: %w", err)
	}

	if opts.Plaintext {
		db, err := OpenReadOnly(dbFile)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}

	key, err := ReadKey(layout.KeyConfigPath(opts.Dir))
	if err != nil {
		return nil, nil, err
	}

	tmpDir, err := os.MkdirTemp("", "sigexport-*")
	if err != nil {
		return nil, nil, fmt.Errorf("temp dir: %w", err)
	}
	plain := filepath.Join(tmpDir, "db-decrypt.sqlite")

	dec := opts.Decrypter
	if dec == nil {
		dec = SQLCipherCLI{}
	}
	if err := dec.Decrypt(ctx, dbFile, key, plain); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, nil, fmt.Errorf("decrypt source: %w", err)
	}

	db, err := OpenReadOnly(plain)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, nil, err
	}
	cleanup := func() error {
		err := db.Close()
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil && err == nil {
			err = rmErr
		}
		return err
	}
	return db, cleanup, nil
}
