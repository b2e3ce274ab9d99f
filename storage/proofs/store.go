package proofs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/glebarez/sqlite"

	"nutvest/native/merkle"
)

var (
	// ErrPathRequired is returned when the index path is missing.
	ErrPathRequired = errors.New("proofs: index path must be configured")
	// ErrNotFound is returned when no proof is indexed for the address.
	ErrNotFound = errors.New("proofs: not found")
	// ErrProofMismatch is returned when an imported document does not verify.
	ErrProofMismatch = errors.New("proofs: document does not verify against root")
)

const schema = `
CREATE TABLE IF NOT EXISTS proofs (
    distribution TEXT NOT NULL,
    address      TEXT NOT NULL,
    leaf_index   INTEGER NOT NULL,
    amount       TEXT NOT NULL,
    proof        TEXT NOT NULL,
    PRIMARY KEY (distribution, address)
);
CREATE INDEX IF NOT EXISTS proofs_by_index ON proofs(distribution, leaf_index);
`

// Store indexes published proof documents by (distribution, address) so the
// gateway can serve claimants without reading artifact files.
type Store struct {
	db *sql.DB
}

// Open initialises the index using a sqlite DSN. ":memory:" is accepted for
// tests.
func Open(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, ErrPathRequired
	}
	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Import replaces the documents of a distribution in one transaction. When
// root is non-zero every document must verify against it.
func (s *Store) Import(ctx context.Context, distribution string, root common.Hash, docs map[string]merkle.ProofDocument) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("proof index not configured")
	}
	distribution = strings.TrimSpace(distribution)
	if distribution == "" {
		return 0, fmt.Errorf("proofs: distribution required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM proofs WHERE distribution = ?`, distribution); err != nil {
		return 0, fmt.Errorf("clear distribution: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO proofs(distribution, address, leaf_index, amount, proof)
        VALUES(?, ?, ?, ?, ?)
    `)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for key, doc := range docs {
		if !common.IsHexAddress(key) {
			return 0, fmt.Errorf("%w: %q", merkle.ErrInvalidAddress, key)
		}
		account := common.HexToAddress(key)
		if root != (common.Hash{}) {
			ok, err := doc.Check(account, root)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", key, err)
			}
			if !ok {
				return 0, fmt.Errorf("%w: %s", ErrProofMismatch, key)
			}
		}
		encoded, err := json.Marshal(doc.Proof)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, distribution, addressKey(account), doc.Index, strings.TrimSpace(doc.WeekIncentive), string(encoded)); err != nil {
			return 0, fmt.Errorf("insert %s: %w", key, err)
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return count, nil
}

// Lookup returns the proof document of account in distribution.
func (s *Store) Lookup(ctx context.Context, distribution string, account common.Address) (*merkle.ProofDocument, error) {
	if s == nil {
		return nil, fmt.Errorf("proof index not configured")
	}
	row := s.db.QueryRowContext(ctx, `
        SELECT leaf_index, amount, proof
        FROM proofs
        WHERE distribution = ? AND address = ?
    `, strings.TrimSpace(distribution), addressKey(account))
	var (
		doc     merkle.ProofDocument
		encoded string
	)
	if err := row.Scan(&doc.Index, &doc.WeekIncentive, &encoded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query proof: %w", err)
	}
	if err := json.Unmarshal([]byte(encoded), &doc.Proof); err != nil {
		return nil, fmt.Errorf("decode proof: %w", err)
	}
	return &doc, nil
}

// Count returns the number of indexed documents of a distribution.
func (s *Store) Count(ctx context.Context, distribution string) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("proof index not configured")
	}
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM proofs WHERE distribution = ?`, strings.TrimSpace(distribution)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count proofs: %w", err)
	}
	return count, nil
}

func addressKey(account common.Address) string {
	return strings.ToLower(account.Hex())
}
