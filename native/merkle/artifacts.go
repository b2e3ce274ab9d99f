package merkle

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact file suffixes appended to the CSV path.
const (
	TreeSuffix  = ".proofTree.json"
	ProofSuffix = ".proof.json"
)

var (
	ErrMalformedLine    = errors.New("merkle: malformed distribution line")
	ErrInvalidAddress   = errors.New("merkle: invalid address")
	ErrInvalidAmount    = errors.New("merkle: invalid amount")
	ErrInvalidHash      = errors.New("merkle: invalid hash")
	ErrInvalidIncentive = errors.New("merkle: invalid incentive document")
)

// ParseCSV reads one "address,amount" record per line. Trailing empty lines
// are ignored; any other empty line is an error since it would shift indices.
func ParseCSV(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	entries := make([]Entry, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: line %d", ErrMalformedLine, i+1)
		}
		entry, err := parseEntry(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseEntry(address, amount string) (Entry, error) {
	if !common.IsHexAddress(address) {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok || value.Sign() < 0 {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if _, err := toUint256(value); err != nil {
		return Entry{}, err
	}
	return Entry{Account: common.HexToAddress(address), Amount: value}, nil
}

// WriteCSV writes the entries in the format ParseCSV accepts, without a
// trailing newline.
func WriteCSV(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for i, entry := range entries {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		amount := "0"
		if entry.Amount != nil {
			amount = entry.Amount.String()
		}
		if _, err := fmt.Fprintf(bw, "%s,%s", entry.Account.Hex(), amount); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeLevels renders the tree levels as 0x-prefixed hex strings.
func (t *Tree) EncodeLevels() [][]string {
	out := make([][]string, len(t.Levels))
	for i, level := range t.Levels {
		out[i] = encodeHashes(level)
	}
	return out
}

// EncodeProofs renders every proof as 0x-prefixed hex strings.
func (t *Tree) EncodeProofs() [][]string {
	proofs := t.Proofs()
	out := make([][]string, len(proofs))
	for i, proof := range proofs {
		out[i] = encodeHashes(proof)
	}
	return out
}

func encodeHashes(hashes []common.Hash) []string {
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = hexutil.Encode(h[:])
	}
	return out
}

// ParseHash decodes a 32 byte hex string with or without the 0x prefix.
func ParseHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}
	return common.BytesToHash(raw), nil
}

// ParseHashes decodes a list of hex hashes.
func ParseHashes(values []string) ([]common.Hash, error) {
	out := make([]common.Hash, len(values))
	for i, v := range values {
		h, err := ParseHash(v)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

// DecodeTree restores a tree from its JSON level artifact.
func DecodeTree(r io.Reader) (*Tree, error) {
	var raw [][]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	levels := make([][]common.Hash, len(raw))
	for i, level := range raw {
		hashes, err := ParseHashes(level)
		if err != nil {
			return nil, err
		}
		levels[i] = hashes
	}
	return FromLevels(levels)
}

// DecodeProofs reads a JSON proof artifact.
func DecodeProofs(r io.Reader) ([][]common.Hash, error) {
	var raw [][]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([][]common.Hash, len(raw))
	for i, proof := range raw {
		hashes, err := ParseHashes(proof)
		if err != nil {
			return nil, fmt.Errorf("proof %d: %w", i, err)
		}
		out[i] = hashes
	}
	return out, nil
}

// Incentive is one record of an incentive map, in document order.
type Incentive struct {
	Key   string
	Entry Entry
}

// ProofDocument is the per-address record published for claimants.
type ProofDocument struct {
	Index         uint64   `json:"index"`
	Proof         []string `json:"proof"`
	WeekIncentive string   `json:"week_incentive"`
}

type incentiveRecord struct {
	WeekIncentive json.Number `json:"week_incentive"`
}

// ParseIncentives reads a JSON object mapping address to
// {"week_incentive": amount}. Document order fixes the leaf indices.
func ParseIncentives(r io.Reader) ([]Incentive, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIncentive, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrInvalidIncentive)
	}
	var out []Incentive
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidIncentive, err)
		}
		key, _ := keyTok.(string)
		var rec incentiveRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidIncentive, key, err)
		}
		entry, err := parseEntry(key, strings.Trim(rec.WeekIncentive.String(), `"`))
		if err != nil {
			return nil, err
		}
		out = append(out, Incentive{Key: key, Entry: entry})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIncentive, err)
	}
	return out, nil
}

// Entries strips the document keys.
func Entries(incentives []Incentive) []Entry {
	out := make([]Entry, len(incentives))
	for i, inc := range incentives {
		out[i] = inc.Entry
	}
	return out
}

// WriteProofDocuments writes the address keyed proof documents, preserving
// the incentive order.
func WriteProofDocuments(w io.Writer, incentives []Incentive, tree *Tree) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, inc := range incentives {
		proof, err := tree.Proof(i)
		if err != nil {
			return err
		}
		doc := ProofDocument{
			Index:         uint64(i),
			Proof:         encodeHashes(proof),
			WeekIncentive: inc.Entry.Amount.String(),
		}
		key, err := json.Marshal(inc.Key)
		if err != nil {
			return err
		}
		value, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
	}
	buf.WriteByte('}')
	_, err := w.Write(buf.Bytes())
	return err
}

// FindProof looks up an address in a proof document set, ignoring case.
func FindProof(r io.Reader, account common.Address) (*ProofDocument, bool, error) {
	var docs map[string]ProofDocument
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, false, err
	}
	for key, doc := range docs {
		if common.IsHexAddress(key) && common.HexToAddress(key) == account {
			d := doc
			return &d, true, nil
		}
	}
	return nil, false, nil
}

func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// WriteTree writes the level artifact.
func WriteTree(w io.Writer, tree *Tree) error {
	return writeJSON(w, tree.EncodeLevels())
}

// WriteProofs writes the index keyed proof artifact.
func WriteProofs(w io.Writer, tree *Tree) error {
	return writeJSON(w, tree.EncodeProofs())
}

// ReadProofDocuments decodes an address keyed proof document set.
func ReadProofDocuments(r io.Reader) (map[string]ProofDocument, error) {
	var docs map[string]ProofDocument
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Check verifies the document against root for account.
func (d ProofDocument) Check(account common.Address, root common.Hash) (bool, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(d.WeekIncentive), 10)
	if !ok {
		return false, fmt.Errorf("%w: amount %q", ErrInvalidIncentive, d.WeekIncentive)
	}
	proof, err := ParseHashes(d.Proof)
	if err != nil {
		return false, err
	}
	return Verify(d.Index, account, amount, proof, root), nil
}
