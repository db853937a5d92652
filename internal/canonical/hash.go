package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with stored hashes.
const (
	DomainCriteria = "labsearch/criteria/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CriteriaHash identifies a criteria tree searched against kind. Kind is
// part of the hash: the same tree over samples and over data sets are
// different searches.
func CriteriaHash(kind schema.Kind, node criteria.Node) (string, error) {
	body, err := MarshalStruct(struct {
		Entity   schema.Kind   `json:"entity"`
		Criteria criteria.Node `json:"criteria"`
	}{kind, node})
	if err != nil {
		return "", fmt.Errorf("CriteriaHash: %w", err)
	}
	return hashWithDomain(DomainCriteria, body), nil
}

// MustCriteriaHash is like CriteriaHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCriteriaHash(kind schema.Kind, node criteria.Node) string {
	h, err := CriteriaHash(kind, node)
	if err != nil {
		panic(err)
	}
	return h
}
