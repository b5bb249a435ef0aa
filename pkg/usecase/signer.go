package usecase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
)

// Signer attaches and checks HMAC-SHA256 signatures over run summaries
type Signer struct{}

// NewSigner creates a Signer
func NewSigner() *Signer {
	return &Signer{}
}

// Canonical returns the serialization the signature covers: compact JSON of
// the summary with the signature field left out. Struct field order fixes the
// key order.
func (s *Signer) Canonical(summary *model.OperationSummary) ([]byte, error) {
	unsigned := *summary
	unsigned.Signature = ""

	data, err := json.Marshal(&unsigned)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to serialize summary", goerr.V("run_id", summary.RunID))
	}
	return data, nil
}

// Finalize returns a copy of summary, signed when secret is not empty
func (s *Signer) Finalize(summary *model.OperationSummary, secret []byte) (*model.OperationSummary, error) {
	finalized := *summary
	finalized.Signature = ""
	if len(secret) == 0 {
		return &finalized, nil
	}

	sig, err := s.sign(&finalized, secret)
	if err != nil {
		return nil, err
	}
	finalized.Signature = sig
	return &finalized, nil
}

// Verify reports whether summary carries a valid signature for secret
func (s *Signer) Verify(summary *model.OperationSummary, secret []byte) (bool, error) {
	if summary.Signature == "" {
		return false, nil
	}

	expected, err := s.sign(summary, secret)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(summary.Signature), []byte(expected)), nil
}

func (s *Signer) sign(summary *model.OperationSummary, secret []byte) (string, error) {
	data, err := s.Canonical(summary)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil)), nil
}
