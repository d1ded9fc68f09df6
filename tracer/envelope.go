package tracer

import (
	"github.com/chainstamp/ChainStamp/digest"
	"github.com/chainstamp/ChainStamp/identity"
)

// SignedEnvelope binds a frozen package to its canonical bytes, content
// digest and the recorder's detached signature. The signature always
// covers the full canonical package, also for digest-only submissions.
type SignedEnvelope struct {
	Package        DataPackage
	CanonicalBytes []byte
	Digest         digest.Digest
	Signature      string
	Recorder       string
}

// Seal canonicalizes, digests and signs pkg with the given identity.
func Seal(pkg DataPackage, id *identity.Identity) (*SignedEnvelope, error) {
	canonical, err := pkg.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	sig, err := id.SignPackage(canonical)
	if err != nil {
		return nil, err
	}
	return &SignedEnvelope{
		Package:        pkg,
		CanonicalBytes: canonical,
		Digest:         digest.Bytes(canonical),
		Signature:      sig,
		Recorder:       id.Address().String(),
	}, nil
}
