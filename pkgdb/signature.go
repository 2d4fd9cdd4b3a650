package pkgdb

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// SignatureError reports that an entry's detached signature could not be
// produced or verified.
type SignatureError struct {
	Name string
	Err  error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("signature for entry %s: %v", e.Name, e.Err)
}

func (e *SignatureError) Unwrap() error { return e.Err }

func signingKey(armoredKey string) (*openpgp.Entity, error) {
	entities, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armoredKey))
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		if e.PrivateKey != nil {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no private key found in armored key ring")
}

// SignEntry produces an ASCII-armored detached OpenPGP signature over an
// entry's desc file content, written as the entry's ".sig" sibling by the
// caller. The entry itself is never modified: the signature travels
// alongside it, matching how a repository's Release file is signed
// independently of the index it covers.
func (d *Database) SignEntry(name EntryName, armoredKey string) ([]byte, error) {
	entry, found, err := d.Entry(name.String())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &SignatureError{Name: name.String(), Err: fmt.Errorf("no such entry")}
	}
	signer, err := signingKey(armoredKey)
	if err != nil {
		return nil, &SignatureError{Name: name.String(), Err: err}
	}

	var sig bytes.Buffer
	w, err := armor.Encode(&sig, openpgp.SignatureType, nil)
	if err != nil {
		return nil, &SignatureError{Name: name.String(), Err: err}
	}
	if err := openpgp.DetachSign(w, signer, strings.NewReader(entry.Desc), nil); err != nil {
		return nil, &SignatureError{Name: name.String(), Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &SignatureError{Name: name.String(), Err: err}
	}
	return sig.Bytes(), nil
}

// VerifyEntrySignature checks sig (an armored detached signature, as
// produced by SignEntry) against the entry's current desc content using the
// given armored public key ring. A nil error means the signature is valid.
func (d *Database) VerifyEntrySignature(name EntryName, sig []byte, armoredPublicKeyRing string) error {
	entry, found, err := d.Entry(name.String())
	if err != nil {
		return err
	}
	if !found {
		return &SignatureError{Name: name.String(), Err: fmt.Errorf("no such entry")}
	}
	keyring, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armoredPublicKeyRing))
	if err != nil {
		return &SignatureError{Name: name.String(), Err: err}
	}
	block, err := armor.Decode(bytes.NewReader(sig))
	if err != nil {
		return &SignatureError{Name: name.String(), Err: err}
	}
	if _, err := openpgp.CheckDetachedSignature(keyring, strings.NewReader(entry.Desc), block.Body, nil); err != nil {
		return &SignatureError{Name: name.String(), Err: err}
	}
	return nil
}

// sigPath is the conventional sibling path of an entry's detached
// signature, kept in the database directory beside the entry
// subdirectory rather than inside it so resyncing entries never touches
// it by accident.
func (d *Database) sigPath(name EntryName) string {
	return d.dir + "/" + name.String() + ".sig"
}

// WriteEntrySignature persists sig at the entry's conventional sibling
// path.
func (d *Database) WriteEntrySignature(name EntryName, sig []byte) error {
	if err := os.WriteFile(d.sigPath(name), sig, 0644); err != nil {
		return &SignatureError{Name: name.String(), Err: err}
	}
	return nil
}

// ReadEntrySignature reads back a signature written by WriteEntrySignature.
func (d *Database) ReadEntrySignature(name EntryName) ([]byte, error) {
	b, err := os.ReadFile(d.sigPath(name))
	if err != nil {
		return nil, &SignatureError{Name: name.String(), Err: err}
	}
	return b, nil
}
