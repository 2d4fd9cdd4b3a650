package pkgdb

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

func generateTestKeyPair(t *testing.T) (armoredPrivate, armoredPublic string) {
	t.Helper()
	entity, err := openpgp.NewEntity("test signer", "", "signer@example.com", nil)
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}

	var priv bytes.Buffer
	w, err := armor.Encode(&priv, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("armor.Encode private: %v", err)
	}
	if err := entity.SerializePrivate(w, nil); err != nil {
		t.Fatalf("SerializePrivate: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close private armor: %v", err)
	}

	var pub bytes.Buffer
	w2, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor.Encode public: %v", err)
	}
	if err := entity.Serialize(w2); err != nil {
		t.Fatalf("Serialize public: %v", err)
	}
	if err := w2.Close(); err != nil {
		t.Fatalf("close public armor: %v", err)
	}

	return priv.String(), pub.String()
}

func TestSignAndVerifyEntryRoundTrip(t *testing.T) {
	dbDir := filepath.Join(t.TempDir(), "core")
	db, err := Create(dbDir, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer db.Close()

	name := mustEntryName(t, "foo-1.0.0-1")
	entry := &Entry{Name: name, Desc: "%NAME%\nfoo\n\n%VERSION%\n1.0.0-1\n"}
	if err := db.CreateEntry(entry); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	armoredPriv, armoredPub := generateTestKeyPair(t)

	sig, err := db.SignEntry(name, armoredPriv)
	if err != nil {
		t.Fatalf("SignEntry: %v", err)
	}
	if err := db.WriteEntrySignature(name, sig); err != nil {
		t.Fatalf("WriteEntrySignature: %v", err)
	}

	readBack, err := db.ReadEntrySignature(name)
	if err != nil {
		t.Fatalf("ReadEntrySignature: %v", err)
	}
	if err := db.VerifyEntrySignature(name, readBack, armoredPub); err != nil {
		t.Fatalf("VerifyEntrySignature: %v", err)
	}
}

func TestVerifyEntrySignatureRejectsWrongKey(t *testing.T) {
	dbDir := filepath.Join(t.TempDir(), "core")
	db, err := Create(dbDir, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer db.Close()

	name := mustEntryName(t, "foo-1.0.0-1")
	entry := &Entry{Name: name, Desc: "%NAME%\nfoo\n\n%VERSION%\n1.0.0-1\n"}
	if err := db.CreateEntry(entry); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	armoredPriv, _ := generateTestKeyPair(t)
	_, otherPub := generateTestKeyPair(t)

	sig, err := db.SignEntry(name, armoredPriv)
	if err != nil {
		t.Fatalf("SignEntry: %v", err)
	}
	if err := db.VerifyEntrySignature(name, sig, otherPub); err == nil {
		t.Fatal("expected verification against an unrelated public key to fail")
	}
}
