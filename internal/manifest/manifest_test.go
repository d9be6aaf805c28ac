package manifest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func generateTestKey(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

func TestBuildClassifiesByExtension(t *testing.T) {
	tmp := t.TempDir()
	capture := filepath.Join(tmp, "session.vrt")
	diag := filepath.Join(tmp, "findings.ndjson")
	if err := os.WriteFile(capture, []byte{0x10, 0, 0, 4, 0, 0, 0, 1, 1, 2, 3, 4}, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(diag, []byte(`{"ruleId":"x"}`), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Build([]string{capture, diag})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(m.Items))
	}
	if m.Items[0].Type != "capture" {
		t.Fatalf("got type %q for %s, want capture", m.Items[0].Type, capture)
	}
	if m.Items[1].Type != "diagnostics" {
		t.Fatalf("got type %q for %s, want diagnostics", m.Items[1].Type, diag)
	}
	if m.Items[0].Sha256 == "" {
		t.Fatal("expected a non-empty sha256 digest")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	capture := filepath.Join(tmp, "session.vrt")
	if err := os.WriteFile(capture, []byte{1, 2, 3, 4}, 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Build([]string{capture})
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(tmp, "manifest.json")
	if err := Save(m, out); err != nil {
		t.Fatal(err)
	}
	back, err := Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Items) != 1 || back.Items[0].Path != capture {
		t.Fatalf("got %+v, want one item for %s", back.Items, capture)
	}
}

func TestSignWritesDetachedJWSSidecar(t *testing.T) {
	tmp := t.TempDir()
	capture := filepath.Join(tmp, "session.vrt")
	if err := os.WriteFile(capture, []byte{1, 2, 3, 4}, 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Build([]string{capture})
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(tmp, "manifest.json")
	if err := Sign(&m, out, generateTestKey(t)); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if m.Signature == nil || m.Signature.SignatureFile == "" {
		t.Fatal("expected Signature to be populated")
	}
	if _, err := os.Stat(m.Signature.SignatureFile); err != nil {
		t.Fatalf("signature sidecar missing: %v", err)
	}
}
