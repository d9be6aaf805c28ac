package manifest

import (
	"encoding/json"
	"os"
	"time"

	"github.com/openvrt/vrtcodec/internal/common"
	"github.com/openvrt/vrtcodec/internal/crypto"
)

// Item describes one file produced by an inspection run: a capture, its
// decoded diagnostics, or a rendered report artifact.
type Item struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Sha256 string `json:"sha256"`
	Type   string `json:"type"`
}

// Manifest records the inputs and outputs of one inspection run so a
// later audit can confirm nothing in the bundle was altered afterward.
type Manifest struct {
	CreatedAt time.Time  `json:"createdAt"`
	ShaAlgo   string     `json:"shaAlgo"`
	Items     []Item     `json:"items"`
	Signature *Signature `json:"signature,omitempty"`
}

type Signature struct {
	Type          string `json:"type"`
	SignatureFile string `json:"signatureFile,omitempty"`
}

func Build(paths []string) (Manifest, error) {
	m := Manifest{CreatedAt: time.Now().UTC(), ShaAlgo: "sha256"}
	for _, p := range paths {
		hex, sz, err := common.Sha256OfFile(p)
		if err != nil {
			return m, err
		}
		typ := "other"
		switch {
		case hasExt(p, ".vrt", ".vita49"):
			typ = "capture"
		case hasExt(p, ".ndjson"):
			typ = "diagnostics"
		case hasExt(p, ".json"):
			typ = "report-json"
		case hasExt(p, ".pdf"):
			typ = "report-pdf"
		case hasExt(p, ".png"):
			typ = "qr"
		}
		m.Items = append(m.Items, Item{Path: p, Size: sz, Sha256: hex, Type: typ})
	}
	return m, nil
}

func hasExt(path string, exts ...string) bool {
	for _, e := range exts {
		if len(path) >= len(e) && path[len(path)-len(e):] == e {
			return true
		}
	}
	return false
}

func Save(m Manifest, out string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

// Sign produces a detached JWS over the JSON encoding of m.Items and
// writes it alongside manifestPath, recording the sidecar name in m's
// Signature field before m itself is saved.
func Sign(m *Manifest, manifestPath string, privateKeyPEM []byte) error {
	payload, err := json.Marshal(m.Items)
	if err != nil {
		return err
	}
	jws, err := crypto.SignDetachedJWS(payload, privateKeyPEM)
	if err != nil {
		return err
	}
	sigPath := manifestPath + ".jws"
	b, err := json.MarshalIndent(jws, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(sigPath, b, 0644); err != nil {
		return err
	}
	m.Signature = &Signature{Type: "JWS-RS256", SignatureFile: sigPath}
	return nil
}

func Load(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}
