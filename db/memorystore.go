package db

import (
	"bytes"
	"crypto"
	"fmt"
	"sync"

	"github.com/letsencrypt/pkider/core"
)

// MemoryStore keeps every issued certificate in memory, not persisted
// anywhere.
type MemoryStore struct {
	sync.RWMutex

	certificatesByID map[string]*core.IssuedCertificate

	// Each certificate's key ID is the hex encoding of the JWK thumbprint of
	// its subject public key.
	certificatesByKeyID map[string][]*core.IssuedCertificate
}

var _ Storage = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		certificatesByID:    make(map[string]*core.IssuedCertificate),
		certificatesByKeyID: make(map[string][]*core.IssuedCertificate),
	}
}

func (m *MemoryStore) AddCertificate(cert *core.IssuedCertificate) (int, error) {
	if cert == nil || cert.Cert == nil {
		return 0, fmt.Errorf("cert must not be nil")
	}
	certID := cert.ID
	if len(certID) == 0 {
		return 0, fmt.Errorf("cert must have a non-empty ID to add to MemoryStore")
	}
	keyID, err := KeyToID(cert.Cert.PublicKey)
	if err != nil {
		return 0, err
	}

	m.Lock()
	defer m.Unlock()

	if _, present := m.certificatesByID[certID]; present {
		return 0, ExistingCertificateError{ID: certID}
	}

	m.certificatesByID[certID] = cert
	m.certificatesByKeyID[keyID] = append(m.certificatesByKeyID[keyID], cert)
	return len(m.certificatesByID), nil
}

func (m *MemoryStore) GetCertificateByID(id string) *core.IssuedCertificate {
	m.RLock()
	defer m.RUnlock()
	return m.certificatesByID[id]
}

// GetCertificateByDER loops over all certificates to find the one that matches the provided DER bytes.
// This method is linear and it's not optimized to give you a quick response.
func (m *MemoryStore) GetCertificateByDER(der []byte) *core.IssuedCertificate {
	m.RLock()
	defer m.RUnlock()
	for _, c := range m.certificatesByID {
		if bytes.Equal(c.Cert.Raw(), der) {
			return c
		}
	}

	return nil
}

func (m *MemoryStore) GetCertificatesByKey(key crypto.PublicKey) ([]*core.IssuedCertificate, error) {
	keyID, err := KeyToID(key)
	if err != nil {
		return nil, err
	}

	m.RLock()
	defer m.RUnlock()
	certs := m.certificatesByKeyID[keyID]
	out := make([]*core.IssuedCertificate, len(certs))
	copy(out, certs)
	return out, nil
}

func (m *MemoryStore) CountCertificates() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.certificatesByID)
}
