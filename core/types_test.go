package core

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letsencrypt/pkider/pkix"
)

func TestIssuedCertificateChain(t *testing.T) {
	t.Parallel()
	now := time.Now().Truncate(time.Second)

	rootKey := ecKey(t)
	root := selfSigned(t, rootKey, "root", now)

	intermediateKey := ecKey(t)
	csr, err := NewCertificateSigningRequest(pkix.Name{CommonName: "intermediate"}, intermediateKey, "")
	require.NoError(t, err)
	intermediate, err := csr.CreateCertificate(now.AddDate(0, 6, 0), root, rootKey, WithNotBefore(now))
	require.NoError(t, err)

	csr, err = NewCertificateSigningRequest(pkix.Name{CommonName: "leaf"}, ecKey(t), "")
	require.NoError(t, err)
	leaf, err := csr.CreateCertificate(now.AddDate(0, 1, 0), intermediate, intermediateKey, WithNotBefore(now))
	require.NoError(t, err)

	rootRecord := &IssuedCertificate{ID: "root", Cert: root}
	intermediateRecord := &IssuedCertificate{ID: "intermediate", Cert: intermediate, Issuer: rootRecord}
	leafRecord := IssuedCertificate{ID: "leaf", Cert: leaf, Issuer: intermediateRecord}

	expected := append(leaf.PEM(), intermediate.PEM()...)
	assert.True(t, bytes.Equal(expected, leafRecord.Chain()))
	assert.Equal(t, root.PEM(), rootRecord.Chain())
	assert.Equal(t, leaf.Raw(), leafRecord.DER())
}
