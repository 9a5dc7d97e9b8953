package probe

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"math"
	"net"
	"strings"
	"time"

	"github.com/raysh454/sitelens/internal/model"
)

// TLSProbe opens a raw TLS connection and inspects what the server presents.
// Verification is skipped during the handshake so broken chains can still be
// reported; the chain is verified afterwards and failures become warnings.
type TLSProbe struct {
	Port string
	// Roots overrides the system pool for the post-handshake verification.
	Roots *x509.CertPool
	Now   func() time.Time
}

func NewTLSProbe() *TLSProbe {
	return &TLSProbe{Port: "443", Now: time.Now}
}

// Probe never fails: connection problems yield Valid=false with the reason
// in Warnings.
func (p *TLSProbe) Probe(ctx context.Context, host string) *model.TLSCertificate {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: true, //nolint:gosec // inspection only, verified below
		},
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, p.Port))
	if err != nil {
		msg := err.Error()
		if ctx.Err() != nil {
			msg = "Connection timeout"
		}
		return &model.TLSCertificate{Warnings: []string{msg}, SubjectAltNames: []string{}, Chain: []model.CertificateLink{}}
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	return p.Inspect(state, host)
}

// Inspect builds the certificate record from a finished handshake.
func (p *TLSProbe) Inspect(state tls.ConnectionState, host string) *model.TLSCertificate {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	if len(state.PeerCertificates) == 0 {
		return &model.TLSCertificate{
			Warnings:        []string{"Could not retrieve certificate"},
			SubjectAltNames: []string{},
			Chain:           []model.CertificateLink{},
		}
	}

	leaf := state.PeerCertificates[0]
	days := int(math.Floor(leaf.NotAfter.Sub(now).Hours() / 24))
	protocol := tls.VersionName(state.Version)
	cipher := ""
	if state.CipherSuite != 0 {
		cipher = tls.CipherSuiteName(state.CipherSuite)
	}

	warnings := make([]string, 0)
	if days < 30 {
		warnings = append(warnings, "Certificate expires soon")
	}
	if state.Version < tls.VersionTLS12 {
		warnings = append(warnings, "Outdated TLS protocol")
	}
	if err := verifyChain(state.PeerCertificates, host, p.Roots, now); err != nil {
		warnings = append(warnings, "Certificate chain does not verify: "+err.Error())
	}

	subject := leaf.Subject.CommonName
	if subject == "" {
		subject = host
	}
	return &model.TLSCertificate{
		Valid:              now.After(leaf.NotBefore) && now.Before(leaf.NotAfter),
		Issuer:             orUnknown(leaf.Issuer.CommonName),
		Subject:            subject,
		ValidFrom:          leaf.NotBefore,
		ValidTo:            leaf.NotAfter,
		DaysUntilExpiry:    days,
		SerialNumber:       strings.ToUpper(leaf.SerialNumber.Text(16)),
		SignatureAlgorithm: leaf.SignatureAlgorithm.String(),
		KeySize:            keySize(leaf),
		Version:            leaf.Version,
		SubjectAltNames:    subjectAltNames(leaf),
		Chain:              chainOf(state.PeerCertificates),
		CipherSuite:        orUnknown(cipher),
		Protocol:           orUnknown(protocol),
		Grade:              GradeTLS(days, state.Version, cipher),
		Warnings:           warnings,
	}
}

// GradeTLS is a deliberately simple heuristic: A, B under 30 days to expiry,
// C under 7 days or below TLS 1.2, F for RC4 or no cipher.
func GradeTLS(daysUntilExpiry int, version uint16, cipher string) string {
	grade := "A"
	if daysUntilExpiry < 30 {
		grade = "B"
	}
	if daysUntilExpiry < 7 {
		grade = "C"
	}
	if version != 0 && version < tls.VersionTLS12 {
		grade = "C"
	}
	if cipher == "" || strings.Contains(strings.ToUpper(cipher), "RC4") {
		grade = "F"
	}
	return grade
}

func verifyChain(certs []*x509.Certificate, host string, roots *x509.CertPool, now time.Time) error {
	inter := x509.NewCertPool()
	for _, c := range certs[1:] {
		inter.AddCert(c)
	}
	_, err := certs[0].Verify(x509.VerifyOptions{
		DNSName:       host,
		Roots:         roots,
		Intermediates: inter,
		CurrentTime:   now,
	})
	return err
}

func chainOf(certs []*x509.Certificate) []model.CertificateLink {
	out := make([]model.CertificateLink, 0, len(certs))
	for i := 0; i+1 < len(certs); i++ {
		issuer := certs[i+1]
		out = append(out, model.CertificateLink{
			Issuer:    orUnknown(issuer.Subject.CommonName),
			Subject:   orUnknown(certs[i].Subject.CommonName),
			ValidFrom: issuer.NotBefore,
			ValidTo:   issuer.NotAfter,
		})
	}
	return out
}

func subjectAltNames(c *x509.Certificate) []string {
	out := make([]string, 0, len(c.DNSNames)+len(c.IPAddresses))
	out = append(out, c.DNSNames...)
	for _, ip := range c.IPAddresses {
		out = append(out, ip.String())
	}
	return out
}

func keySize(c *x509.Certificate) int {
	switch k := c.PublicKey.(type) {
	case *rsa.PublicKey:
		return k.N.BitLen()
	case *ecdsa.PublicKey:
		return k.Curve.Params().BitSize
	case ed25519.PublicKey:
		return 256
	}
	return 0
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

