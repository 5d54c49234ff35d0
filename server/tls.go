package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
)

// TLSMode represents the TLS certificate mode
type TLSMode string

const (
	TLSModeOff         TLSMode = "off"
	TLSModeSelfSigned  TLSMode = "self-signed"
	TLSModeCustom      TLSMode = "custom"
	TLSModeLetsEncrypt TLSMode = "letsencrypt"
)

func parseTLSMode(raw string) (TLSMode, error) {
	switch mode := TLSMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "", TLSModeOff:
		return TLSModeOff, nil
	case TLSModeSelfSigned, TLSModeCustom, TLSModeLetsEncrypt:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid tls.mode %q (off, self-signed, custom, letsencrypt)", raw)
	}
}

// TLSConfig holds TLS/HTTPS configuration
type TLSConfig struct {
	Mode TLSMode

	// Self-signed mode
	Domain  string
	CertDir string

	// Custom certificate mode
	CertPath string
	KeyPath  string

	// Let's Encrypt mode
	LetsEncryptDomain string
	LetsEncryptEmail  string
	LetsEncryptCache  string
	AcceptTOS         bool
}

// Enabled reports whether the server should listen with TLS.
func (cfg *TLSConfig) Enabled() bool {
	return cfg != nil && cfg.Mode != "" && cfg.Mode != TLSModeOff
}

// GetTLSConfig returns a configured *tls.Config based on the mode
func (cfg *TLSConfig) GetTLSConfig() (*tls.Config, error) {
	switch cfg.Mode {
	case TLSModeLetsEncrypt:
		return cfg.getLetsEncryptConfig()
	case TLSModeCustom:
		return cfg.getCustomCertConfig()
	case TLSModeSelfSigned:
		return cfg.getSelfSignedConfig()
	default:
		return nil, fmt.Errorf("invalid TLS mode: %s", cfg.Mode)
	}
}

func baseTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		NextProtos: []string{"h2", "http/1.1"},
	}
}

func (cfg *TLSConfig) autocertManager() (*autocert.Manager, error) {
	if cfg.LetsEncryptDomain == "" {
		return nil, fmt.Errorf("domain required for Let's Encrypt")
	}
	if !cfg.AcceptTOS {
		return nil, fmt.Errorf("must accept Let's Encrypt Terms of Service (set accept_tos = true)")
	}
	if cfg.LetsEncryptCache == "" {
		cfg.LetsEncryptCache = "letsencrypt-cache"
	}
	if err := os.MkdirAll(cfg.LetsEncryptCache, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create Let's Encrypt cache directory: %w", err)
	}
	return &autocert.Manager{
		Prompt:      autocert.AcceptTOS,
		Cache:       autocert.DirCache(cfg.LetsEncryptCache),
		HostPolicy:  autocert.HostWhitelist(cfg.LetsEncryptDomain),
		Email:       cfg.LetsEncryptEmail,
		RenewBefore: 30 * 24 * time.Hour,
	}, nil
}

func (cfg *TLSConfig) getLetsEncryptConfig() (*tls.Config, error) {
	m, err := cfg.autocertManager()
	if err != nil {
		return nil, err
	}
	tc := baseTLSConfig()
	tc.GetCertificate = m.GetCertificate
	tc.NextProtos = append(tc.NextProtos, acme.ALPNProto)
	return tc, nil
}

func (cfg *TLSConfig) getCustomCertConfig() (*tls.Config, error) {
	if cfg.CertPath == "" || cfg.KeyPath == "" {
		return nil, fmt.Errorf("cert_path and key_path required for custom mode")
	}
	cert, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom certificate: %w", err)
	}
	tc := baseTLSConfig()
	tc.Certificates = []tls.Certificate{cert}
	return tc, nil
}

// getSelfSignedConfig loads the certificate from CertDir, generating one on
// first use.
func (cfg *TLSConfig) getSelfSignedConfig() (*tls.Config, error) {
	certDir := cfg.CertDir
	if certDir == "" {
		certDir = "certs"
	}
	if err := os.MkdirAll(certDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create certs directory: %w", err)
	}

	certPath := filepath.Join(certDir, "server.crt")
	keyPath := filepath.Join(certDir, "server.key")

	_, certErr := os.Stat(certPath)
	_, keyErr := os.Stat(keyPath)
	if certErr == nil && keyErr == nil {
		logDebug("Loading existing self-signed certificate", "cert", certPath, "key", keyPath)
	} else {
		logInfo("Generating self-signed TLS certificate", "domain", cfg.Domain, "cert", certPath)
		if err := generateSelfSignedCert(certPath, keyPath, cfg.Domain); err != nil {
			return nil, fmt.Errorf("failed to generate self-signed certificate: %w", err)
		}
	}

	cfg.CertPath = certPath
	cfg.KeyPath = keyPath
	return cfg.getCustomCertConfig()
}

// generateSelfSignedCert writes a ten-year RSA certificate for domain and
// localhost.
func generateSelfSignedCert(certPath, keyPath, domain string) error {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	if domain == "" {
		domain = "localhost"
	}

	notBefore := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"PrintFleet"},
			CommonName:   "PrintFleet Server",
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(10 * 365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{domain, "localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	privBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}

	if err := writePEM(certPath, "CERTIFICATE", derBytes, 0o644); err != nil {
		return err
	}
	return writePEM(keyPath, "PRIVATE KEY", privBytes, 0o600)
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
