package tls

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
)

// TLSManager handles TLS certificate management including Let's Encrypt
type TLSManager struct {
	config      *TLSConfig
	autocertMgr *autocert.Manager
	tlsConfig   *tls.Config
}

// TLSConfig holds TLS configuration options
type TLSConfig struct {
	EnableTLS         bool
	EnableLetsEncrypt bool
	Domain            string
	LetsEncryptEmail  string
	CertCacheDir      string
	CertFile          string
	KeyFile           string
	ListenAddress     string
	// ChallengeAddress serves ACME http-01 challenges and redirects to
	// HTTPS. Only used with Let's Encrypt.
	ChallengeAddress string
}

// LoadConfig reads the [TLS] and [Network] sections.
func LoadConfig() *TLSConfig {
	return &TLSConfig{
		EnableTLS:         configuration.GetBool("TLS", "enable_tls", false),
		EnableLetsEncrypt: configuration.GetBool("TLS", "enable_letsencrypt", false),
		Domain:            configuration.GetString("TLS", "domain", ""),
		LetsEncryptEmail:  configuration.GetString("TLS", "letsencrypt_email", ""),
		CertCacheDir:      configuration.GetString("TLS", "cert_cache_dir", "certs"),
		CertFile:          configuration.GetString("TLS", "cert_file", ""),
		KeyFile:           configuration.GetString("TLS", "key_file", ""),
		ListenAddress:     configuration.GetString("Network", "listen_address", ":8080"),
		ChallengeAddress:  configuration.GetString("TLS", "challenge_address", ":80"),
	}
}

// NewTLSManager creates a TLS manager from the configuration
func NewTLSManager() (*TLSManager, error) {
	return NewTLSManagerWithConfig(LoadConfig())
}

// NewTLSManagerWithConfig validates config and prepares certificates.
func NewTLSManagerWithConfig(config *TLSConfig) (*TLSManager, error) {
	manager := &TLSManager{config: config}

	if err := manager.validateConfig(); err != nil {
		return nil, fmt.Errorf("TLS configuration validation failed: %w", err)
	}
	if config.EnableTLS {
		if err := manager.initializeTLS(); err != nil {
			return nil, fmt.Errorf("TLS initialization failed: %w", err)
		}
	}
	return manager, nil
}

// validateConfig validates the TLS configuration
func (tm *TLSManager) validateConfig() error {
	if !tm.config.EnableTLS {
		return nil
	}
	if tm.config.EnableLetsEncrypt {
		if strings.TrimSpace(tm.config.Domain) == "" {
			return errors.New("domain is required when Let's Encrypt is enabled")
		}
		if strings.TrimSpace(tm.config.LetsEncryptEmail) == "" {
			return errors.New("letsencrypt_email is required when Let's Encrypt is enabled")
		}
		if strings.Contains(tm.config.Domain, "example.com") {
			logger.SecurityWarn("Using example domain - change this in production!")
		}
		return nil
	}
	if tm.config.CertFile == "" || tm.config.KeyFile == "" {
		return errors.New("cert_file and key_file are required without Let's Encrypt")
	}
	return nil
}

// initializeTLS sets up TLS configuration
func (tm *TLSManager) initializeTLS() error {
	if tm.config.EnableLetsEncrypt {
		return tm.initializeLetsEncrypt()
	}
	return tm.initializeManualTLS()
}

// initializeLetsEncrypt sets up Let's Encrypt automatic certificate management
func (tm *TLSManager) initializeLetsEncrypt() error {
	logger.Info(logger.AreaSecurity, "Initializing Let's Encrypt for domain: %s", tm.config.Domain)

	if err := os.MkdirAll(tm.config.CertCacheDir, 0700); err != nil {
		return fmt.Errorf("failed to create certificate cache directory: %w", err)
	}

	tm.autocertMgr = &autocert.Manager{
		Cache:      autocert.DirCache(tm.config.CertCacheDir),
		Prompt:     autocert.AcceptTOS,
		Email:      tm.config.LetsEncryptEmail,
		HostPolicy: autocert.HostWhitelist(tm.config.Domain, "www."+tm.config.Domain),
	}

	tm.tlsConfig = tm.autocertMgr.TLSConfig()
	tm.tlsConfig.MinVersion = tls.VersionTLS12
	logger.Info(logger.AreaSecurity, "Let's Encrypt TLS manager initialized successfully")
	return nil
}

// initializeManualTLS loads the configured certificate pair
func (tm *TLSManager) initializeManualTLS() error {
	logger.Info(logger.AreaSecurity, "Initializing manual TLS with cert: %s, key: %s", tm.config.CertFile, tm.config.KeyFile)

	cert, err := tls.LoadX509KeyPair(tm.config.CertFile, tm.config.KeyFile)
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}
	tm.tlsConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"h2", "http/1.1"},
	}
	logger.Info(logger.AreaSecurity, "Manual TLS manager initialized successfully")
	return nil
}

// GetTLSConfig returns the TLS configuration for the HTTP server, nil
// without TLS.
func (tm *TLSManager) GetTLSConfig() *tls.Config {
	if !tm.config.EnableTLS {
		return nil
	}
	return tm.tlsConfig
}

// IsEnabled returns true if TLS is enabled
func (tm *TLSManager) IsEnabled() bool {
	return tm.config.EnableTLS
}

// ListenAddress returns the address of the main server.
func (tm *TLSManager) ListenAddress() string {
	return tm.config.ListenAddress
}

// challengeHandler answers ACME challenges and redirects everything else
// to HTTPS.
func (tm *TLSManager) challengeHandler() http.Handler {
	return tm.autocertMgr.HTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		target := "https://" + host
		if _, port, err := net.SplitHostPort(tm.config.ListenAddress); err == nil && port != "443" {
			target += ":" + port
		}
		http.Redirect(w, r, target+r.URL.RequestURI(), http.StatusMovedPermanently)
	}))
}

// Serve runs handler on the listen address, with TLS when enabled, until
// ctx is done. The servers are shut down gracefully.
func (tm *TLSManager) Serve(ctx context.Context, handler http.Handler) error {
	servers := []*http.Server{{
		Addr:              tm.config.ListenAddress,
		Handler:           handler,
		TLSConfig:         tm.GetTLSConfig(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if tm.IsEnabled() && tm.autocertMgr != nil {
		servers = append(servers, &http.Server{
			Addr:              tm.config.ChallengeAddress,
			Handler:           tm.challengeHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errorChan := make(chan error, len(servers))
	for i, srv := range servers {
		go func(srv *http.Server, main bool) {
			var err error
			if main && srv.TLSConfig != nil {
				logger.Info(logger.AreaSecurity, "Starting HTTPS server on %s", srv.Addr)
				err = srv.ListenAndServeTLS("", "")
			} else {
				logger.Info(logger.AreaGeneral, "Starting HTTP server on %s", srv.Addr)
				err = srv.ListenAndServe()
			}
			if !errors.Is(err, http.ErrServerClosed) {
				errorChan <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}(srv, i == 0)
	}

	var err error
	select {
	case err = <-errorChan:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		srv.Shutdown(shutdownCtx)
	}
	return err
}

// GenerateSelfSignedCert writes an ECDSA certificate for hosts, valid for
// one year, to certFile and keyFile. Meant for development.
func GenerateSelfSignedCert(certFile, keyFile string, hosts ...string) error {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("generate serial: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"retrobasic"}},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	if len(hosts) == 0 {
		hosts = []string{"localhost", "127.0.0.1"}
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}

	if err := writePEM(certFile, "CERTIFICATE", der, 0644); err != nil {
		return err
	}
	if err := writePEM(keyFile, "EC PRIVATE KEY", keyDER, 0600); err != nil {
		return err
	}
	logger.Info(logger.AreaSecurity, "self-signed certificate written to %s", certFile)
	return nil
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
