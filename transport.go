package mlsclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/ma314smith/signedxml"
)

// SOAPTransport is the Transport talking SOAP 1.1 over HTTP. It is bound to one
// endpoint and the operations its WSDL describes. It is safe for concurrent use.
type SOAPTransport struct {
	url        string
	desc       *serviceDescription
	httpClient *http.Client
	logger     *slog.Logger
	debug      bool

	username string
	password string
	cert     *signingCert
	verify   bool
}

type signingCert struct {
	tls          tls.Certificate
	issuerName   string
	serialNumber string
	encoded      string
}

func newSigningCert(cert tls.Certificate) (*signingCert, error) {
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("certificate has no data")
	}

	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %w", err)
	}

	return &signingCert{
		tls:          cert,
		issuerName:   parsed.Issuer.String(),
		serialNumber: parsed.SerialNumber.String(),
		encoded:      base64.StdEncoding.EncodeToString(cert.Certificate[0]),
	}, nil
}

// httpClient returns cfg.HTTPClient as is when set; TLS client auth with the
// certificate is then up to that client.
func (cfg Config) httpClient(cert *signingCert) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}

	client := &http.Client{Timeout: cfg.timeout()}

	if cert != nil {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert.tls},
			},
		}
	}

	return client
}

// NewSOAPTransport binds a transport to cfg.Endpoint by reading the service WSDL.
// Any failure is returned as a *ConnectionError.
func NewSOAPTransport(ctx context.Context, cfg Config) (*SOAPTransport, error) {
	endpoint := cfg.endpoint()
	if endpoint == "" {
		return nil, &ConnectionError{Endpoint: cfg.Endpoint, Err: ErrMissingEndpoint}
	}

	t := &SOAPTransport{
		url:      endpoint,
		logger:   cfg.logger(),
		debug:    cfg.Debug,
		username: cfg.Username,
		password: cfg.Password,
		verify:   cfg.VerifySignature,
	}

	if cfg.Certificate != nil {
		cert, err := newSigningCert(*cfg.Certificate)
		if err != nil {
			return nil, &ConnectionError{Endpoint: endpoint, Err: err}
		}

		t.cert = cert
	}

	t.httpClient = cfg.httpClient(t.cert)

	desc, err := t.describe(ctx)
	if err != nil {
		return nil, &ConnectionError{Endpoint: endpoint, Err: err}
	}

	for _, op := range serviceOperations {
		if !desc.describes(op) {
			return nil, &ConnectionError{Endpoint: endpoint, Err: fmt.Errorf("operation %s is not described by the service", op)}
		}
	}

	t.desc = desc

	return t, nil
}

func (t *SOAPTransport) describe(ctx context.Context) (*serviceDescription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url+"?wsdl", nil)
	if err != nil {
		return nil, err
	}

	response, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() { _ = response.Body.Close() }()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if t.debug {
		t.logger.Debug("wsdl received", slog.String("url", req.URL.String()), slog.String("body", string(data)))
	}

	if response.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetching wsdl: unexpected status %s", response.Status)
	}

	return parseWSDL(data)
}

// Operations lists all operations described by the service
func (t *SOAPTransport) Operations() []string {
	ops := make([]string, len(t.desc.operations))
	copy(ops, t.desc.operations)

	return ops
}

// buildEnvelope builds the envelope for the request
func (t *SOAPTransport) buildEnvelope(op Operation) *envelope {
	env := &envelope{
		Soap: soapEnvNS,
		Body: &body{
			Operation: operationElement{Namespace: t.desc.namespace, Operation: op},
		},
	}

	if t.cert == nil && t.username == "" {
		return env
	}

	sec := &security{Wsse: wsseNS}

	if t.username != "" {
		sec.UsernameToken = &usernameToken{
			Username: t.username,
			Password: &password{Type: pwdText, Text: t.password},
		}
	}

	env.Header = &header{Security: sec}

	if t.cert == nil {
		return env
	}

	env.Body.ID = generateID("id")
	env.Body.Wsu = wsuNS

	sec.Signature = &signature{
		ID:    generateID("SIG"),
		Xmlns: dsigNS,
		SignedInfo: &signedInfo{
			CanonicalizationMethod: algorithm{Algorithm: excC14N},
			SignatureMethod:        algorithm{Algorithm: rsaSHA1},
			Reference: reference{
				URI:          "#" + env.Body.ID,
				Transforms:   []algorithm{{Algorithm: excC14N}},
				DigestMethod: algorithm{Algorithm: sha1Digest},
			},
		},
		KeyInfo: &keyInfo{
			ID: generateID("KI"),
			X509Data: x509Data{
				IssuerName:      t.cert.issuerName,
				SerialNumber:    t.cert.serialNumber,
				X509Certificate: t.cert.encoded,
			},
		},
	}

	return env
}

func (t *SOAPTransport) encode(op Operation) (string, error) {
	xmlBytes, err := xml.Marshal(t.buildEnvelope(op))
	if err != nil {
		return "", err
	}

	if t.cert == nil {
		return xml.Header + string(xmlBytes), nil
	}

	signer, err := signedxml.NewSigner(string(xmlBytes))
	if err != nil {
		return "", err
	}

	// the body is referenced through wsu:Id, not the default ID attribute
	signer.SetReferenceIDAttribute(bodyIDAttribute)

	signedXML, err := signer.Sign(t.cert.tls.PrivateKey)
	if err != nil {
		return "", err
	}

	if t.verify {
		validator, err := signedxml.NewValidator(signedXML)
		if err != nil {
			return "", err
		}

		validator.SetReferenceIDAttribute(bodyIDAttribute)

		if _, err = validator.ValidateReferences(); err != nil {
			return "", fmt.Errorf("error validating: %w", err)
		}
	}

	return signedXML, nil
}

// Call posts op to the service and returns its response element.
func (t *SOAPTransport) Call(ctx context.Context, op Operation) (*etree.Element, error) {
	if !t.desc.describes(op.Name) {
		return nil, &RemoteCallError{Operation: op.Name, Message: "operation is not described by the service"}
	}

	requestID := generateID("req")
	logger := t.logger.With(slog.String("operation", op.Name), slog.String("request_id", requestID))

	payload, err := t.encode(op)
	if err != nil {
		return nil, &RemoteCallError{Operation: op.Name, Message: "encoding request: " + err.Error(), Err: err}
	}

	if t.debug {
		logger.Debug("soap request", slog.String("body", payload))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, strings.NewReader(payload))
	if err != nil {
		return nil, remoteErr(op.Name, err)
	}

	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+t.desc.soapAction(op.Name)+`"`)

	started := time.Now()

	response, err := t.httpClient.Do(req)
	if err != nil {
		logger.Debug("soap call failed", slog.String("error", err.Error()))
		return nil, remoteErr(op.Name, err)
	}

	defer func() { _ = response.Body.Close() }()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, remoteErr(op.Name, err)
	}

	logger.Debug("soap call finished",
		slog.Int("status", response.StatusCode),
		slog.Duration("duration", time.Since(started)),
	)

	if t.debug {
		logger.Debug("soap response", slog.String("body", string(data)))
	}

	return parseResponse(op.Name, response.StatusCode, data)
}

func parseResponse(opName string, status int, data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(bytes.TrimSpace(data)); err != nil || doc.Root() == nil {
		if status >= http.StatusBadRequest {
			return nil, &RemoteCallError{Operation: opName, Message: fmt.Sprintf("unexpected status %d", status)}
		}

		return nil, &RemoteCallError{Operation: opName, Message: "malformed response", Err: err}
	}

	soapBody := doc.Root().SelectElement("Body")
	if doc.Root().Tag != "Envelope" || soapBody == nil {
		return nil, &RemoteCallError{Operation: opName, Message: "response has no soap body"}
	}

	if fault := soapBody.SelectElement("Fault"); fault != nil {
		return nil, faultError(opName, fault)
	}

	if status >= http.StatusBadRequest {
		return nil, &RemoteCallError{Operation: opName, Message: fmt.Sprintf("unexpected status %d", status)}
	}

	result := soapBody.SelectElement(opName + "Response")
	if result == nil {
		return nil, &RemoteCallError{Operation: opName, Message: "response has no " + opName + "Response element"}
	}

	return result, nil
}

// faultError reads a SOAP 1.1 (faultcode/faultstring) or SOAP 1.2 (Code/Reason) fault.
func faultError(opName string, fault *etree.Element) *RemoteCallError {
	rce := &RemoteCallError{Operation: opName}

	if code := fault.SelectElement("faultcode"); code != nil {
		rce.Code = strings.TrimSpace(code.Text())
	} else if value := fault.FindElement("Code/Value"); value != nil {
		rce.Code = strings.TrimSpace(value.Text())
	}

	if msg := fault.SelectElement("faultstring"); msg != nil {
		rce.Message = strings.TrimSpace(msg.Text())
	} else if text := fault.FindElement("Reason/Text"); text != nil {
		rce.Message = strings.TrimSpace(text.Text())
	}

	if rce.Message == "" {
		rce.Message = "soap fault"
	}

	return rce
}
