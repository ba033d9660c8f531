package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ipfs/go-cid"
	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
)

const (
	DefaultUploadURL  = "https://uploads.pinata.cloud/v3/files"
	DefaultPinJSONURL = "https://api.pinata.cloud/pinning/pinJSONToIPFS"
	DefaultGatewayURL = "https://gateway.pinata.cloud/ipfs/"
)

// ErrCredentialsExpired is returned when the configured Pinata JWT has expired
var ErrCredentialsExpired = errors.New("pinata credentials expired")

// Config configures a Pinata client.
type Config struct {
	JWT        string
	UploadURL  string
	PinJSONURL string
	GatewayURL string
	HTTPClient *http.Client
}

// Pinata implements ports.ContentStore using the Pinata pinning API.
type Pinata struct {
	jwt        string
	uploadURL  string
	pinJSONURL string
	gatewayURL string
	*Gateway
}

var _ ports.ContentStore = (*Pinata)(nil)

// NewPinata creates a Pinata client. The JWT is inspected, not verified, so an
// expired key fails at startup instead of on the first upload.
func NewPinata(cfg Config) (*Pinata, error) {
	if cfg.JWT == "" {
		return nil, fmt.Errorf("pinata jwt: %w", core.ErrMissingField)
	}
	if err := checkExpiry(cfg.JWT, time.Now()); err != nil {
		return nil, err
	}

	p := &Pinata{
		jwt:        cfg.JWT,
		uploadURL:  withDefault(cfg.UploadURL, DefaultUploadURL),
		pinJSONURL: withDefault(cfg.PinJSONURL, DefaultPinJSONURL),
		gatewayURL: withDefault(cfg.GatewayURL, DefaultGatewayURL),
		Gateway:    NewGateway(cfg.HTTPClient),
	}
	if !strings.HasSuffix(p.gatewayURL, "/") {
		p.gatewayURL += "/"
	}
	return p, nil
}

type pinJSONRequest struct {
	PinataMetadata struct {
		Name string `json:"name"`
	} `json:"pinataMetadata"`
	PinataContent any `json:"pinataContent"`
}

type pinJSONResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

type uploadResponse struct {
	Data struct {
		CID string `json:"cid"`
	} `json:"data"`
}

// PinJSON pins content under name and returns its CID
func (p *Pinata) PinJSON(ctx context.Context, name string, content any) (string, error) {
	var body pinJSONRequest
	body.PinataMetadata.Name = name
	body.PinataContent = content

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.pinJSONURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create pin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp pinJSONResponse
	if err := p.do(req, &resp); err != nil {
		return "", err
	}
	return validCID(resp.IpfsHash)
}

// PinBytes uploads data as a public file called filename and returns its CID
func (p *Pinata) PinBytes(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", core.ErrUploadFailed, filename)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.WriteField("network", "public"); err != nil {
		return "", fmt.Errorf("write form field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.uploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp uploadResponse
	if err := p.do(req, &resp); err != nil {
		return "", err
	}
	return validCID(resp.Data.CID)
}

// URL returns the gateway URL of cid
func (p *Pinata) URL(c string) string {
	return p.gatewayURL + c
}

func (p *Pinata) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+p.jwt)

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", core.ErrUploadFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d - %s", core.ErrUploadFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", core.ErrUploadFailed, err)
	}
	return nil
}

func validCID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: response has no cid", core.ErrUploadFailed)
	}
	if _, err := cid.Decode(s); err != nil {
		return "", fmt.Errorf("%w: malformed cid %q: %v", core.ErrUploadFailed, s, err)
	}
	return s, nil
}

func checkExpiry(token string, now time.Time) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// opaque API keys are accepted as-is
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(now) {
		return ErrCredentialsExpired
	}
	return nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
