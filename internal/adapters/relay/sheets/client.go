// Package sheets posts finalized negotiations to a spreadsheet webhook
// (a Google Apps Script endpoint in practice).
package sheets

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phenrril/rodada/internal/domain"
)

const (
	SignatureHeader = "X-Rodada-Signature"
	noDealLabel     = "Sem Negociação"
	dateLayout      = "02/01/2006 15:04:05"
)

type Client struct {
	secret     string
	loc        *time.Location
	httpClient *http.Client
}

// NewClient signs bodies with secret when it is not empty. Dates are rendered
// in loc; nil means UTC.
func NewClient(secret string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.UTC
	}
	return &Client{secret: secret, loc: loc, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

type payload struct {
	ID              string   `json:"id"`
	AssociateName   string   `json:"associateName"`
	SupplierName    string   `json:"supplierName"`
	Amount          *float64 `json:"amount"`
	FormattedAmount string   `json:"formattedAmount"`
	Timestamp       string   `json:"timestamp"`
	FormattedDate   string   `json:"formattedDate"`
	Notes           string   `json:"notes"`
}

func nameOr(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func (c *Client) build(ev domain.RelayEvent) payload {
	n := ev.Record
	p := payload{
		ID:              n.ID.String(),
		AssociateName:   nameOr(ev.BuyerName),
		SupplierName:    nameOr(ev.SellerName),
		FormattedAmount: noDealLabel,
		Timestamp:       n.CreatedAt.UTC().Format(time.RFC3339Nano),
		FormattedDate:   n.CreatedAt.In(c.loc).Format(dateLayout),
		Notes:           n.Notes,
	}
	if n.Amount != nil {
		v := n.Amount.Reais()
		p.Amount = &v
		p.FormattedAmount = n.Amount.String()
	}
	return p
}

func (c *Client) sign(body []byte) string {
	h := hmac.New(sha256.New, []byte(c.secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Send delivers one event. An empty url is a no-op.
func (c *Client) Send(ctx context.Context, url string, ev domain.RelayEvent) error {
	if url == "" {
		return nil
	}
	buf, err := json.Marshal(c.build(ev))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set(SignatureHeader, c.sign(buf))
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to spreadsheet: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return fmt.Errorf("spreadsheet status %d: %s", res.StatusCode, string(b))
	}
	return nil
}

// Verify checks a signature produced by a Client sharing secret.
func Verify(secret string, body []byte, signature string) error {
	if signature == "" {
		return errors.New("empty signature")
	}
	want := (&Client{secret: secret}).sign(body)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return errors.New("signature mismatch")
	}
	return nil
}
