// Package client talks to an external payments API over HTTP. It is one
// of two recorder gateways; the other is backed by the local repository.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lendex/emi-engine/internal/domain"
	"github.com/lendex/emi-engine/pkg/utils"
)

// paymentPayload is the wire shape of a payment record. Amounts arrive as
// numeric strings or numbers; dates as ISO dates or timestamp prefixes.
type paymentPayload struct {
	ID      string          `json:"id,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Date    string          `json:"date"`
	Note    string          `json:"note,omitempty"`
	Remarks string          `json:"remarks,omitempty"`
}

type PaymentsClient struct {
	baseURL string
	http    *http.Client
}

func NewPaymentsClient(baseURL string, timeout time.Duration) *PaymentsClient {
	return &PaymentsClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func collectionPath(ob *domain.Obligation) string {
	if ob.Type == domain.ObligationTypeEMI {
		return "emis"
	}
	return "loans"
}

// ListPayments fetches the authoritative payment list for an obligation.
func (c *PaymentsClient) ListPayments(ctx context.Context, ob *domain.Obligation) ([]*domain.PaymentRecord, error) {
	url := fmt.Sprintf("%s/%s/%s/payments", c.baseURL, collectionPath(ob), ob.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payments list returned status %d", resp.StatusCode)
	}

	var payloads []paymentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("decode payments list: %w", err)
	}

	records := make([]*domain.PaymentRecord, 0, len(payloads))
	for _, p := range payloads {
		record, err := p.toRecord(ob)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// CreatePayment appends a payment record for an obligation. Any non-2xx
// status is a failure.
func (c *PaymentsClient) CreatePayment(ctx context.Context, ob *domain.Obligation, record *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	url := fmt.Sprintf("%s/%s/%s/payments", c.baseURL, collectionPath(ob), ob.ID)

	body, err := json.Marshal(paymentPayload{
		Amount:  record.Amount,
		Date:    record.Date.Format(utils.DateLayout),
		Note:    record.Note,
		Remarks: record.Remarks,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("payment submission returned status %d", resp.StatusCode)
	}

	var created paymentPayload
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		// The write succeeded; a malformed body only costs the echo.
		return record, nil
	}

	return created.toRecord(ob)
}

func (p paymentPayload) toRecord(ob *domain.Obligation) (*domain.PaymentRecord, error) {
	date, err := utils.ParseDate(p.Date)
	if err != nil {
		return nil, fmt.Errorf("payment record: %w", err)
	}

	record := &domain.PaymentRecord{
		ObligationID:   ob.ID,
		ObligationType: ob.Type,
		Amount:         p.Amount,
		Date:           date,
		Note:           p.Note,
		Remarks:        p.Remarks,
	}
	if id, err := uuid.Parse(p.ID); err == nil {
		record.ID = id
	}

	return record, nil
}
