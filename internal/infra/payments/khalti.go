package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"basobas/internal/app/policies"
	"basobas/internal/domain/shared/money"
)

// Khalti verifies transactions through the Khalti lookup API. Khalti reports
// amounts in paisa, matching booking totals directly.
type Khalti struct {
	LookupURL  string
	SecretKey  string
	HTTPClient *http.Client
}

func (k *Khalti) Name() string { return "khalti" }

func (k *Khalti) Verify(ctx context.Context, ref string, amount money.Money) (policies.Verification, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return policies.Verification{}, policies.ErrVerificationFailed
	}

	payload, err := json.Marshal(map[string]string{"pidx": ref})
	if err != nil {
		return policies.Verification{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.LookupURL, bytes.NewReader(payload))
	if err != nil {
		return policies.Verification{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+k.SecretKey)

	resp, err := k.httpClient().Do(req)
	if err != nil {
		return policies.Verification{}, policies.ErrGatewayUnavailable
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return policies.Verification{}, policies.ErrGatewayUnavailable
	}

	var body struct {
		Pidx        string `json:"pidx"`
		TotalAmount int64  `json:"total_amount"`
		Status      string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return policies.Verification{}, err
	}

	if body.TotalAmount != amount.Amount {
		return policies.Verification{}, policies.ErrAmountMismatch
	}
	return policies.Verification{
		Ref:     ref,
		Amount:  money.Money{Amount: body.TotalAmount, Currency: amount.Currency},
		Settled: strings.EqualFold(body.Status, "Completed"),
	}, nil
}

func (k *Khalti) httpClient() *http.Client {
	if k.HTTPClient != nil {
		return k.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

var _ policies.PaymentGateway = (*Khalti)(nil)
