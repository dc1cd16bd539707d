package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"basobas/internal/app/policies"
	"basobas/internal/domain/shared/money"
)

// Esewa verifies transactions against the eSewa status API. Amounts on the
// wire are rupees; bookings carry paisa.
type Esewa struct {
	VerifyURL   string
	ProductCode string
	HTTPClient  *http.Client
}

func (e *Esewa) Name() string { return "esewa" }

func (e *Esewa) Verify(ctx context.Context, ref string, amount money.Money) (policies.Verification, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return policies.Verification{}, policies.ErrVerificationFailed
	}

	query := url.Values{}
	query.Set("product_code", e.productCode())
	query.Set("transaction_uuid", ref)
	query.Set("total_amount", fmt.Sprintf("%d.%02d", amount.Amount/100, amount.Amount%100))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.VerifyURL+"?"+query.Encode(), nil)
	if err != nil {
		return policies.Verification{}, err
	}
	resp, err := e.httpClient().Do(req)
	if err != nil {
		return policies.Verification{}, policies.ErrGatewayUnavailable
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return policies.Verification{}, policies.ErrGatewayUnavailable
	}

	var body struct {
		Status      string  `json:"status"`
		TotalAmount float64 `json:"total_amount"`
		RefID       string  `json:"ref_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return policies.Verification{}, err
	}

	reported := int64(body.TotalAmount*100 + 0.5)
	if reported != amount.Amount {
		return policies.Verification{}, policies.ErrAmountMismatch
	}
	return policies.Verification{
		Ref:     ref,
		Amount:  money.Money{Amount: reported, Currency: amount.Currency},
		Settled: strings.EqualFold(body.Status, "COMPLETE"),
	}, nil
}

func (e *Esewa) productCode() string {
	if e.ProductCode != "" {
		return e.ProductCode
	}
	return "EPAYTEST"
}

func (e *Esewa) httpClient() *http.Client {
	if e.HTTPClient != nil {
		return e.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

var _ policies.PaymentGateway = (*Esewa)(nil)
