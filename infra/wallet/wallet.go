package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

// Client submits transfers through a local signer bridge and confirms
// them against a Solana JSON-RPC endpoint.
type Client struct {
	bridgeURL string
	rpcURL    string
	http      *http.Client

	pollEvery time.Duration
	timeout   time.Duration
}

// New creates a wallet client.
func New(bridgeURL, rpcURL string) *Client {
	return &Client{
		bridgeURL: strings.TrimRight(bridgeURL, "/"),
		rpcURL:    rpcURL,
		http:      &http.Client{Timeout: 20 * time.Second},
		pollEvery: time.Second,
		timeout:   45 * time.Second,
	}
}

type transferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Token  string          `json:"token"`
}

type transferResponse struct {
	Signature string `json:"signature"`
	Error     string `json:"error"`
}

// Transfer signs and submits the transfer, then waits for confirmation.
// The returned signature is the transaction id tips are keyed by.
func (c *Client) Transfer(ctx context.Context, from, to string, amount decimal.Decimal, token string) (string, error) {
	if !amount.IsPositive() {
		return "", domain.ErrInvalidAmount
	}
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return "", fmt.Errorf("%w: missing wallet address", domain.ErrTransferRejected)
	}

	body, err := json.Marshal(transferRequest{From: from, To: to, Amount: amount, Token: token})
	if err != nil {
		return "", fmt.Errorf("encoding transfer: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bridgeURL+"/transfers", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTransferRejected, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading transfer response: %w", err)
	}

	var out transferResponse
	decodeErr := json.Unmarshal(data, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(out.Error)
		if msg == "" {
			msg = fmt.Sprintf("bridge returned %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %s", domain.ErrTransferRejected, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decoding bridge response: %v", domain.ErrTransferRejected, decodeErr)
	}
	if out.Signature == "" {
		return "", fmt.Errorf("%w: bridge returned no signature", domain.ErrTransferRejected)
	}

	if err := c.waitConfirmed(ctx, out.Signature); err != nil {
		return "", err
	}
	return out.Signature, nil
}

func (c *Client) waitConfirmed(ctx context.Context, sig string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()
	for {
		ok, err := c.Confirmed(ctx, sig)
		if errors.Is(err, domain.ErrTransferRejected) {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", domain.ErrNotConfirmed, sig)
		case <-ticker.C:
		}
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type signatureStatus struct {
	ConfirmationStatus string          `json:"confirmationStatus"`
	Err                json.RawMessage `json:"err"`
}

type statusesResponse struct {
	Result struct {
		Value []*signatureStatus `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// Confirmed reports whether sig reached "confirmed" or "finalized".
// A transaction that landed with an error yields ErrTransferRejected.
func (c *Client) Confirmed(ctx context.Context, sig string) (bool, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getSignatureStatuses",
		Params:  []any{[]string{sig}, map[string]bool{"searchTransactionHistory": true}},
	})
	if err != nil {
		return false, fmt.Errorf("encoding rpc request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("creating rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("rpc getSignatureStatuses: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("rpc getSignatureStatuses returned %d", resp.StatusCode)
	}

	var out statusesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decoding rpc response: %w", err)
	}
	if out.Error != nil {
		return false, fmt.Errorf("rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Result.Value) == 0 || out.Result.Value[0] == nil {
		return false, nil
	}
	st := out.Result.Value[0]
	if len(st.Err) > 0 && string(st.Err) != "null" {
		return false, fmt.Errorf("%w: transaction failed: %s", domain.ErrTransferRejected, string(st.Err))
	}
	switch st.ConfirmationStatus {
	case "confirmed", "finalized":
		return true, nil
	}
	return false, nil
}
