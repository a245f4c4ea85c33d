package memeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

// tipService implements app.TipService using the meme API.
type tipService struct {
	client *Client
}

// NewTipService creates a TipService backed by the meme API.
func NewTipService(client *Client) *tipService {
	return &tipService{client: client}
}

// tipDTO is the wire shape of a tip record. Decimals travel as strings.
type tipDTO struct {
	TransactionID   string          `json:"transactionId"`
	FromWallet      string          `json:"fromWallet"`
	ToWallet        string          `json:"toWallet"`
	ItemID          string          `json:"memeId"`
	Amount          decimal.Decimal `json:"amount"`
	Token           string          `json:"token"`
	PriceAtSendTime decimal.Decimal `json:"priceAtSendTime"`
	CreatedAt       json.RawMessage `json:"createdAt,omitempty"`
}

func (s *tipService) CreateTip(ctx context.Context, tip domain.Tip) error {
	created, _ := json.Marshal(tip.CreatedAt.UTC().Format(time.RFC3339Nano))
	body := tipDTO{
		TransactionID:   tip.TransactionID,
		FromWallet:      tip.FromWallet,
		ToWallet:        tip.ToWallet,
		ItemID:          tip.ItemID,
		Amount:          tip.Amount,
		Token:           tip.Token,
		PriceAtSendTime: tip.PriceAtSendTime,
		CreatedAt:       created,
	}
	if _, err := s.client.PostJSON(ctx, "/api/tips", body); err != nil {
		return fmt.Errorf("recording tip %s: %w", tip.TransactionID, err)
	}
	return nil
}

func (s *tipService) ListTips(ctx context.Context, itemID string) ([]domain.Tip, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf("/api/memes/%s/tips", url.PathEscape(itemID)))
	if err != nil {
		return nil, fmt.Errorf("listing tips: %w", err)
	}
	var dtos []tipDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("parsing tips: %w", err)
	}
	tips := make([]domain.Tip, 0, len(dtos))
	for _, d := range dtos {
		tips = append(tips, domain.Tip{
			TransactionID:   d.TransactionID,
			FromWallet:      d.FromWallet,
			ToWallet:        d.ToWallet,
			ItemID:          d.ItemID,
			Amount:          d.Amount,
			Token:           d.Token,
			PriceAtSendTime: d.PriceAtSendTime,
			CreatedAt:       decodeTimestamp(d.CreatedAt),
		})
	}
	return tips, nil
}
