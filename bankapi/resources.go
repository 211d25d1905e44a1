package bankapi

import (
	"context"
	"encoding/json"
	"net/url"
)

// Domain resources read by the console. The payloads are relayed as is.
const (
	ClientsPath  = "/v1/clients"
	AccountsPath = "/v1/comptes"
)

func (c *Client) ListClients(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, ClientsPath, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) ListAccounts(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, AccountsPath, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ListTransactions returns the transactions of one account.
func (c *Client) ListTransactions(ctx context.Context, accountNumber string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, AccountsPath+"/"+url.PathEscape(accountNumber)+"/transactions", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
