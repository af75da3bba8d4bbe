package questrade

import (
	"context"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
)

// Accounts retrieves the accounts linked to the token.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var result AccountsResponse
	if err := c.GetJSON(ctx, "/v1/accounts", nil, &result); err != nil {
		return nil, err
	}
	if result.Accounts == nil {
		return nil, missingKey("accounts")
	}
	return result.Accounts, nil
}

// AccountNumbers returns the number of every linked account.
func (c *Client) AccountNumbers(ctx context.Context) ([]string, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	numbers := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		numbers = append(numbers, acc.Number)
	}
	return numbers, nil
}

// Positions retrieves the positions held in an account.
func (c *Client) Positions(ctx context.Context, accountID string) ([]Position, error) {
	if accountID == "" {
		return nil, errorf(ErrConfiguration, "positions", "accountID is required")
	}

	var result PositionsResponse
	path := "/v1/accounts/" + url.PathEscape(accountID) + "/positions"
	if err := c.GetJSON(ctx, path, nil, &result); err != nil {
		return nil, err
	}
	if result.Positions == nil {
		return nil, missingKey("positions")
	}
	return result.Positions, nil
}

// Activities retrieves account activities between start and end.
// Questrade caps the interval at 31 days.
func (c *Client) Activities(ctx context.Context, accountID string, start, end time.Time) ([]Activity, error) {
	if accountID == "" {
		return nil, errorf(ErrConfiguration, "activities", "accountID is required")
	}
	if end.Before(start) {
		return nil, errorf(ErrConfiguration, "activities", "end %s is before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	params := url.Values{}
	params.Set("startTime", start.Format(time.RFC3339))
	params.Set("endTime", end.Format(time.RFC3339))

	var result ActivitiesResponse
	path := "/v1/accounts/" + url.PathEscape(accountID) + "/activities"
	if err := c.GetJSON(ctx, path, params, &result); err != nil {
		return nil, err
	}
	if result.Activities == nil {
		return nil, missingKey("activities")
	}
	return result.Activities, nil
}

func missingKey(key string) error {
	return newError(ErrUpstream, "decode response", errors.Newf("response has no %q field", key))
}
