package questrade

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Intervals accepted by Candles.
var Intervals = []string{
	"OneMinute", "TwoMinutes", "ThreeMinutes", "FourMinutes", "FiveMinutes",
	"TenMinutes", "FifteenMinutes", "TwentyMinutes", "HalfHour",
	"OneHour", "TwoHours", "FourHours",
	"OneDay", "OneWeek", "OneMonth", "OneYear",
}

// ValidInterval reports whether interval is a candle granularity the API accepts.
func ValidInterval(interval string) bool {
	for _, iv := range Intervals {
		if iv == interval {
			return true
		}
	}
	return false
}

// Symbols looks up instrument details by ticker. Results are memoized
// per ticker set for the client's symbol cache TTL.
func (c *Client) Symbols(ctx context.Context, tickers ...string) ([]Symbol, error) {
	names, err := normalizeTickers(tickers)
	if err != nil {
		return nil, err
	}

	if c.symbols == nil {
		return c.lookupSymbols(ctx, names)
	}

	key := strings.Join(names, ",")
	v, err, cached := c.symbols.Memoize(key, func() (interface{}, error) {
		return c.lookupSymbols(ctx, names)
	})
	if err != nil {
		return nil, err
	}
	if cached {
		c.logger.Debug("symbol lookup served from cache", "names", key)
	}

	symbols := v.([]Symbol)
	return append([]Symbol(nil), symbols...), nil
}

func (c *Client) lookupSymbols(ctx context.Context, names []string) ([]Symbol, error) {
	params := url.Values{}
	params.Set("names", strings.Join(names, ","))

	var result SymbolsResponse
	if err := c.GetJSON(ctx, "/v1/symbols", params, &result); err != nil {
		return nil, err
	}
	if result.Symbols == nil {
		return nil, missingKey("symbols")
	}
	return result.Symbols, nil
}

// SymbolIDs resolves tickers to symbol IDs, in the order given.
func (c *Client) SymbolIDs(ctx context.Context, tickers ...string) ([]int64, error) {
	names, err := normalizeTickers(tickers)
	if err != nil {
		return nil, err
	}

	symbols, err := c.Symbols(ctx, names...)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int64, len(symbols))
	for _, s := range symbols {
		byName[strings.ToUpper(s.Symbol)] = s.SymbolID
	}

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			return nil, newError(ErrUpstream, "resolve symbols", errors.Newf("symbol %q not found", name))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Quotes retrieves Level 1 quotes for the given tickers.
func (c *Client) Quotes(ctx context.Context, tickers ...string) ([]Quote, error) {
	ids, err := c.SymbolIDs(ctx, tickers...)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("ids", joinIDs(ids))

	var result QuotesResponse
	if err := c.GetJSON(ctx, "/v1/markets/quotes", params, &result); err != nil {
		return nil, err
	}
	if result.Quotes == nil {
		return nil, missingKey("quotes")
	}
	return result.Quotes, nil
}

// Candles retrieves historical bars for one ticker between start and end.
func (c *Client) Candles(ctx context.Context, ticker string, start, end time.Time, interval string) ([]Candle, error) {
	const op = "candles"

	if !ValidInterval(interval) {
		return nil, errorf(ErrConfiguration, op, "invalid interval %q (valid: %s)", interval, strings.Join(Intervals, ", "))
	}
	if end.Before(start) {
		return nil, errorf(ErrConfiguration, op, "end %s is before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	ids, err := c.SymbolIDs(ctx, ticker)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("startTime", start.Format(time.RFC3339))
	params.Set("endTime", end.Format(time.RFC3339))
	params.Set("interval", interval)

	var result CandlesResponse
	path := "/v1/markets/candles/" + strconv.FormatInt(ids[0], 10)
	if err := c.GetJSON(ctx, path, params, &result); err != nil {
		return nil, err
	}
	if result.Candles == nil {
		return nil, missingKey("candles")
	}
	return result.Candles, nil
}

// normalizeTickers upper-cases, trims and de-duplicates tickers, keeping order.
func normalizeTickers(tickers []string) ([]string, error) {
	seen := make(map[string]bool, len(tickers))
	names := make([]string, 0, len(tickers))
	for _, t := range tickers {
		name := strings.ToUpper(strings.TrimSpace(t))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, errorf(ErrConfiguration, "resolve symbols", "at least one symbol is required")
	}
	return names, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
