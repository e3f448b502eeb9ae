// Package cbr fetches daily exchange rates published by the Central Bank of Russia.
package cbr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"

	"finance-dashboard/internal/simulation"
)

// DefaultURL is the daily rates endpoint.
const DefaultURL = "https://www.cbr.ru/scripts/XML_daily.asp"

// Pivot is the currency all published rates are quoted in.
const Pivot = "RUB"

// ErrUnknownCurrency is returned when the daily table has no such currency.
// It wraps simulation.ErrUnknownCurrency so callers can match either.
var ErrUnknownCurrency = fmt.Errorf("cbr: %w", simulation.ErrUnknownCurrency)

// ErrMalformedResponse is returned when the XML cannot be interpreted.
var ErrMalformedResponse = errors.New("cbr: malformed rates response")

// Client fetches and caches the daily table.
type Client struct {
	url     string
	http    *retryablehttp.Client
	log     logrus.FieldLogger
	now     func() time.Time
	onFetch func(error)

	mu    sync.Mutex
	cache map[string]map[string]decimal.Decimal // date -> code -> RUB per unit
}

// Options configures a Client.
type Options struct {
	URL        string
	RetryMax   int
	Logger     logrus.FieldLogger
	HTTPClient *http.Client
	// OnFetch is called after every network fetch, e.g. for metrics.
	OnFetch func(error)
}

// NewClient creates a client. Zero options fall back to defaults.
func NewClient(opts Options) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	if opts.RetryMax > 0 {
		rc.RetryMax = opts.RetryMax
	}
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	if opts.HTTPClient != nil {
		rc.HTTPClient = opts.HTTPClient
	}

	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	rc.Logger = leveledLogger{log.WithField("component", "cbr")}

	url := opts.URL
	if url == "" {
		url = DefaultURL
	}

	return &Client{
		url:     url,
		http:    rc,
		log:     log,
		now:     time.Now,
		onFetch: opts.OnFetch,
		cache:   make(map[string]map[string]decimal.Decimal),
	}
}

// Rate returns how many units of to one unit of from is worth, using today's table.
func (c *Client) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	table, err := c.table(ctx, c.now())
	if err != nil {
		return decimal.Zero, err
	}

	rf, ok := table[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	rt, ok := table[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}
	return rf.Div(rt), nil
}

// table returns the cached table for day, fetching it on a miss.
func (c *Client) table(ctx context.Context, day time.Time) (map[string]decimal.Decimal, error) {
	key := day.Format("2006-01-02")

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.cache[key]; ok {
		return t, nil
	}

	t, err := c.fetch(ctx, day)
	if c.onFetch != nil {
		c.onFetch(err)
	}
	if err != nil {
		return nil, err
	}

	c.cache[key] = t
	c.log.WithFields(logrus.Fields{"date": key, "currencies": len(t)}).Info("cbr rates loaded")
	return t, nil
}

func (c *Client) fetch(ctx context.Context, day time.Time) (map[string]decimal.Decimal, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("date_req", day.Format("02/01/2006"))
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status code %d", resp.StatusCode)
	}

	return parseDaily(resp.Body)
}

// parseDaily decodes a windows-1251 ValCurs document into RUB per unit.
func parseDaily(r io.Reader) (map[string]decimal.Decimal, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	root := doc.SelectElement("ValCurs")
	if root == nil {
		return nil, fmt.Errorf("%w: no ValCurs element", ErrMalformedResponse)
	}

	rates := map[string]decimal.Decimal{Pivot: decimal.NewFromInt(1)}
	for _, v := range root.SelectElements("Valute") {
		code := elementText(v, "CharCode")
		if code == "" {
			continue
		}

		value, err := parseDecimal(elementText(v, "Value"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s value: %v", ErrMalformedResponse, code, err)
		}

		nominal := decimal.NewFromInt(1)
		if n := elementText(v, "Nominal"); n != "" {
			nominal, err = parseDecimal(n)
			if err != nil || nominal.IsZero() {
				return nil, fmt.Errorf("%w: %s nominal %q", ErrMalformedResponse, code, n)
			}
		}

		rates[strings.ToUpper(code)] = value.Div(nominal)
	}

	if len(rates) == 1 {
		return nil, fmt.Errorf("%w: no currencies", ErrMalformedResponse)
	}
	return rates, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder().Reader(input), nil
	case "utf-8", "":
		return input, nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}

func elementText(parent *etree.Element, tag string) string {
	if e := parent.SelectElement(tag); e != nil {
		return strings.TrimSpace(e.Text())
	}
	return ""
}

// parseDecimal accepts the decimal comma used in the feed.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.Replace(s, ",", ".", 1))
}

// leveledLogger routes retryablehttp logging to logrus at debug level.
type leveledLogger struct {
	log logrus.FieldLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.log.WithFields(fields(kv)).Error(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.log.WithFields(fields(kv)).Warn(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.log.WithFields(fields(kv)).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.log.WithFields(fields(kv)).Debug(msg) }

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}

var _ simulation.RateProvider = (*Client)(nil)
var _ retryablehttp.LeveledLogger = leveledLogger{}
