package fotmob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/fotmob-etl/internal/platform/logging"
	"github.com/riskibarqy/fotmob-etl/internal/platform/rawjson"
	"github.com/riskibarqy/fotmob-etl/internal/usecase"
)

const (
	DefaultBaseURL  = "https://www.fotmob.com"
	DefaultLeagueID = int64(55)

	leaguesPath         = "/api/leagues"
	defaultMaxBodyBytes = int64(16 << 20)
	defaultTimeout      = 30 * time.Second
)

var (
	// ErrUpstream marks failures talking to FotMob: transport errors, non-2xx
	// responses and oversized bodies.
	ErrUpstream     = crerr.New("fotmob upstream failure")
	ErrBodyTooLarge = crerr.New("response body exceeds limit")
)

type ClientConfig struct {
	// HTTPClient is copied, never modified.
	HTTPClient   *http.Client
	BaseURL      string
	LeagueID     int64
	Timeout      time.Duration
	MaxBodyBytes int64
	Logger       *logging.Logger
}

// Client fetches league pages. It never retries; retries belong to the caller.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	leagueID     int64
	maxBodyBytes int64
	logger       *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	var httpClient http.Client
	if cfg.HTTPClient != nil {
		httpClient = *cfg.HTTPClient
	} else {
		httpClient = http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	leagueID := cfg.LeagueID
	if leagueID <= 0 {
		leagueID = DefaultLeagueID
	}

	return &Client{
		httpClient:   &httpClient,
		baseURL:      baseURL,
		leagueID:     leagueID,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.Named("fotmob"),
	}
}

// FetchSeason issues GET /api/leagues?id=<league>&season=<season> and returns
// matches.allMatches and table[0].data.table.all untouched.
func (c *Client) FetchSeason(ctx context.Context, season string) (usecase.RawSeason, error) {
	season = strings.TrimSpace(season)
	if season == "" {
		return usecase.RawSeason{}, crerr.Wrap(usecase.ErrInvalidInput, "season is required")
	}

	query := url.Values{}
	query.Set("id", strconv.FormatInt(c.leagueID, 10))
	query.Set("season", season)

	started := time.Now()
	raw, err := c.get(ctx, leaguesPath, query)
	if err != nil {
		return usecase.RawSeason{}, crerr.Wrapf(err, "fetch league id=%d season=%s", c.leagueID, season)
	}

	if !sonic.Valid(raw) {
		return usecase.RawSeason{}, crerr.Newf("decode league payload season=%s: invalid json", season)
	}
	out, err := extractSeason(raw)
	if err != nil {
		return usecase.RawSeason{}, crerr.Wrapf(err, "extract league payload season=%s", season)
	}

	c.logger.DebugContext(ctx, "league season fetched",
		"season", season,
		"matches", len(out.Matches),
		"standings", len(out.Standings),
		"bytes", len(raw),
		"duration", time.Since(started),
	)
	return out, nil
}

func extractSeason(raw []byte) (usecase.RawSeason, error) {
	root, err := sonic.Get(raw)
	if err != nil {
		return usecase.RawSeason{}, crerr.Wrap(err, "decode league payload")
	}

	matches, err := collection(&root, "matches", "allMatches")
	if err != nil {
		return usecase.RawSeason{}, err
	}
	standings, err := collection(&root, "table", 0, "data", "table", "all")
	if err != nil {
		return usecase.RawSeason{}, err
	}
	return usecase.RawSeason{Matches: matches, Standings: standings}, nil
}

// collection walks path (object keys and array indexes) from root and decodes
// the array of objects it ends at. An absent or null step is a missing field.
func collection(root *ast.Node, path ...any) ([]map[string]any, error) {
	node := root
	for i, step := range path {
		switch key := step.(type) {
		case string:
			if node.TypeSafe() != ast.V_OBJECT {
				return nil, crerr.Wrapf(rawjson.ErrFieldType, "%s: expected object", pathString(path[:i]))
			}
			node = node.Get(key)
		case int:
			if node.TypeSafe() != ast.V_ARRAY {
				return nil, crerr.Wrapf(rawjson.ErrFieldType, "%s: expected array", pathString(path[:i]))
			}
			node = node.Index(key)
		default:
			return nil, crerr.Newf("unsupported path step %T", step)
		}

		where := pathString(path[:i+1])
		if node == nil || node.TypeSafe() == ast.V_NONE || node.TypeSafe() == ast.V_NULL {
			return nil, crerr.Wrap(rawjson.ErrMissingField, where)
		}
		if err := node.Check(); err != nil {
			return nil, crerr.Wrapf(err, "read %s", where)
		}
	}

	where := pathString(path)
	if node.TypeSafe() != ast.V_ARRAY {
		return nil, crerr.Wrapf(rawjson.ErrFieldType, "%s: expected array", where)
	}
	items, err := node.Array()
	if err != nil {
		return nil, crerr.Wrapf(err, "decode %s", where)
	}
	return rawjson.Objects(items, where)
}

// pathString renders ("table", 0, "data") as table[0].data.
func pathString(path []any) string {
	var b strings.Builder
	for _, step := range path {
		switch key := step.(type) {
		case int:
			b.WriteString("[" + strconv.Itoa(key) + "]")
		default:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, key)
		}
	}
	if b.Len() == 0 {
		return "$"
	}
	return b.String()
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "fotmob request failed", "url", fullURL, "error", err)
		return nil, crerr.Mark(crerr.Wrap(err, "send request"), ErrUpstream)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	// One byte past the limit tells an exact fit from a truncated body.
	n, err := buf.ReadFrom(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "read response body"), ErrUpstream)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "fotmob returned non-success status", "url", fullURL, "status", resp.StatusCode)
		return nil, crerr.Mark(
			crerr.Newf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(buf.B)),
			ErrUpstream,
		)
	}
	if n > c.maxBodyBytes {
		c.logger.WarnContext(ctx, "fotmob response body too large", "url", fullURL, "limit_bytes", c.maxBodyBytes)
		return nil, crerr.Mark(crerr.Wrapf(ErrBodyTooLarge, "%d bytes", c.maxBodyBytes), ErrUpstream)
	}

	// buf goes back to the pool, so hand out a copy.
	return append([]byte(nil), buf.B...), nil
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
